package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GenerateSchema generates a JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// Cached schemas, built once at init
var courseMetadataSchema = GenerateSchema[CourseMetadata]()

// OpenAIClient implements Client on the OpenAI chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAIClient builds a client with an explicit API key. The model defaults
// to GPT-4o mini when empty.
func NewOpenAIClient(apiKey string, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}
	m := openai.ChatModel(model)
	if model == "" {
		m = openai.ChatModelGPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}, nil
}

// GenerateCourseMetadata produces the full course structure from the user
// prompt using schema-enforced structured outputs.
func (c *OpenAIClient) GenerateCourseMetadata(ctx context.Context, req MetadataRequest) (*CourseMetadata, error) {
	prompt := fmt.Sprintf(`You are designing a complete online course from a learner's request.

Learner request: %s
Learner level: %s
Learner interests: %s
Course language: %s

Design the course structure. Requirements:
- A concise, engaging title and a 2-3 sentence description
- Between 3 and 10 modules, ordered from fundamentals to mastery
- A short introduction welcoming the learner
- The main topics covered (at most 20)
- Prerequisites the learner should have, if any
- A podcast script: a friendly two-host dialogue introducing the course.
  Every line must start with either "MARIA:" or "CARLOS:". Alternate hosts
  and keep it under 600 words.

Write all content in the course language.`,
		req.Prompt, req.Level, formatInterests(req.Interests), req.Language)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "course_metadata",
		Description: openai.String("Complete course structure for a learner request"),
		Schema:      courseMetadataSchema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: c.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	rawResponse := chatCompletion.Choices[0].Message.Content
	if rawResponse == "" {
		return nil, fmt.Errorf("OpenAI returned empty response. Finish reason: %s", chatCompletion.Choices[0].FinishReason)
	}

	var metadata CourseMetadata
	if err := json.Unmarshal([]byte(rawResponse), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI JSON response: %w", err)
	}
	return &metadata, nil
}

// GenerateModuleContent asks for the full content of one module and returns
// the raw model text for the caller to parse.
func (c *OpenAIClient) GenerateModuleContent(ctx context.Context, course CourseInfo, moduleNumber int) (string, error) {
	moduleTitle := fmt.Sprintf("Module %d", moduleNumber)
	if moduleNumber >= 1 && moduleNumber <= len(course.ModuleList) {
		moduleTitle = course.ModuleList[moduleNumber-1]
	}

	prompt := fmt.Sprintf(`You are writing module %d of the course "%s" (%s level, language: %s).
Course description: %s
Module title: %s

Respond with a single JSON object, no surrounding text, with this structure:
{
  "module_id": "module_%d",
  "title": "...",
  "description": "...",
  "objective": "...",
  "concepts": ["..."],
  "summary": "...",
  "practical_exercise": {"title": "...", "description": "...", "steps": ["..."]},
  "resources": {"articles": ["..."], "documentation": ["..."]},
  "chunks": [
    {"chunk_id": "module_%d_chunk_1", "chunk_order": 1, "total_chunks": 6,
     "title": "...", "content": "markdown lesson text, 300-500 words",
     "video_search_query": "short YouTube search query for this lesson"}
  ],
  "quiz": [
    {"question": "...", "options": ["...", "...", "...", "..."],
     "correct_answer": 0, "explanation": "..."}
  ]
}

Requirements: between 4 and 8 chunks with contiguous chunk_order starting at 1,
and between 3 and 5 quiz questions. Write all content in the course language.`,
		moduleNumber, course.Title, course.Level, course.Language,
		course.Description, moduleTitle, moduleNumber, moduleNumber)

	return c.complete(ctx, prompt)
}

// GenerateFinalProject produces the capstone project from the module digests.
func (c *OpenAIClient) GenerateFinalProject(ctx context.Context, course CourseInfo, modules []ModuleSummary) (json.RawMessage, error) {
	var summary strings.Builder
	for i, m := range modules {
		fmt.Fprintf(&summary, "\n- Module %d: %s. %s. Concepts: %s",
			i+1, m.Title, m.Description, strings.Join(m.Concepts, ", "))
	}

	prompt := fmt.Sprintf(`Design the final project for the course "%s" (%s level, language: %s).
The course covered these modules:%s

Respond with a single JSON object, no surrounding text:
{
  "title": "...",
  "description": "...",
  "objectives": ["..."],
  "deliverables": ["..."],
  "steps": ["..."],
  "evaluation_criteria": ["..."]
}

The project must apply concepts from every module. Write in the course language.`,
		course.Title, course.Level, course.Language, summary.String())

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var project json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &project); err != nil {
		return nil, fmt.Errorf("failed to parse final project JSON: %w", err)
	}
	return project, nil
}

// complete runs a plain chat completion and returns the raw text.
func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	chatCompletion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	rawResponse := chatCompletion.Choices[0].Message.Content
	if rawResponse == "" {
		return "", fmt.Errorf("OpenAI returned empty response. Finish reason: %s", chatCompletion.Choices[0].FinishReason)
	}
	return rawResponse, nil
}

func formatInterests(interests []string) string {
	if len(interests) == 0 {
		return "none given"
	}
	return strings.Join(interests, ", ")
}
