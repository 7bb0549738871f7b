// Package generation defines the LLM content-generation capability used by
// the course pipeline, plus its OpenAI implementation.
package generation

import (
	"context"
	"encoding/json"
)

// CourseInfo is the slice of course metadata the content prompts need.
type CourseInfo struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Level       string   `json:"level"`
	Language    string   `json:"language"`
	ModuleList  []string `json:"module_list"`
	Topics      []string `json:"topics"`
}

// MetadataRequest carries the user inputs for the metadata stage.
type MetadataRequest struct {
	Prompt    string
	Level     string
	Interests []string
	Language  string
}

// CourseMetadata is the structured result of the metadata stage.
type CourseMetadata struct {
	Title             string   `json:"title" jsonschema_description:"Concise, engaging course title"`
	Description       string   `json:"description" jsonschema_description:"Two to three sentence course description"`
	Introduction      string   `json:"introduction" jsonschema_description:"Short welcome paragraph shown before module 1"`
	Prerequisites     []string `json:"prerequisites" jsonschema_description:"Prior knowledge the student should have"`
	TotalModules      int      `json:"total_modules" jsonschema_description:"Number of modules, between 1 and 10"`
	ModuleList        []string `json:"module_list" jsonschema_description:"Ordered module titles, at least 3"`
	Topics            []string `json:"topics" jsonschema_description:"Main topics covered, at most 20"`
	PodcastScript     string   `json:"podcast_script" jsonschema_description:"Two-host dialogue script, lines prefixed MARIA: and CARLOS:"`
	TotalSizeEstimate string   `json:"total_size" jsonschema_description:"Rough size estimate, e.g. ~300KB of interactive content"`
}

// ModuleSummary is the per-module digest fed into final-project generation.
type ModuleSummary struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Concepts    []string `json:"concepts"`
}

// Client is the content-generation capability. GenerateModuleContent returns
// the raw model text; module responses are long and occasionally malformed,
// so parsing and repair live with the caller.
type Client interface {
	GenerateCourseMetadata(ctx context.Context, req MetadataRequest) (*CourseMetadata, error)
	GenerateModuleContent(ctx context.Context, course CourseInfo, moduleNumber int) (string, error)
	GenerateFinalProject(ctx context.Context, course CourseInfo, modules []ModuleSummary) (json.RawMessage, error)
}
