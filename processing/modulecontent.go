package processing

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/NicoHurtado/prompt2course/clients/generation"
)

// ModuleContent is the parsed content of one generated module.
type ModuleContent struct {
	ModuleID          string          `json:"module_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Objective         string          `json:"objective"`
	Concepts          []string        `json:"concepts"`
	Summary           string          `json:"summary"`
	PracticalExercise json.RawMessage `json:"practical_exercise"`
	Resources         json.RawMessage `json:"resources"`
	Chunks            []ChunkSpec     `json:"chunks"`
	Quiz              []QuizSpec      `json:"quiz"`
}

// ChunkSpec is one ordered slice of module content.
type ChunkSpec struct {
	ChunkID          string `json:"chunk_id"`
	ChunkOrder       int    `json:"chunk_order"`
	TotalChunks      int    `json:"total_chunks"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	Checksum         string `json:"checksum"`
	VideoSearchQuery string `json:"video_search_query"`
}

// QuizSpec is one quiz question.
type QuizSpec struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// MinChunksPerModule is the structural minimum for a usable module.
const MinChunksPerModule = 4

// ParseModuleContent turns raw model text into a ModuleContent. Model output
// sometimes carries control characters, literal escapes or prose around the
// JSON, so parsing runs a repair chain: strict parse, control-character strip,
// then the substring between the first '{' and the last '}'. If everything
// fails a minimal placeholder is returned so callers always get a structurally
// valid object.
func ParseModuleContent(raw string, course generation.CourseInfo, moduleNumber int) *ModuleContent {
	var content ModuleContent
	if err := json.Unmarshal([]byte(raw), &content); err == nil {
		return &content
	}

	stripped := stripControlChars(raw)
	if err := json.Unmarshal([]byte(stripped), &content); err == nil {
		return &content
	}

	if sub, ok := braceSubstring(stripped); ok {
		if err := json.Unmarshal([]byte(sub), &content); err == nil {
			return &content
		}
	}

	log.Printf("Module %d content unparseable after repair attempts, using placeholder", moduleNumber)
	return placeholderModule(course, moduleNumber)
}

// stripControlChars removes raw control characters. Inside JSON strings they
// are illegal; between tokens they are only whitespace, so dropping them all
// is safe.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// braceSubstring returns the substring spanning the first '{' to the last '}'.
func braceSubstring(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// placeholderModule builds a structurally valid but empty module, titled from
// the course module list.
func placeholderModule(course generation.CourseInfo, moduleNumber int) *ModuleContent {
	title := fmt.Sprintf("Module %d", moduleNumber)
	if moduleNumber >= 1 && moduleNumber <= len(course.ModuleList) {
		title = course.ModuleList[moduleNumber-1]
	}
	return &ModuleContent{
		ModuleID: fmt.Sprintf("module_%d", moduleNumber),
		Title:    title,
		Concepts: []string{},
		Chunks:   []ChunkSpec{},
		Quiz:     []QuizSpec{},
	}
}

// ValidateModuleContent enforces the structural minimum for persisting a
// module: a title, a description, and at least MinChunksPerModule chunks.
func ValidateModuleContent(content *ModuleContent) error {
	if content.Title == "" {
		return &MalformedGenerationError{Reason: "module content missing title"}
	}
	if content.Description == "" {
		return &MalformedGenerationError{Reason: "module content missing description"}
	}
	if len(content.Chunks) < MinChunksPerModule {
		return &MalformedGenerationError{
			Reason: fmt.Sprintf("module content has %d chunks, need at least %d", len(content.Chunks), MinChunksPerModule),
		}
	}
	return nil
}
