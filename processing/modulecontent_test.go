package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicoHurtado/prompt2course/clients/generation"
)

var testCourse = generation.CourseInfo{
	Title:      "Intro to Databases",
	Level:      "beginner",
	ModuleList: []string{"Relational Basics", "SQL Queries", "Indexing", "Transactions"},
}

func TestParseModuleContentStrict(t *testing.T) {
	raw := `{"title": "SQL Queries", "description": "Writing queries", "chunks": [{"title": "SELECT", "content": "..."}]}`

	content := ParseModuleContent(raw, testCourse, 2)
	assert.Equal(t, "SQL Queries", content.Title)
	require.Len(t, content.Chunks, 1)
	assert.Equal(t, "SELECT", content.Chunks[0].Title)
}

func TestParseModuleContentStripsControlChars(t *testing.T) {
	raw := "{\"title\": \"With\x08Control\", \"description\": \"d\"}"

	content := ParseModuleContent(raw, testCourse, 1)
	assert.Equal(t, "WithControl", content.Title)
}

func TestParseModuleContentBraceSubstring(t *testing.T) {
	raw := "Sure! Here is the module content you asked for:\n" +
		`{"title": "Indexing", "description": "B-trees"}` +
		"\nLet me know if you need anything else."

	content := ParseModuleContent(raw, testCourse, 3)
	assert.Equal(t, "Indexing", content.Title)
	assert.Equal(t, "B-trees", content.Description)
}

func TestParseModuleContentPlaceholderFallback(t *testing.T) {
	content := ParseModuleContent("not json at all", testCourse, 2)
	assert.Equal(t, "SQL Queries", content.Title)
	assert.Equal(t, "module_2", content.ModuleID)
	assert.Empty(t, content.Chunks)
}

func TestParseModuleContentPlaceholderBeyondModuleList(t *testing.T) {
	content := ParseModuleContent("garbage", testCourse, 9)
	assert.Equal(t, "Module 9", content.Title)
}

func TestValidateModuleContent(t *testing.T) {
	valid := &ModuleContent{
		Title:       "T",
		Description: "D",
		Chunks:      make([]ChunkSpec, MinChunksPerModule),
	}
	assert.NoError(t, ValidateModuleContent(valid))

	tooFew := &ModuleContent{Title: "T", Description: "D", Chunks: make([]ChunkSpec, 3)}
	err := ValidateModuleContent(tooFew)
	require.Error(t, err)
	var malformed *MalformedGenerationError
	assert.ErrorAs(t, err, &malformed)

	assert.Error(t, ValidateModuleContent(&ModuleContent{Description: "D", Chunks: make([]ChunkSpec, 4)}))
	assert.Error(t, ValidateModuleContent(&ModuleContent{Title: "T", Chunks: make([]ChunkSpec, 4)}))
}
