package processing

import (
	"context"
	"log"
	"strings"

	"github.com/NicoHurtado/prompt2course/clients/generation"
	"github.com/NicoHurtado/prompt2course/clients/videosearch"
	"github.com/NicoHurtado/prompt2course/models"
)

// maxVideoCandidates bounds how many ranked candidates a chunk search pulls.
const maxVideoCandidates = 3

// Keyword heuristics for educational content. A deny hit rejects the
// candidate; with neither signal the candidate is accepted.
var educationalKeywords = []string{
	"tutorial", "learn", "course", "explained", "introduction",
	"guide", "class", "lesson", "teaching", "training",
	"beginners", "basics", "fundamentals", "concepts",
}

var excludedKeywords = []string{
	"music", "song", "trailer", "movie", "gaming",
	"vlog", "reaction", "unboxing", "review",
}

// Level-appropriateness signals.
var advancedSignals = []string{"advanced", "expert", "professional"}
var beginnerSignals = []string{"basic", "beginner", "introduction"}

// FindVideoForChunk searches for an educational video matching the chunk,
// filters candidates, and returns the first one whose catalog id is not in
// exclude. The chosen id is added to exclude. A nil result with nil error
// means no suitable unique video exists, which is not a failure.
func FindVideoForChunk(ctx context.Context, client videosearch.Client, chunk ChunkSpec, course generation.CourseInfo, exclude map[string]bool) (*videosearch.Result, error) {
	query := chunk.VideoSearchQuery
	if query == "" {
		query = searchQueryFromChunk(chunk, course)
	}

	candidates, err := client.Search(ctx, query, maxVideoCandidates)
	if err != nil {
		return nil, &TransientServiceError{Service: "video search", Err: err}
	}

	for _, candidate := range candidates {
		if !isEducationalContent(candidate.Title, candidate.Description) {
			continue
		}
		if !isLevelAppropriate(candidate.Title, course.Level) {
			continue
		}
		if exclude[candidate.VideoID] {
			continue
		}
		exclude[candidate.VideoID] = true
		c := candidate
		return &c, nil
	}

	log.Printf("No unique educational video found for chunk %q (query %q)", chunk.ChunkID, query)
	return nil, nil
}

// searchQueryFromChunk derives a search query from the chunk and course.
func searchQueryFromChunk(chunk ChunkSpec, course generation.CourseInfo) string {
	parts := []string{}
	if chunk.Title != "" {
		parts = append(parts, firstWords(chunk.Title, 5))
	} else {
		parts = append(parts, firstWords(course.Title, 3))
	}
	if course.Level != "" {
		parts = append(parts, course.Level)
	}
	query := strings.Join(parts, " ")
	if len(query) > 50 {
		query = query[:50]
	}
	return query
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// isEducationalContent applies the keyword allow/deny heuristic.
func isEducationalContent(title, description string) bool {
	text := strings.ToLower(title + " " + description)

	for _, keyword := range excludedKeywords {
		if strings.Contains(text, keyword) {
			return false
		}
	}
	for _, keyword := range educationalKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	// No clear signal either way: accept.
	return true
}

// isLevelAppropriate rejects videos pitched at the wrong end of the scale.
// Very short titles are also rejected as low quality.
func isLevelAppropriate(title, level string) bool {
	if len(title) < 10 {
		return false
	}
	lower := strings.ToLower(title)
	switch level {
	case models.LevelBeginner:
		for _, signal := range advancedSignals {
			if strings.Contains(lower, signal) {
				return false
			}
		}
	case models.LevelAdvanced:
		for _, signal := range beginnerSignals {
			if strings.Contains(lower, signal) {
				return false
			}
		}
	}
	return true
}
