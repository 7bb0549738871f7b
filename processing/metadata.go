package processing

import (
	"fmt"

	"github.com/NicoHurtado/prompt2course/clients/generation"
	"github.com/NicoHurtado/prompt2course/models"
)

// MinModuleList is the smallest module list a usable course can have.
const MinModuleList = 3

// ValidateCourseMetadata enforces the structural contract of the metadata
// stage. A failing response aborts the stage with MalformedGenerationError.
func ValidateCourseMetadata(metadata *generation.CourseMetadata) error {
	if metadata.Title == "" {
		return &MalformedGenerationError{Reason: "metadata missing title"}
	}
	if metadata.Description == "" {
		return &MalformedGenerationError{Reason: "metadata missing description"}
	}
	if len(metadata.ModuleList) < MinModuleList {
		return &MalformedGenerationError{
			Reason: fmt.Sprintf("module_list has %d entries, need at least %d", len(metadata.ModuleList), MinModuleList),
		}
	}
	if metadata.PodcastScript == "" {
		return &MalformedGenerationError{Reason: "metadata missing podcast_script"}
	}
	return nil
}

// ClampTotalModules bounds the generated module count to the course invariant,
// defaulting when the model omitted it.
func ClampTotalModules(n int) int {
	if n == 0 {
		return 4
	}
	if n < models.MinModules {
		return models.MinModules
	}
	if n > models.MaxModules {
		return models.MaxModules
	}
	return n
}
