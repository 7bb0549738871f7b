package tasks

import "encoding/json"

// ---
// QUEUE DEFINITIONS
// ---
// We define all queue names as constants here.
const (
	// QueueCourseMetadata is the first stage: generate course metadata and
	// the podcast.
	QueueCourseMetadata = "q_course_metadata"

	// QueueModuleOne is the second stage: generate module 1 content so the
	// course becomes usable.
	QueueModuleOne = "q_module_one"

	// QueueRemainingModules is the third stage: generate modules 2..N and
	// the final project.
	QueueRemainingModules = "q_remaining_modules"

	// QueueRegenerateModules is the repair stage: backfill any module left
	// without content.
	QueueRegenerateModules = "q_regenerate_modules"
)

// ---
// TASK PAYLOADS
// ---
// These are the structs that will be JSON-marshalled and sent to Redis.
// Every stage is bound to exactly one course.

// MetadataTaskPayload is the payload for QueueCourseMetadata.
type MetadataTaskPayload struct {
	CourseID string `json:"course_id"`
}

// ModuleOneTaskPayload is the payload for QueueModuleOne.
type ModuleOneTaskPayload struct {
	CourseID string `json:"course_id"`
}

// RemainingModulesTaskPayload is the payload for QueueRemainingModules.
type RemainingModulesTaskPayload struct {
	CourseID string `json:"course_id"`
}

// RegenerateTaskPayload is the payload for QueueRegenerateModules.
type RegenerateTaskPayload struct {
	CourseID string `json:"course_id"`
}

// ---
// HELPER FUNCTIONS
// ---

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
