package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseStatus tracks a course through the generation pipeline. Each stage
// moves the course forward; FAILED is reachable from any in-progress state.
type CourseStatus string

const (
	StatusGeneratingMetadata  CourseStatus = "generating_metadata"
	StatusMetadataReady       CourseStatus = "metadata_ready"
	StatusGeneratingModule1   CourseStatus = "generating_module_1"
	StatusReady               CourseStatus = "ready"
	StatusGeneratingRemaining CourseStatus = "generating_remaining"
	StatusComplete            CourseStatus = "complete"
	StatusFailed              CourseStatus = "failed"
)

// validTransitions lists the allowed predecessor states for each status.
var validTransitions = map[CourseStatus][]CourseStatus{
	StatusMetadataReady:       {StatusGeneratingMetadata},
	StatusGeneratingModule1:   {StatusMetadataReady, StatusGeneratingMetadata},
	StatusReady:               {StatusGeneratingModule1, StatusMetadataReady},
	StatusGeneratingRemaining: {StatusReady},
	StatusComplete:            {StatusGeneratingRemaining, StatusReady, StatusFailed},
	StatusFailed: {
		StatusGeneratingMetadata, StatusMetadataReady,
		StatusGeneratingModule1, StatusGeneratingRemaining,
	},
}

// CanTransitionTo reports whether moving from s to next is a valid step in the
// pipeline state machine.
func (s CourseStatus) CanTransitionTo(next CourseStatus) bool {
	for _, from := range validTransitions[next] {
		if from == s {
			return true
		}
	}
	return false
}

// ProgressPercentage maps a status to the coarse progress value exposed to
// polling clients.
func (s CourseStatus) ProgressPercentage() int {
	switch s {
	case StatusComplete:
		return 100
	case StatusGeneratingRemaining:
		return 80
	case StatusReady:
		return 75
	case StatusMetadataReady, StatusGeneratingModule1:
		return 50
	case StatusGeneratingMetadata:
		return 25
	default:
		return 0
	}
}

// User level choices.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

const (
	MinModules      = 1
	MaxModules      = 10
	MaxInterests    = 10
	MaxTopics       = 20
	DefaultLanguage = "en"
)

type Course struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID string    `gorm:"size:100;uniqueIndex" json:"course_id"`

	// Request inputs
	UserPrompt    string                      `gorm:"type:text;not null" json:"user_prompt"`
	UserLevel     string                      `gorm:"size:20;default:'beginner';index" json:"user_level"`
	UserInterests datatypes.JSONSlice[string] `json:"user_interests"`
	Language      string                      `gorm:"size:10;default:'en'" json:"language"`

	// Generated metadata
	Title             string                      `gorm:"size:500" json:"title"`
	Description       string                      `gorm:"type:text" json:"description"`
	Prerequisites     datatypes.JSONSlice[string] `json:"prerequisites"`
	TotalModules      int                         `gorm:"default:4" json:"total_modules"`
	ModuleList        datatypes.JSONSlice[string] `json:"module_list"`
	Topics            datatypes.JSONSlice[string] `json:"topics"`
	Introduction      string                      `gorm:"type:text" json:"introduction"`
	TotalSizeEstimate string                      `gorm:"size:100" json:"total_size_estimate"`

	// Podcast
	PodcastScript   string `gorm:"type:text" json:"podcast_script,omitempty"`
	PodcastAudioURL string `gorm:"size:2000" json:"podcast_audio_url"`

	// Final project, generated after all modules exist
	FinalProjectData datatypes.JSON `json:"final_project_data"`

	Status      CourseStatus `gorm:"size:30;default:'generating_metadata';index" json:"status"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`

	Modules []Module        `gorm:"constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	Logs    []GenerationLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// BeforeCreate assigns the UUID and the human-readable slug derived from it.
func (c *Course) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CourseID == "" {
		c.CourseID = fmt.Sprintf("course-%s", c.ID)
	}
	return nil
}

// Validate enforces the course-level invariants. It runs at creation time,
// before any stage is enqueued, so these errors never surface mid-pipeline.
func (c *Course) Validate() error {
	if c.UserPrompt == "" {
		return fmt.Errorf("user_prompt is required")
	}
	switch c.UserLevel {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		return fmt.Errorf("user_level must be one of beginner, intermediate, advanced")
	}
	if c.TotalModules < MinModules || c.TotalModules > MaxModules {
		return fmt.Errorf("total_modules must be between %d and %d", MinModules, MaxModules)
	}
	if len(c.UserInterests) > MaxInterests {
		return fmt.Errorf("at most %d interests allowed", MaxInterests)
	}
	if len(c.Topics) > MaxTopics {
		return fmt.Errorf("at most %d topics allowed", MaxTopics)
	}
	return nil
}
