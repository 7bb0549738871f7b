package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GenerationLog actions.
const (
	ActionMetadataGeneration = "metadata_generation"
	ActionModuleGeneration   = "module_generation"
	ActionAudioGeneration    = "audio_generation"
	ActionVideoSearch        = "video_search"
	ActionCompletion         = "completion"
	ActionError              = "error"
)

// GenerationLog is an append-only audit trail of pipeline activity for a
// course. It feeds progress observability and debugging, never control flow.
type GenerationLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`

	Action          string         `gorm:"size:30;not null" json:"action"`
	Message         string         `gorm:"type:text" json:"message"`
	Details         datatypes.JSON `json:"details,omitempty"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (GenerationLog) TableName() string {
	return "generation_logs"
}

func (l *GenerationLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
