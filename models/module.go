package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Module struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_course_module_order" json:"course_id"`

	ModuleID    string `gorm:"size:50" json:"module_id"`
	ModuleOrder int    `gorm:"not null;uniqueIndex:idx_course_module_order" json:"module_order"`

	Title             string                      `gorm:"size:300" json:"title"`
	Description       string                      `gorm:"type:text" json:"description"`
	Objective         string                      `gorm:"type:text" json:"objective"`
	Concepts          datatypes.JSONSlice[string] `json:"concepts"`
	Summary           string                      `gorm:"type:text" json:"summary"`
	PracticalExercise datatypes.JSON              `json:"practical_exercise"`
	Resources         datatypes.JSON              `json:"resources"`

	// First video attached to any of this module's chunks, denormalized for
	// course overviews.
	VideoData datatypes.JSON `json:"video_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Chunks  []Chunk `gorm:"constraint:OnDelete:CASCADE" json:"chunks,omitempty"`
	Quizzes []Quiz  `gorm:"constraint:OnDelete:CASCADE" json:"quizzes,omitempty"`
}

func (Module) TableName() string {
	return "modules"
}

func (m *Module) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
