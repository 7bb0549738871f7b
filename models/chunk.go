package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Chunk struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_module_chunk_order" json:"module_id"`

	ChunkID     string `gorm:"size:100" json:"chunk_id"`
	ChunkOrder  int    `gorm:"not null;uniqueIndex:idx_module_chunk_order" json:"chunk_order"`
	TotalChunks int    `gorm:"default:6" json:"total_chunks"`

	Title    string `gorm:"size:300" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	Checksum string `gorm:"size:32" json:"checksum,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Video *Video `gorm:"constraint:OnDelete:CASCADE" json:"video,omitempty"`
}

func (Chunk) TableName() string {
	return "chunks"
}

func (c *Chunk) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
