package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is a YouTube video attached to a chunk. CourseID is denormalized so
// the unique index can enforce that no video repeats anywhere in a course.
type Video struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChunkID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"chunk_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_course_video" json:"course_id"`

	VideoID      string `gorm:"size:50;not null;uniqueIndex:idx_course_video" json:"video_id"`
	Title        string `gorm:"size:300" json:"title"`
	URL          string `gorm:"size:2000" json:"url"`
	EmbedURL     string `gorm:"size:2000" json:"embed_url"`
	ThumbnailURL string `gorm:"size:2000" json:"thumbnail_url"`
	Duration     string `gorm:"size:20" json:"duration"`
	ViewCount    uint64 `gorm:"default:0" json:"view_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Video) TableName() string {
	return "videos"
}

func (v *Video) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
