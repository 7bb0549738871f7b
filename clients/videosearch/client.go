// Package videosearch defines the educational-video search capability and its
// YouTube Data API implementation.
package videosearch

import "context"

// Result is one ranked video candidate.
type Result struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	EmbedURL     string `json:"embed_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     string `json:"duration"`
	ViewCount    uint64 `json:"view_count"`
	ChannelTitle string `json:"channel_title"`
}

// Client searches an external video catalog for educational material.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
