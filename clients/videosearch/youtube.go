package videosearch

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeClient implements Client on the YouTube Data API v3.
type YouTubeClient struct {
	service *youtube.Service
}

// NewYouTubeClient builds a client with an API key.
func NewYouTubeClient(ctx context.Context, apiKey string) (*YouTubeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube Data API key not configured")
	}
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init YouTube service: %w", err)
	}
	return &YouTubeClient{service: service}, nil
}

// Search returns up to maxResults embeddable, medium-length videos for the
// query, enriched with duration and view count.
func (c *YouTubeClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	// Bias the query toward tutorial-style content.
	enhancedQuery := query + " tutorial"

	searchResp, err := c.service.Search.List([]string{"id", "snippet"}).
		Context(ctx).
		Q(enhancedQuery).
		MaxResults(int64(maxResults)).
		Order("relevance").
		Type("video").
		VideoDuration("medium").
		VideoEmbeddable("true").
		Do()
	if err != nil {
		return nil, fmt.Errorf("YouTube search error: %w", err)
	}

	var results []Result
	var ids []string
	for _, item := range searchResp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videoID := item.Id.VideoId
		results = append(results, Result{
			VideoID:      videoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			URL:          "https://www.youtube.com/watch?v=" + videoID,
			EmbedURL:     "https://www.youtube.com/embed/" + videoID,
			ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
			ChannelTitle: item.Snippet.ChannelTitle,
			Duration:     "N/A",
		})
		ids = append(ids, videoID)
	}

	if len(ids) > 0 {
		// Best effort only: candidates without details keep their defaults.
		if err := c.enrichDetails(ctx, results, ids); err != nil {
			log.Printf("Error fetching video details for %v: %v", ids, err)
		}
	}
	return results, nil
}

// enrichDetails fills duration and view count from a videos.list call.
func (c *YouTubeClient) enrichDetails(ctx context.Context, results []Result, ids []string) error {
	detailResp, err := c.service.Videos.List([]string{"contentDetails", "statistics"}).
		Context(ctx).
		Id(strings.Join(ids, ",")).
		Do()
	if err != nil {
		return err
	}

	byID := make(map[string]*youtube.Video, len(detailResp.Items))
	for _, v := range detailResp.Items {
		byID[v.Id] = v
	}
	for i := range results {
		v, ok := byID[results[i].VideoID]
		if !ok {
			continue
		}
		if v.ContentDetails != nil {
			results[i].Duration = formatISODuration(v.ContentDetails.Duration)
		}
		if v.Statistics != nil {
			results[i].ViewCount = v.Statistics.ViewCount
		}
	}
	return nil
}

// bestThumbnail picks the highest-quality thumbnail available.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// formatISODuration converts an ISO 8601 duration like PT4M13S to "4:13".
func formatISODuration(iso string) string {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil {
		return "N/A"
	}
	hours := atoiDefault(m[1])
	minutes := atoiDefault(m[2])
	seconds := atoiDefault(m[3])
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
