package ai

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"studyvault-backend/internal/engine"
)

// YouTubeSearcher implements engine.VideoSearcher over the YouTube Data API.
type YouTubeSearcher struct {
	service *youtube.Service
}

func NewYouTubeSearcher(ctx context.Context, apiKey string) (*YouTubeSearcher, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service init: %w", err)
	}
	return &YouTubeSearcher{service: service}, nil
}

func (ys *YouTubeSearcher) SearchVideos(ctx context.Context, query string, maxResults int) ([]engine.VideoResult, error) {
	call := ys.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		SafeSearch("strict").
		MaxResults(int64(maxResults)).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return nil, &engine.GenerationError{Op: "video search", Cause: err}
	}

	results := make([]engine.VideoResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		thumbnail := ""
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Medium != nil {
			thumbnail = item.Snippet.Thumbnails.Medium.Url
		}
		results = append(results, engine.VideoResult{
			VideoID:   item.Id.VideoId,
			Title:     item.Snippet.Title,
			Thumbnail: thumbnail,
		})
	}
	return results, nil
}
