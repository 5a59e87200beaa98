package engine

import (
	"context"
	"strings"

	"studyvault-backend/internal/logger"
)

// VideoRecommendation links one search hit back to the topic that produced it.
type VideoRecommendation struct {
	Topic     string `json:"topic" bson:"topic"`
	Title     string `json:"title" bson:"title"`
	VideoURL  string `json:"video_url" bson:"video_url"`
	Thumbnail string `json:"thumbnail_url" bson:"thumbnail_url"`
}

const fallbackTopic = "effective study techniques"

// ExtractTopics asks the model for four comma-separated sub-topics of text.
// Unusable output degrades to a single generic topic so the video stage
// always has something to search for.
func (e *StudyEngine) ExtractTopics(ctx context.Context, text string) []string {
	prompt := buildTopicsPrompt(truncateText(text, e.opts.TopicMaxChars))

	ctx, cancel := context.WithTimeout(ctx, e.opts.GenerateTimeout)
	defer cancel()
	out, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		logger.Warn("Topic extraction failed, using fallback topic", "error", err)
		return []string{fallbackTopic}
	}

	topics := parseTopics(out)
	if len(topics) == 0 {
		logger.Warn("Topic extraction returned nothing usable, using fallback topic")
		return []string{fallbackTopic}
	}
	return topics
}

// GetVideoRecommendations searches videos for each extracted topic. Topics
// whose search fails are skipped; collection stops once MaxVideoResults
// recommendations are gathered.
func (e *StudyEngine) GetVideoRecommendations(ctx context.Context, text string) []VideoRecommendation {
	topics := e.ExtractTopics(ctx, text)

	recs := []VideoRecommendation{}
	for _, topic := range topics {
		if len(recs) >= e.opts.MaxVideoResults {
			break
		}

		sctx, cancel := context.WithTimeout(ctx, e.opts.SearchTimeout)
		results, err := e.searcher.SearchVideos(sctx, topic+" tutorial", e.opts.VideosPerTopic)
		cancel()
		if err != nil {
			logger.Warn("Video search failed for topic", "topic", topic, "error", err)
			continue
		}

		for _, r := range results {
			if len(recs) >= e.opts.MaxVideoResults {
				break
			}
			recs = append(recs, VideoRecommendation{
				Topic:     topic,
				Title:     r.Title,
				VideoURL:  "https://www.youtube.com/watch?v=" + r.VideoID,
				Thumbnail: r.Thumbnail,
			})
		}
	}
	return recs
}

func buildTopicsPrompt(text string) string {
	var b strings.Builder
	b.WriteString("List exactly 4 distinct sub-topics a student should explore to understand the material below.\n")
	b.WriteString("Respond with only the topic names separated by commas, no numbering and no extra text.\n\n")
	b.WriteString("Material:\n")
	b.WriteString(text)
	return b.String()
}

func parseTopics(raw string) []string {
	topics := []string{}
	for _, part := range strings.Split(raw, ",") {
		topic := strings.TrimSpace(part)
		topic = strings.Trim(topic, ".\"'")
		if topic == "" {
			continue
		}
		topics = append(topics, topic)
		if len(topics) == 4 {
			break
		}
	}
	return topics
}
