package engine

import (
	"context"
	"errors"
	"hash/fnv"
)

// fakeEmbedder produces deterministic vectors derived from the text so that
// identical texts always land on the same point.
type fakeEmbedder struct {
	failNext bool
	calls    int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failNext {
		f.failNext = false
		return nil, errors.New("embedding backend down")
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedDeterministic(text)
	}
	return vectors, nil
}

func embedDeterministic(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	vec := make([]float32, 8)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return vec
}

// fakeGenerator replays scripted responses in order. A response holding a
// non-nil err entry fails that call.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	idx := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", &GenerationError{Op: "generate", Cause: f.errs[idx]}
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", &GenerationError{Op: "generate", Cause: errors.New("no scripted response")}
}

// fakeSearcher returns maxResults synthetic hits per query, or fails for
// queries listed in failFor.
type fakeSearcher struct {
	failFor map[string]bool
	queries []string
}

func (f *fakeSearcher) SearchVideos(ctx context.Context, query string, maxResults int) ([]VideoResult, error) {
	f.queries = append(f.queries, query)
	if f.failFor[query] {
		return nil, errors.New("search quota exceeded")
	}
	results := make([]VideoResult, maxResults)
	for i := range results {
		results[i] = VideoResult{
			VideoID:   "vid",
			Title:     query,
			Thumbnail: "https://img.example/thumb.jpg",
		}
	}
	return results, nil
}
