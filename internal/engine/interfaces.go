package engine

import "context"

// TextGenerator produces raw model text for a prompt. Implementations are
// responsible for transport, retries and rate limiting; failures come back
// as *GenerationError.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder converts texts into embedding vectors, one vector per input, in
// input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VideoResult is a single hit from a video search provider.
type VideoResult struct {
	VideoID   string
	Title     string
	Thumbnail string
}

// VideoSearcher finds up to maxResults videos for a query.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, maxResults int) ([]VideoResult, error)
}
