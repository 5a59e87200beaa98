package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"studyvault-backend/internal/engine"
	"studyvault-backend/models"
)

// pipelineGenerator answers by prompt kind. The pipeline calls it from three
// goroutines at once, so access is locked.
type pipelineGenerator struct {
	mu      sync.Mutex
	prompts []string
}

func (g *pipelineGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	switch {
	case strings.Contains(prompt, "multiple-choice"):
		return `[{"question": "Q1?", "options": ["a", "b", "c", "d"], "answer": "a", "explanation": "because"}]`, nil
	case strings.Contains(prompt, "sub-topics"):
		return "algebra, geometry", nil
	default:
		return "## Overview\nA summary.", nil
	}
}

func (g *pipelineGenerator) quizPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.prompts {
		if strings.Contains(p, "multiple-choice") {
			return p
		}
	}
	return ""
}

type pipelineEmbedder struct{}

func (pipelineEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

type pipelineSearcher struct{}

func (pipelineSearcher) SearchVideos(ctx context.Context, query string, maxResults int) ([]engine.VideoResult, error) {
	return []engine.VideoResult{{VideoID: "vid", Title: query, Thumbnail: ""}}, nil
}

func TestPipelineProcess(t *testing.T) {
	gen := &pipelineGenerator{}
	eng := engine.NewStudyEngine(gen, pipelineEmbedder{}, pipelineSearcher{}, engine.Options{})
	doc := &models.Document{Filename: "notes.txt", Source: "upload"}

	err := NewStudyPipeline(nil).Process(context.Background(), eng, doc, strings.Repeat("a", 550))
	if err != nil {
		t.Fatal(err)
	}

	if doc.CollectionID == "" || doc.ChunkCount != 1 {
		t.Errorf("index results not recorded: collection %q, chunks %d", doc.CollectionID, doc.ChunkCount)
	}
	if !strings.Contains(doc.Summary, "## Overview") {
		t.Errorf("summary not recorded: %q", doc.Summary)
	}
	if len(doc.Quiz) != 1 {
		t.Errorf("expected 1 quiz item, got %d", len(doc.Quiz))
	}
	if len(doc.Videos) == 0 {
		t.Error("expected video recommendations")
	}

	// Upload-time quiz requests the full per-call ceiling.
	if prompt := gen.quizPrompt(); !strings.Contains(prompt, "Create 10 Medium") {
		t.Errorf("quiz prompt did not request 10 items: %q", prompt)
	}
}

func TestPipelineProcessEmptyInput(t *testing.T) {
	gen := &pipelineGenerator{}
	eng := engine.NewStudyEngine(gen, pipelineEmbedder{}, pipelineSearcher{}, engine.Options{})
	doc := &models.Document{Filename: "notes.txt", Source: "upload"}

	err := NewStudyPipeline(nil).Process(context.Background(), eng, doc, "too short")
	if !errors.Is(err, engine.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if doc.Summary != "" || len(doc.Quiz) != 0 {
		t.Error("generators must not run when indexing fails")
	}
}
