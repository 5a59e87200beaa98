package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testChunks(texts ...string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{Order: i, Text: t}
	}
	return chunks
}

func TestIndexQueryBeforeBuild(t *testing.T) {
	ix := NewVectorIndex(&fakeEmbedder{})

	_, err := ix.Query(context.Background(), "anything", 3)
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestIndexRebuildAndQuery(t *testing.T) {
	ix := NewVectorIndex(&fakeEmbedder{})
	chunks := testChunks("photosynthesis basics", "cell division", "newtonian mechanics")

	if err := ix.Rebuild(context.Background(), "col-1", chunks); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if !ix.Ready() {
		t.Fatal("index should be ready after rebuild")
	}
	if ix.CollectionID() != "col-1" {
		t.Errorf("collection id = %q", ix.CollectionID())
	}

	// An exact chunk text embeds to the identical vector, so it must rank first.
	results, err := ix.Query(context.Background(), "cell division", 1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 1 || results[0] != "cell division" {
		t.Errorf("expected exact match first, got %v", results)
	}
}

func TestIndexQueryTopKClamped(t *testing.T) {
	ix := NewVectorIndex(&fakeEmbedder{})
	if err := ix.Rebuild(context.Background(), "col-1", testChunks("alpha", "beta")); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	results, err := ix.Query(context.Background(), "alpha", 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected topK clamped to 2, got %d", len(results))
	}
}

func TestIndexFailedRebuildKeepsOldCollection(t *testing.T) {
	emb := &fakeEmbedder{}
	ix := NewVectorIndex(emb)

	if err := ix.Rebuild(context.Background(), "col-1", testChunks("original content")); err != nil {
		t.Fatalf("first rebuild failed: %v", err)
	}

	emb.failNext = true
	err := ix.Rebuild(context.Background(), "col-2", testChunks("replacement content"))
	if err == nil {
		t.Fatal("expected rebuild to fail")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T", err)
	}

	// Old collection still queryable.
	if ix.CollectionID() != "col-1" {
		t.Errorf("collection id changed after failed rebuild: %q", ix.CollectionID())
	}
	results, err := ix.Query(context.Background(), "original content", 1)
	if err != nil {
		t.Fatalf("query after failed rebuild: %v", err)
	}
	if results[0] != "original content" {
		t.Errorf("old data lost: %v", results)
	}
}

func TestIndexRebuildReplacesCollection(t *testing.T) {
	ix := NewVectorIndex(&fakeEmbedder{})

	if err := ix.Rebuild(context.Background(), "col-1", testChunks("old material")); err != nil {
		t.Fatal(err)
	}
	if err := ix.Rebuild(context.Background(), "col-2", testChunks("new material")); err != nil {
		t.Fatal(err)
	}

	results, err := ix.Query(context.Background(), "whatever", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if strings.Contains(r, "old material") {
			t.Error("stale chunk leaked from replaced collection")
		}
	}
	if len(results) != 1 {
		t.Errorf("expected only the new collection's chunk, got %d", len(results))
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0}
	c := []float32{0, 1}

	if got := cosineSimilarity(a, b); got < 0.999 {
		t.Errorf("identical vectors: %f", got)
	}
	if got := cosineSimilarity(a, c); got > 0.001 {
		t.Errorf("orthogonal vectors: %f", got)
	}
	if got := cosineSimilarity(a, []float32{0, 0}); got != 0 {
		t.Errorf("zero vector should score 0, got %f", got)
	}
}
