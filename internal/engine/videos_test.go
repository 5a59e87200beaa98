package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractTopics(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Photosynthesis, Cell Respiration, Osmosis, Mitosis"}}
	e := newTestEngine(gen, nil)

	topics := e.ExtractTopics(context.Background(), "biology notes")

	want := []string{"Photosynthesis", "Cell Respiration", "Osmosis", "Mitosis"}
	if len(topics) != 4 {
		t.Fatalf("expected 4 topics, got %d: %v", len(topics), topics)
	}
	for i, topic := range topics {
		if topic != want[i] {
			t.Errorf("topic %d = %q, want %q", i, topic, want[i])
		}
	}
}

func TestExtractTopicsCapsAtFour(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"a, b, c, d, e, f"}}
	e := newTestEngine(gen, nil)

	if topics := e.ExtractTopics(context.Background(), "text"); len(topics) != 4 {
		t.Fatalf("expected at most 4 topics, got %d", len(topics))
	}
}

func TestExtractTopicsFallback(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"generation failure": {errs: []error{errors.New("down")}},
		"empty output":       {responses: []string{" , , "}},
	} {
		e := newTestEngine(gen, nil)
		topics := e.ExtractTopics(context.Background(), "text")
		if len(topics) != 1 || topics[0] != fallbackTopic {
			t.Errorf("%s: expected single fallback topic, got %v", name, topics)
		}
	}
}

func TestVideoRecommendationsShortCircuit(t *testing.T) {
	// 4 topics, 2 videos each would be 8; cap at 7.
	gen := &fakeGenerator{responses: []string{"t1, t2, t3, t4"}}
	searcher := &fakeSearcher{}
	e := newTestEngine(gen, searcher)

	recs := e.GetVideoRecommendations(context.Background(), "text")

	if len(recs) != 7 {
		t.Fatalf("expected 7 recommendations, got %d", len(recs))
	}
	if recs[6].Topic != "t4" {
		t.Errorf("last recommendation topic = %q", recs[6].Topic)
	}
	for _, r := range recs {
		if !strings.HasPrefix(r.VideoURL, "https://www.youtube.com/watch?v=") {
			t.Errorf("unexpected video url: %q", r.VideoURL)
		}
	}
}

func TestVideoRecommendationsSkipsFailedTopic(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"good, bad, fine, ok"}}
	searcher := &fakeSearcher{failFor: map[string]bool{"bad tutorial": true}}
	e := newTestEngine(gen, searcher)

	recs := e.GetVideoRecommendations(context.Background(), "text")

	// 3 surviving topics at 2 videos each.
	if len(recs) != 6 {
		t.Fatalf("expected 6 recommendations, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Topic == "bad" {
			t.Error("failed topic must be skipped entirely")
		}
	}
}

func TestVideoRecommendationsQueriesWithTutorialSuffix(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"algebra"}}
	searcher := &fakeSearcher{}
	e := newTestEngine(gen, searcher)

	e.GetVideoRecommendations(context.Background(), "text")

	if len(searcher.queries) != 1 || searcher.queries[0] != "algebra tutorial" {
		t.Errorf("queries = %v", searcher.queries)
	}
}
