package services

import (
	"context"
	"sync"
	"time"

	"studyvault-backend/internal/engine"
	"studyvault-backend/internal/logger"
	"studyvault-backend/internal/telemetry"
	"studyvault-backend/models"
)

// StudyPipeline runs the full ingestion flow for one document: build the
// session's memory index, then generate summary, quiz and video
// recommendations concurrently over the same immutable text.
type StudyPipeline struct {
	metrics *telemetry.Metrics
}

func NewStudyPipeline(metrics *telemetry.Metrics) *StudyPipeline {
	return &StudyPipeline{metrics: metrics}
}

// Process indexes text into eng and fills doc with the generated artifacts.
// Index failures abort the pipeline; generator failures degrade per their
// own fail-soft rules.
func (p *StudyPipeline) Process(ctx context.Context, eng *engine.StudyEngine, doc *models.Document, text string) error {
	start := time.Now()

	collectionID, chunks, err := eng.BuildMemoryIndex(ctx, text)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordDocumentProcessing(time.Since(start).Seconds(), doc.Source, models.StatusFailed)
		}
		return err
	}
	doc.CollectionID = collectionID
	doc.ChunkCount = chunks

	// The three generators only read text, so they can run in parallel.
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		doc.Summary = eng.GenerateSummary(ctx, text)
	}()
	go func() {
		defer wg.Done()
		doc.Quiz = eng.GenerateQuiz(ctx, text, "Medium", 10)
		if p.metrics != nil {
			p.metrics.RecordQuizGenerated("Medium", len(doc.Quiz))
		}
	}()
	go func() {
		defer wg.Done()
		doc.Videos = eng.GetVideoRecommendations(ctx, text)
	}()

	wg.Wait()

	if p.metrics != nil {
		p.metrics.RecordDocumentProcessing(time.Since(start).Seconds(), doc.Source, models.StatusCompleted)
	}
	logger.Info("Document processed",
		"filename", doc.Filename,
		"chunks", chunks,
		"quiz_items", len(doc.Quiz),
		"videos", len(doc.Videos),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
