package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"studyvault-backend/internal/logger"
	"studyvault-backend/internal/session"
	"studyvault-backend/models"
	"studyvault-backend/services"
)

const TaskProcessDocument = "document:process"

type DocumentProcessPayload struct {
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
}

// NewDocumentProcessTask enqueues processing of a stored document. The raw
// text lives in the document record, so the payload carries ids only.
func NewDocumentProcessTask(sessionID, documentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentProcessPayload{
		SessionID:  sessionID,
		DocumentID: documentID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor handles queued document processing. It runs embedded in the
// API process because the memory index it builds is session state held there.
type TaskProcessor struct {
	sessions *session.Manager
	store    *services.DocumentStore
	pipeline *services.StudyPipeline
}

func NewTaskProcessor(sessions *session.Manager, store *services.DocumentStore, pipeline *services.StudyPipeline) *TaskProcessor {
	return &TaskProcessor{
		sessions: sessions,
		store:    store,
		pipeline: pipeline,
	}
}

func (p *TaskProcessor) ProcessDocument(ctx context.Context, t *asynq.Task) error {
	var payload DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Processing document", "session_id", payload.SessionID, "document_id", payload.DocumentID)

	text, err := p.store.Text(ctx, payload.SessionID, payload.DocumentID)
	if err != nil {
		p.store.UpdateStatus(ctx, payload.DocumentID, models.StatusFailed, "stored text unavailable")
		return fmt.Errorf("load document text: %w", err)
	}

	if err := p.store.UpdateStatus(ctx, payload.DocumentID, models.StatusProcessing, ""); err != nil {
		return err
	}

	doc, err := p.store.Get(ctx, payload.SessionID, payload.DocumentID)
	if err != nil {
		return err
	}

	eng := p.sessions.Engine(payload.SessionID)
	if err := p.pipeline.Process(ctx, eng, doc, text); err != nil {
		p.store.UpdateStatus(ctx, payload.DocumentID, models.StatusFailed, err.Error())
		return err
	}

	if err := p.store.SaveResults(ctx, payload.DocumentID, doc); err != nil {
		return err
	}

	logger.Info("Document processed successfully", "document_id", payload.DocumentID)
	return nil
}
