package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studyvault-backend/internal/engine"
)

// Document processing states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document is one ingested study source (file upload or URL) together with
// everything generated from it. RawText is stored compressed so quiz-more
// and exports can re-read the source server-side.
type Document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID    string             `bson:"session_id" json:"-"`
	Filename     string             `bson:"filename" json:"filename"`
	Source       string             `bson:"source" json:"source"` // "upload" or "url"
	CollectionID string             `bson:"collection_id,omitempty" json:"collection_id,omitempty"`
	Status       string             `bson:"status" json:"status"`
	UploadDate   time.Time          `bson:"upload_date" json:"upload_date"`

	Summary string                       `bson:"summary,omitempty" json:"summary,omitempty"`
	Quiz    []engine.QuizItem            `bson:"quiz,omitempty" json:"quiz,omitempty"`
	Videos  []engine.VideoRecommendation `bson:"videos,omitempty" json:"videos,omitempty"`

	ChunkCount int    `bson:"chunk_count,omitempty" json:"chunk_count,omitempty"`
	FailReason string `bson:"fail_reason,omitempty" json:"fail_reason,omitempty"`

	RawText     []byte `bson:"raw_text,omitempty" json:"-"`
	Compression string `bson:"compression,omitempty" json:"-"`
}

// StudyResult is the payload sent back after synchronous ingestion.
type StudyResult struct {
	DocumentID string                       `json:"document_id"`
	Message    string                       `json:"message"`
	Summary    string                       `json:"summary"`
	Quiz       []engine.QuizItem            `json:"quiz"`
	Videos     []engine.VideoRecommendation `json:"videos"`
	RawText    string                       `json:"raw_text"`
}
