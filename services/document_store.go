package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studyvault-backend/models"
	"studyvault-backend/utils"
)

// DocumentStore persists ingested documents and their generated artifacts.
type DocumentStore struct {
	collection *mongo.Collection
}

func NewDocumentStore(client *mongo.Client, dbName string) *DocumentStore {
	return &DocumentStore{
		collection: client.Database(dbName).Collection("documents"),
	}
}

// Create inserts a new document record with compressed source text and
// returns its id.
func (s *DocumentStore) Create(ctx context.Context, doc *models.Document, rawText string) (string, error) {
	compressed, algorithm, err := utils.CompressText(rawText)
	if err != nil {
		return "", fmt.Errorf("failed to compress document text: %w", err)
	}

	doc.ID = primitive.NewObjectID()
	doc.RawText = compressed
	doc.Compression = string(algorithm)
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now()
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	return doc.ID.Hex(), nil
}

// UpdateStatus moves a document through the processing lifecycle.
func (s *DocumentStore) UpdateStatus(ctx context.Context, id, status, failReason string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	update := bson.M{"status": status}
	if failReason != "" {
		update["fail_reason"] = failReason
	}

	_, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": update},
	)
	return err
}

// SaveResults attaches the generated artifacts to a completed document.
func (s *DocumentStore) SaveResults(ctx context.Context, id string, doc *models.Document) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	_, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"status":        models.StatusCompleted,
			"collection_id": doc.CollectionID,
			"chunk_count":   doc.ChunkCount,
			"summary":       doc.Summary,
			"quiz":          doc.Quiz,
			"videos":        doc.Videos,
		}},
	)
	return err
}

// Get fetches one document owned by the session.
func (s *DocumentStore) Get(ctx context.Context, sessionID, id string) (*models.Document, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id: %w", err)
	}

	var doc models.Document
	err = s.collection.FindOne(ctx, bson.M{"_id": oid, "session_id": sessionID}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListRecent returns the session's latest documents, newest first.
func (s *DocumentStore) ListRecent(ctx context.Context, sessionID string, limit int) ([]models.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "upload_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"raw_text": 0})

	cursor, err := s.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []models.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Text decompresses and returns the stored source text of a document.
func (s *DocumentStore) Text(ctx context.Context, sessionID, id string) (string, error) {
	doc, err := s.Get(ctx, sessionID, id)
	if err != nil {
		return "", err
	}
	return utils.DecompressText(doc.RawText, utils.CompressionAlgorithm(doc.Compression))
}
