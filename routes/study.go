package routes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"studyvault-backend/internal/config"
	"studyvault-backend/internal/engine"
	"studyvault-backend/internal/logger"
	"studyvault-backend/internal/queue"
	"studyvault-backend/internal/session"
	"studyvault-backend/internal/telemetry"
	"studyvault-backend/middleware"
	"studyvault-backend/models"
	"studyvault-backend/services"
	"studyvault-backend/utils"
)

const minDocumentChars = 100

// HandleUpload ingests a study file. Small files are processed inline and
// the full result returned; large ones are queued and the client polls the
// document record.
func HandleUpload(cfg *config.Config, sessions *session.Manager, store *services.DocumentStore,
	extractor *services.TextExtractor, pipeline *services.StudyPipeline, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.GetSessionID(c)

		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
			return
		}

		text, err := extractor.Extract(header.Filename, content)
		if err != nil {
			utils.RespondWithBadRequest(c, "Could not extract text from file", gin.H{"reason": err.Error()})
			return
		}
		if len(text) < minDocumentChars {
			utils.RespondWithUnprocessable(c, "Document too short to study", gin.H{
				"min_chars": minDocumentChars,
				"got_chars": len(text),
			})
			return
		}

		ingest(c, cfg, sessions, store, pipeline, queueClient, &models.Document{
			SessionID: sessionID,
			Filename:  header.Filename,
			Source:    "upload",
		}, text)
	}
}

type ingestURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// HandleIngestURL starts a study session from an article URL.
func HandleIngestURL(cfg *config.Config, sessions *session.Manager, store *services.DocumentStore,
	fetcher *services.WebPageFetcher, pipeline *services.StudyPipeline, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.GetSessionID(c)

		var req ingestURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "url is required", nil)
			return
		}

		text, err := fetcher.FetchArticle(c.Request.Context(), req.URL)
		if err != nil {
			utils.RespondWithBadRequest(c, "Could not fetch readable content from URL", gin.H{"reason": err.Error()})
			return
		}
		if len(text) < minDocumentChars {
			utils.RespondWithUnprocessable(c, "Page has too little readable text to study", gin.H{
				"min_chars": minDocumentChars,
				"got_chars": len(text),
			})
			return
		}

		ingest(c, cfg, sessions, store, pipeline, queueClient, &models.Document{
			SessionID: sessionID,
			Filename:  req.URL,
			Source:    "url",
		}, text)
	}
}

// ingest persists the document and either processes it inline or enqueues it,
// depending on size.
func ingest(c *gin.Context, cfg *config.Config, sessions *session.Manager, store *services.DocumentStore,
	pipeline *services.StudyPipeline, queueClient *asynq.Client, doc *models.Document, text string) {
	doc.Status = models.StatusPending

	docID, err := store.Create(c.Request.Context(), doc, text)
	if err != nil {
		logger.Error("Failed to persist document", "error", err)
		utils.RespondWithInternalError(c, "Failed to save document", nil)
		return
	}

	if int64(len(text)) > cfg.SyncProcessingLimit {
		task, err := queue.NewDocumentProcessTask(doc.SessionID, docID)
		if err == nil {
			_, err = queueClient.Enqueue(task)
		}
		if err != nil {
			logger.Error("Failed to enqueue document processing", "document_id", docID, "error", err)
			utils.RespondWithInternalError(c, "Failed to schedule processing", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"document_id": docID,
			"status":      models.StatusPending,
			"message":     "Document accepted. Poll /api/documents/" + docID + " for results.",
		})
		return
	}

	store.UpdateStatus(c.Request.Context(), docID, models.StatusProcessing, "")

	eng := sessions.Engine(doc.SessionID)
	if err := pipeline.Process(c.Request.Context(), eng, doc, text); err != nil {
		store.UpdateStatus(c.Request.Context(), docID, models.StatusFailed, err.Error())
		if errors.Is(err, engine.ErrEmptyInput) {
			utils.RespondWithUnprocessable(c, "Document too short to index", nil)
			return
		}
		logger.Error("Inline processing failed", "document_id", docID, "error", err)
		utils.RespondWithServiceUnavailable(c, "Document could not be processed right now")
		return
	}

	if err := store.SaveResults(c.Request.Context(), docID, doc); err != nil {
		logger.Error("Failed to save processing results", "document_id", docID, "error", err)
	}

	c.JSON(http.StatusOK, models.StudyResult{
		DocumentID: docID,
		Message:    "Document processed",
		Summary:    doc.Summary,
		Quiz:       doc.Quiz,
		Videos:     doc.Videos,
		RawText:    text,
	})
}

type chatRequest struct {
	Question string `json:"question" binding:"required"`
}

// HandleChat answers a question against the session's indexed document.
func HandleChat(sessions *session.Manager, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "question is required", nil)
			return
		}

		eng := sessions.Engine(middleware.GetSessionID(c))

		answer, err := eng.Ask(c.Request.Context(), req.Question)
		if err != nil {
			if metrics != nil {
				metrics.RecordQuestionAsked(false)
			}
			if errors.Is(err, engine.ErrIndexNotReady) {
				utils.RespondWithConflict(c, "Upload a document before asking questions.")
				return
			}
			logger.Error("Chat failed", "error", err)
			utils.RespondWithServiceUnavailable(c, "The study assistant is unavailable right now. Please try again.")
			return
		}

		if metrics != nil {
			metrics.RecordQuestionAsked(true)
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
	}
}

type quizMoreRequest struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// HandleQuizMore generates an additional quiz, either over posted text or
// over a previously ingested document.
func HandleQuizMore(sessions *session.Manager, store *services.DocumentStore, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.GetSessionID(c)

		var req quizMoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid request body", nil)
			return
		}

		text := req.Text
		if text == "" && req.DocumentID != "" {
			stored, err := store.Text(c.Request.Context(), sessionID, req.DocumentID)
			if err != nil {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			text = stored
		}
		if strings.TrimSpace(text) == "" {
			utils.RespondWithBadRequest(c, "text or document_id is required", nil)
			return
		}

		count := req.Count
		if count == 0 {
			count = 5
		}

		eng := sessions.Engine(sessionID)
		quiz := eng.GenerateQuiz(c.Request.Context(), text, req.Difficulty, count)
		if metrics != nil {
			metrics.RecordQuizGenerated(req.Difficulty, len(quiz))
		}

		c.JSON(http.StatusOK, gin.H{"quiz": quiz})
	}
}

// HandleListDocuments returns the session's recent uploads, newest first.
func HandleListDocuments(store *services.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := store.ListRecent(c.Request.Context(), middleware.GetSessionID(c), 10)
		if err != nil {
			logger.Error("Failed to list documents", "error", err)
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": docs})
	}
}

// HandleGetDocument returns one document record including processing status.
func HandleGetDocument(store *services.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := store.Get(c.Request.Context(), middleware.GetSessionID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			utils.RespondWithBadRequest(c, "Invalid document id", nil)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// HandleExportQuiz downloads a document's quiz as a spreadsheet.
func HandleExportQuiz(store *services.DocumentStore, exporter *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := store.Get(c.Request.Context(), middleware.GetSessionID(c), c.Param("id"))
		if err != nil {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		if len(doc.Quiz) == 0 {
			utils.RespondWithNotFound(c, "Document has no quiz to export")
			return
		}

		if err := exporter.StreamQuiz(c, "quiz_"+doc.ID.Hex(), doc.Quiz); err != nil {
			logger.Error("Quiz export failed", "document_id", doc.ID.Hex(), "error", err)
			utils.RespondWithInternalError(c, "Failed to generate export", nil)
		}
	}
}
