package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"studyvault-backend/internal/ai"
	"studyvault-backend/internal/config"
	"studyvault-backend/internal/engine"
	"studyvault-backend/internal/logger"
	"studyvault-backend/internal/queue"
	"studyvault-backend/internal/session"
	"studyvault-backend/internal/telemetry"
	"studyvault-backend/middleware"
	"studyvault-backend/routes"
	"studyvault-backend/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing (best effort, the service runs without a collector)
	shutdownTracer, err := telemetry.InitTracer("studyvault-backend")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis (rate limiting + task queue)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Gemini client serves generation and embeddings for every session
	geminiClient, err := ai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiTier, metrics)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	var searcher engine.VideoSearcher
	if cfg.YouTubeAPIKey != "" {
		yt, err := ai.NewYouTubeSearcher(context.Background(), cfg.YouTubeAPIKey)
		if err != nil {
			log.Fatal("Failed to initialize YouTube client:", err)
		}
		searcher = yt
	} else {
		logger.Warn("YOUTUBE_API_KEY not set, video recommendations disabled")
		searcher = noVideoSearcher{}
	}

	engineOpts := engine.Options{
		ChunkSize:       cfg.ChunkSize,
		MinChunkChars:   cfg.MinChunkChars,
		RetrievalTopK:   cfg.RetrievalTopK,
		ChatHistorySize: cfg.ChatHistorySize,
		QuizMaxCount:    cfg.QuizMaxCount,
		SummaryMaxChars: cfg.SummaryMaxChars,
		QuizMaxChars:    cfg.QuizMaxChars,
		TopicMaxChars:   cfg.TopicMaxChars,
		MaxVideoResults: cfg.MaxVideoResults,
		VideosPerTopic:  cfg.VideosPerTopic,
		GenerateTimeout: cfg.GenerateTimeout,
		EmbedTimeout:    cfg.EmbedTimeout,
		SearchTimeout:   cfg.SearchTimeout,
	}

	sessions := session.NewManager(func() *engine.StudyEngine {
		return engine.NewStudyEngine(geminiClient, geminiClient, searcher, engineOpts)
	}, cfg.SessionTTL)
	if err := sessions.Start(); err != nil {
		log.Fatal("Failed to start session manager:", err)
	}
	defer sessions.Stop()

	// Services
	store := services.NewDocumentStore(mongoClient, cfg.DBName)
	extractor := services.NewTextExtractor()
	fetcher := services.NewWebPageFetcher()
	pipeline := services.NewStudyPipeline(metrics)
	exporter := services.NewExportService()

	// Asynq client + embedded worker. The worker must share this process:
	// the memory index it builds lives in the session manager here.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Task failed", "type", task.Type(), "error", err)
		}),
	})
	processor := queue.NewTaskProcessor(sessions, store, pipeline)
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskProcessDocument, processor.ProcessDocument)

	go func() {
		if err := worker.Run(mux); err != nil {
			log.Fatalf("Failed to start task worker: %v", err)
		}
	}()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("studyvault-backend"))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware(metrics))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With", middleware.SessionIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.SessionIDHeader}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// API surface
	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg))
	api.Use(middleware.SessionMiddleware(sessions))
	{
		api.POST("/upload", routes.HandleUpload(cfg, sessions, store, extractor, pipeline, queueClient))
		api.POST("/ingest-url", routes.HandleIngestURL(cfg, sessions, store, fetcher, pipeline, queueClient))
		api.POST("/chat", routes.HandleChat(sessions, metrics))
		api.POST("/quiz-more", routes.HandleQuizMore(sessions, store, metrics))
		api.GET("/documents", routes.HandleListDocuments(store))
		api.GET("/documents/:id", routes.HandleGetDocument(store))
		api.GET("/documents/:id/quiz.xlsx", routes.HandleExportQuiz(store, exporter))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	worker.Shutdown()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

// noVideoSearcher keeps the pipeline functional without a YouTube key.
type noVideoSearcher struct{}

func (noVideoSearcher) SearchVideos(ctx context.Context, query string, maxResults int) ([]engine.VideoResult, error) {
	return []engine.VideoResult{}, nil
}
