package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI      string
	DBName        string
	GeminiAPIKey  string
	GeminiTier    string
	YouTubeAPIKey string
	Port          string
	GinMode       string
	CORSOrigins   []string

	// Upload handling
	MaxFileSize         int64
	SyncProcessingLimit int64

	// Engine tunables
	ChunkSize       int
	MinChunkChars   int
	RetrievalTopK   int
	ChatHistorySize int
	QuizMaxCount    int
	SummaryMaxChars int
	QuizMaxChars    int
	TopicMaxChars   int
	MaxVideoResults int
	VideosPerTopic  int

	// External call deadlines
	GenerateTimeout time.Duration
	EmbedTimeout    time.Duration
	SearchTimeout   time.Duration

	// Sessions
	SessionTTL time.Duration

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/studyvault"),
		DBName:        getEnv("DB_NAME", "studyvault"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiTier:    getEnv("GEMINI_TIER", "free"),
		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB upload ceiling
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 2097152),

		ChunkSize:       getEnvInt("CHUNK_SIZE", 500),
		MinChunkChars:   getEnvInt("MIN_CHUNK_CHARS", 100),
		RetrievalTopK:   getEnvInt("RETRIEVAL_TOP_K", 3),
		ChatHistorySize: getEnvInt("CHAT_HISTORY_SIZE", 5),
		QuizMaxCount:    getEnvInt("QUIZ_MAX_COUNT", 10),
		SummaryMaxChars: getEnvInt("SUMMARY_MAX_CHARS", 80000),
		QuizMaxChars:    getEnvInt("QUIZ_MAX_CHARS", 15000),
		TopicMaxChars:   getEnvInt("TOPIC_MAX_CHARS", 5000),
		MaxVideoResults: getEnvInt("MAX_VIDEO_RESULTS", 7),
		VideosPerTopic:  getEnvInt("VIDEOS_PER_TOPIC", 2),

		GenerateTimeout: getEnvDuration("GENERATE_TIMEOUT", 60*time.Second),
		EmbedTimeout:    getEnvDuration("EMBED_TIMEOUT", 30*time.Second),
		SearchTimeout:   getEnvDuration("SEARCH_TIMEOUT", 15*time.Second),

		SessionTTL: getEnvDuration("SESSION_TTL", 2*time.Hour),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
