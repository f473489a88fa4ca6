package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Keys       APIKeys
	Ai         AIConfig
	Pipeline   PipelineConfig
	Checkpoint CheckpointConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AgentLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	IndexTopic         string // watermill topic for document indexing
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	HuggingFace  string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama", "gemini" or "jina"
	OllamaBaseURL     string
	OllamaModel       string // embedding model
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string // e.g. "llama3.1", "qwen2.5"
	LLMBaseURL        string
	LLMTemperature    float64
}

type PipelineConfig struct {
	HistoryWindow       int
	ExcerptLength       int
	StageTimeout        time.Duration
	MaxToolIterations   int
	RetrievalTopK       int
	SimilarityThreshold float64
	ChunkSize           int
	ChunkOverlap        int
}

type CheckpointConfig struct {
	Backend string // "memory", "redis" or "postgres"
	TTL     time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AgentLogFilePath:   getEnv("AGENT_LOG_FILE_PATH", "logs/agents.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			IndexTopic:         getEnv("INDEX_DOCUMENT_TOPIC_NAME", "INDEX_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.1"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMTemperature:    getEnvAsFloat("LLM_TEMPERATURE", 0),
		},
		Pipeline: PipelineConfig{
			HistoryWindow:       getEnvAsInt("HISTORY_WINDOW", 6),
			ExcerptLength:       getEnvAsInt("PREVIOUS_ANSWER_EXCERPT", 200),
			StageTimeout:        getEnvAsDuration("STAGE_TIMEOUT", 2*time.Minute),
			MaxToolIterations:   getEnvAsInt("MAX_TOOL_ITERATIONS", 10),
			RetrievalTopK:       getEnvAsInt("RETRIEVAL_TOP_K", 4),
			SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.3),
			ChunkSize:           getEnvAsInt("CHUNK_SIZE", 1500),
			ChunkOverlap:        getEnvAsInt("CHUNK_OVERLAP", 200),
		},
		Checkpoint: CheckpointConfig{
			Backend: getEnv("CHECKPOINT_BACKEND", "memory"),
			TTL:     getEnvAsDuration("CHECKPOINT_TTL", 0),
		},
	}
}

// APIKeyFor returns the key used by an LLM or embedding provider
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.Keys.GoogleGemini
	case "jina":
		return c.Keys.Jina
	case "huggingface":
		return c.Keys.HuggingFace
	default:
		return ""
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
