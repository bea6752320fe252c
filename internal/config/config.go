package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Engine   EngineConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	EngineLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	QuestionSyncTopic  string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
}

type AIConfig struct {
	EmbeddingProvider  string // "gemini", "ollama" or "jina"
	EmbeddingModel     string
	OllamaBaseURL      string
	LLMProvider        string // "ollama" or "gemini"
	LLMModel           string // e.g. "llama3", "gemini-2.5-flash"
	SynthesisModel     string // optional faster model for follow-up synthesis
	PersonalizeTimeout time.Duration
}

// EngineConfig holds every budget and threshold of the follow-up engine.
type EngineConfig struct {
	EmbeddingMaxTokens  int
	EmbeddingSoftBudget time.Duration
	EmbeddingTimeout    time.Duration

	RetrievalTimeout         time.Duration
	RetrievalTopK            int
	RetrievalBreakerFailures uint32
	RetrievalBreakerWindow   time.Duration
	RetrievalBreakerCooldown time.Duration

	SynthesisBudget time.Duration
	SoftTarget      time.Duration
	HardCeiling     time.Duration

	RefineThreshold        float64
	ContextualThreshold    float64
	BestCandidateThreshold float64

	MinQuestionWords int
	MaxQuestionWords int

	CacheCapacity int
	CacheTTL      time.Duration

	FallbackTablePath string
}

type SessionConfig struct {
	TTL time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			EngineLogFilePath:  getEnv("ENGINE_LOG_FILE_PATH", "logs/followup_engine.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			QuestionSyncTopic:  getEnv("QUESTION_SYNC_TOPIC_NAME", "SYNC_QUESTION_EMBEDDING"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			SynthesisModel:     getEnv("SYNTHESIS_LLM_MODEL", ""),
			PersonalizeTimeout: getEnvAsDuration("PERSONALIZATION_TIMEOUT", 3*time.Second),
		},
		Engine:  loadEngineConfig(),
		Session: SessionConfig{TTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour)},
	}
}

func loadEngineConfig() EngineConfig {
	d := DefaultEngineConfig()
	return EngineConfig{
		EmbeddingMaxTokens:  getEnvAsInt("EMBEDDING_MAX_TOKENS", d.EmbeddingMaxTokens),
		EmbeddingSoftBudget: getEnvAsDuration("EMBEDDING_SOFT_BUDGET", d.EmbeddingSoftBudget),
		EmbeddingTimeout:    getEnvAsDuration("EMBEDDING_TIMEOUT", d.EmbeddingTimeout),

		RetrievalTimeout:         getEnvAsDuration("RETRIEVAL_TIMEOUT", d.RetrievalTimeout),
		RetrievalTopK:            getEnvAsInt("RETRIEVAL_TOP_K", d.RetrievalTopK),
		RetrievalBreakerFailures: uint32(getEnvAsInt("RETRIEVAL_BREAKER_FAILURES", int(d.RetrievalBreakerFailures))),
		RetrievalBreakerWindow:   getEnvAsDuration("RETRIEVAL_BREAKER_WINDOW", d.RetrievalBreakerWindow),
		RetrievalBreakerCooldown: getEnvAsDuration("RETRIEVAL_BREAKER_COOLDOWN", d.RetrievalBreakerCooldown),

		SynthesisBudget: getEnvAsDuration("SYNTHESIS_BUDGET", d.SynthesisBudget),
		SoftTarget:      getEnvAsDuration("FOLLOWUP_SOFT_TARGET", d.SoftTarget),
		HardCeiling:     getEnvAsDuration("FOLLOWUP_HARD_CEILING", d.HardCeiling),

		RefineThreshold:        getEnvAsFloat("THRESHOLD_REFINE", d.RefineThreshold),
		ContextualThreshold:    getEnvAsFloat("THRESHOLD_CONTEXTUAL", d.ContextualThreshold),
		BestCandidateThreshold: getEnvAsFloat("THRESHOLD_BEST_CANDIDATE", d.BestCandidateThreshold),

		MinQuestionWords: getEnvAsInt("QUESTION_MIN_WORDS", d.MinQuestionWords),
		MaxQuestionWords: getEnvAsInt("QUESTION_MAX_WORDS", d.MaxQuestionWords),

		CacheCapacity: getEnvAsInt("CACHE_CAPACITY", d.CacheCapacity),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", d.CacheTTL),

		FallbackTablePath: getEnv("FALLBACK_TABLE_PATH", ""),
	}
}

// DefaultEngineConfig returns the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		EmbeddingMaxTokens:  512,
		EmbeddingSoftBudget: 50 * time.Millisecond,
		EmbeddingTimeout:    300 * time.Millisecond,

		RetrievalTimeout:         250 * time.Millisecond,
		RetrievalTopK:            5,
		RetrievalBreakerFailures: 5,
		RetrievalBreakerWindow:   30 * time.Second,
		RetrievalBreakerCooldown: 20 * time.Second,

		SynthesisBudget: 500 * time.Millisecond,
		SoftTarget:      200 * time.Millisecond,
		HardCeiling:     time.Second,

		RefineThreshold:        0.7,
		ContextualThreshold:    0.4,
		BestCandidateThreshold: 0.2,

		MinQuestionWords: 4,
		MaxQuestionWords: 60,

		CacheCapacity: 2048,
		CacheTTL:      15 * time.Minute,
	}
}

// Validate rejects configurations that would make strategy selection
// ambiguous or a budget meaningless.
func (c EngineConfig) Validate() error {
	if !(0 < c.BestCandidateThreshold &&
		c.BestCandidateThreshold < c.ContextualThreshold &&
		c.ContextualThreshold < c.RefineThreshold &&
		c.RefineThreshold <= 1) {
		return fmt.Errorf("thresholds must satisfy 0 < best_candidate (%.2f) < contextual (%.2f) < refine (%.2f) <= 1",
			c.BestCandidateThreshold, c.ContextualThreshold, c.RefineThreshold)
	}
	if c.HardCeiling <= 0 || c.SynthesisBudget <= 0 || c.EmbeddingTimeout <= 0 || c.RetrievalTimeout <= 0 {
		return fmt.Errorf("engine timeouts must be positive")
	}
	if c.SynthesisBudget > c.HardCeiling {
		return fmt.Errorf("synthesis budget %s exceeds hard ceiling %s", c.SynthesisBudget, c.HardCeiling)
	}
	if c.MinQuestionWords <= 0 || c.MaxQuestionWords < c.MinQuestionWords {
		return fmt.Errorf("question word range [%d, %d] is invalid", c.MinQuestionWords, c.MaxQuestionWords)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache capacity must be positive")
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive")
	}
	return nil
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

// getEnvAsDuration accepts Go duration strings ("250ms", "1s").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
