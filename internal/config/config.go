package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Context    ContextConfig
	Recursion  RecursionConfig
	Refinement RefinementConfig
	Runner     RunnerConfig
	Flagging   FlaggingConfig
	Ai         AIConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	NatsURL     string
	AuditTopic  string
}

type DatabaseConfig struct {
	Connection string
}

// ContextConfig controls the retrieval budgets of the context bundle assembler.
type ContextConfig struct {
	NeighborWindow       int
	SiblingTopK          int
	SiblingTokenLimit    int
	RegulationTopK       int
	RegulationTokenLimit int
	GuidanceTopK         int
	GuidanceTokenLimit   int
	PrecedentTopK        int
	PrecedentTokenLimit  int
	TotalTokenLimit      int
	SimilarityFloor      float64
}

type RecursionConfig struct {
	Enabled         bool
	MaxDepth        int
	MaxRefsPerNode  int
	PrecedentPerRef int
}

type RefinementConfig struct {
	MaxAttempts     int
	NeighborWindow  int
	TokenMultiplier float64
	IncludeEvidence bool
}

type RunnerConfig struct {
	IncludeEvidence      bool
	DraftChunkLimit      int
	FailureRateThreshold float64
}

type FlaggingConfig struct {
	CriticalThreshold int
	GreenFloor        int
}

type AIConfig struct {
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModel          string
	LLMTimeoutSeconds int
	LLMMaxRetries     int
	EmbeddingProvider string // "ollama" or "openai-compatible"
	EmbeddingBaseURL  string
	EmbeddingModel    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "audit.log"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			AuditTopic:  getEnv("AUDIT_RUN_TOPIC_NAME", "RUN_AUDIT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Context: ContextConfig{
			NeighborWindow:       getEnvAsInt("CONTEXT_NEIGHBOR_WINDOW", 1),
			SiblingTopK:          getEnvAsInt("CONTEXT_SIBLING_TOP_K", 5),
			SiblingTokenLimit:    getEnvAsInt("CONTEXT_SIBLING_TOKEN_LIMIT", 1200),
			RegulationTopK:       getEnvAsInt("CONTEXT_REGULATION_TOP_K", 10),
			RegulationTokenLimit: getEnvAsInt("CONTEXT_REGULATION_TOKEN_LIMIT", 2000),
			GuidanceTopK:         getEnvAsInt("CONTEXT_GUIDANCE_TOP_K", 5),
			GuidanceTokenLimit:   getEnvAsInt("CONTEXT_GUIDANCE_TOKEN_LIMIT", 1500),
			PrecedentTopK:        getEnvAsInt("CONTEXT_PRECEDENT_TOP_K", 2),
			PrecedentTokenLimit:  getEnvAsInt("CONTEXT_PRECEDENT_TOKEN_LIMIT", 1000),
			TotalTokenLimit:      getEnvAsInt("CONTEXT_TOTAL_TOKEN_LIMIT", 6000),
			SimilarityFloor:      getEnvAsFloat("CONTEXT_SIMILARITY_FLOOR", 0.0),
		},
		Recursion: RecursionConfig{
			Enabled:         getEnv("RECURSION_ENABLED", "1") == "1",
			MaxDepth:        getEnvAsInt("RECURSION_MAX_DEPTH", 3),
			MaxRefsPerNode:  getEnvAsInt("RECURSION_MAX_REFS_PER_NODE", 10),
			PrecedentPerRef: getEnvAsInt("RECURSION_PRECEDENT_TOP_K", 5),
		},
		Refinement: RefinementConfig{
			MaxAttempts:     getEnvAsInt("REFINEMENT_MAX_ATTEMPTS", 1),
			NeighborWindow:  getEnvAsInt("REFINEMENT_NEIGHBOR_WINDOW", 2),
			TokenMultiplier: getEnvAsFloat("REFINEMENT_TOKEN_MULTIPLIER", 1.5),
			IncludeEvidence: getEnv("REFINEMENT_INCLUDE_EVIDENCE", "1") == "1",
		},
		Runner: RunnerConfig{
			IncludeEvidence:      getEnv("RUNNER_INCLUDE_EVIDENCE", "1") == "1",
			DraftChunkLimit:      getEnvAsInt("RUNNER_DRAFT_CHUNK_LIMIT", 5),
			FailureRateThreshold: getEnvAsFloat("RUNNER_FAILURE_RATE_THRESHOLD", 0.05),
		},
		Flagging: FlaggingConfig{
			CriticalThreshold: getEnvAsInt("FLAG_CRITICAL_THRESHOLD", 80),
			GreenFloor:        getEnvAsInt("FLAG_GREEN_FLOOR", 20),
		},
		Ai: AIConfig{
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			LLMBaseURL:        getEnv("LLM_API_BASE_URL", "https://openrouter.ai/api/v1"),
			LLMModel:          getEnv("LLM_MODEL_COMPLIANCE", "openrouter/horizon-beta"),
			LLMTimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 60),
			LLMMaxRetries:     getEnvAsInt("LLM_MAX_RETRIES", 3),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		},
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
