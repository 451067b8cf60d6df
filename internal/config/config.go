package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	AI       AIConfig
	Agent    AgentConfig
	Memory   MemoryConfig
	Vector   VectorConfig
	RAG      RAGConfig
	Search   SearchConfig
	Tools    ToolsConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "openai" or "ollama"
	EmbeddingProvider string // "openai" or "ollama"
	OpenAIKey         string
	OpenAIBaseURL     string
	ChatModel         string
	EmbedModel        string
	OllamaBaseURL     string
	OllamaChatModel   string
	OllamaEmbedModel  string
	Temperature       float64
	// Timeout bounds a single policy or embedding call.
	Timeout time.Duration
}

type AgentConfig struct {
	MaxHops    int
	RunTimeout time.Duration
}

type MemoryConfig struct {
	WindowSize    int
	WindowBackend string // "memory" or "redis"
	WindowTTL     time.Duration
	RecallK       int
	ArchiveTopic  string
}

type VectorConfig struct {
	Backend       string // "memory", "pgvector", "weaviate" or "sqlite"
	WeaviateURL   string
	WeaviateClass string
	SQLitePath    string
}

type RAGConfig struct {
	TopK          int
	DocsDir       string
	ChunkSize     int
	ChunkStrategy string
}

type SearchConfig struct {
	MaxResults    int
	Timeout       time.Duration
	RatePerSecond float64
	Endpoint      string
}

type ToolsConfig struct {
	Timeout       time.Duration
	CatalogTTL    time.Duration
	ProvidersFile string
	Providers     []ToolProviderConfig
}

type MetricsConfig struct {
	EvalBufferSize int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/research-agent.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		AI: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			ChatModel:         getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbedModel:        getEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaChatModel:   getEnv("OLLAMA_CHAT_MODEL", "llama3"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			Timeout:           getEnvAsSeconds("AI_TIMEOUT_SECONDS", 30),
		},
		Agent: AgentConfig{
			MaxHops:    getEnvAsInt("AGENT_MAX_HOPS", 25),
			RunTimeout: getEnvAsSeconds("AGENT_RUN_TIMEOUT_SECONDS", 120),
		},
		Memory: MemoryConfig{
			WindowSize:    getEnvAsInt("MEMORY_WINDOW_SIZE", 6),
			WindowBackend: getEnv("MEMORY_WINDOW_BACKEND", "memory"),
			WindowTTL:     time.Duration(getEnvAsInt("MEMORY_WINDOW_TTL_MINUTES", 60)) * time.Minute,
			RecallK:       getEnvAsInt("MEMORY_RECALL_K", 1),
			ArchiveTopic:  getEnv("MEMORY_TOPIC", "EXCHANGE_COMPLETED"),
		},
		Vector: VectorConfig{
			Backend:       getEnv("VECTOR_BACKEND", "memory"),
			WeaviateURL:   getEnv("WEAVIATE_URL", "http://localhost:8080"),
			WeaviateClass: getEnv("WEAVIATE_CLASS", "ResearchAgentRecord"),
			SQLitePath:    getEnv("SQLITE_PATH", "data/vectors.db"),
		},
		RAG: RAGConfig{
			TopK:          getEnvAsInt("RAG_TOP_K", 3),
			DocsDir:       getEnv("RAG_DOCS_DIR", "data/docs"),
			ChunkSize:     getEnvAsInt("RAG_CHUNK_SIZE", 600),
			ChunkStrategy: getEnv("RAG_CHUNK_STRATEGY", "fixed"),
		},
		Search: SearchConfig{
			MaxResults:    getEnvAsInt("SEARCH_MAX_RESULTS", 3),
			Timeout:       getEnvAsSeconds("SEARCH_TIMEOUT_SECONDS", 10),
			RatePerSecond: getEnvAsFloat("SEARCH_RATE_PER_SECOND", 1),
			Endpoint:      getEnv("SEARCH_ENDPOINT", "https://html.duckduckgo.com/html/"),
		},
		Tools: ToolsConfig{
			Timeout:       getEnvAsSeconds("TOOL_TIMEOUT_SECONDS", 30),
			CatalogTTL:    getEnvAsSeconds("TOOL_CACHE_TTL_SECONDS", 300),
			ProvidersFile: getEnv("MCP_PROVIDERS_FILE", ""),
		},
		Metrics: MetricsConfig{
			EvalBufferSize: getEnvAsInt("EVAL_BUFFER_SIZE", 50),
		},
	}

	cfg.Tools.Providers = builtinProviders()
	if cfg.Tools.ProvidersFile != "" {
		extra, err := LoadToolProviders(cfg.Tools.ProvidersFile)
		if err != nil {
			log.Printf("Warn: ignoring tool providers file %s: %v", cfg.Tools.ProvidersFile, err)
		} else {
			cfg.Tools.Providers = MergeProviders(cfg.Tools.Providers, extra)
		}
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
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

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
