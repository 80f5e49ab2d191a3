package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Search   SearchConfig
	Ai       AIConfig
	Research ResearchConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	AllowedReferers    []string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SearchConfig struct {
	PersonalAccessToken string
	CacheBackend        string // "memory" or "redis"
}

type AIConfig struct {
	LLMProvider     string // "ollama", "azure", "huggingface"
	LLMModel        string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL   string
	AzureEndpoint   string
	AzureDeployment string
	AzureAPIKey     string
	AzureAPIVersion string
	HuggingFaceKey  string
}

type ResearchConfig struct {
	MaxRounds         int
	MaxKeywords       int
	SessionTimeoutSec int
	NoteTitleTopic    string // Watermill topic for async note titling
}

type AuthConfig struct {
	JwtSecret   string
	RequireAuth bool // When false the note routes are open (internal deployments)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			AllowedReferers:    getEnvAsSlice("ALLOWED_REFERERS", nil),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Search: SearchConfig{
			PersonalAccessToken: getEnv("AZURE_DEVOPS_PAT", ""),
			CacheBackend:        getEnv("SEARCH_CACHE_BACKEND", "memory"),
		},
		Ai: AIConfig{
			LLMProvider:     getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:        getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT", ""),
			AzureAPIKey:     getEnv("AZURE_OPENAI_API_KEY", ""),
			AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", ""),
			HuggingFaceKey:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Research: ResearchConfig{
			MaxRounds:         getEnvAsInt("RESEARCH_MAX_ROUNDS", 5),
			MaxKeywords:       getEnvAsInt("RESEARCH_MAX_KEYWORDS", 5),
			SessionTimeoutSec: getEnvAsInt("RESEARCH_SESSION_TIMEOUT_SEC", 300),
			NoteTitleTopic:    getEnv("NOTE_TITLE_TOPIC_NAME", "GENERATE_NOTE_TITLE"),
		},
		Auth: AuthConfig{
			JwtSecret:   getEnv("JWT_SECRET", ""),
			RequireAuth: getEnvAsBool("REQUIRE_AUTH", false),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
