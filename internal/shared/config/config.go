package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	LLMProvider     string
	LLMModel        string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMTemperature  float64
	LLMTimeout      time.Duration
	DatabaseURL     string
	Env             string
	RBACGrants      string
	Import          ImportConfig
}

// ImportConfig tunes the document import pipeline.
type ImportConfig struct {
	FieldTimeout      time.Duration
	MaxAttempts       int
	ChunkChars        int
	MaxChunks         int
	FieldContextChars int
	// MinTextChars rejects shorter documents when positive. Off by default.
	MinTextChars      int
}

// DefaultImportConfig returns the pipeline defaults used when env vars are absent.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FieldTimeout:      30 * time.Second,
		MaxAttempts:       3,
		ChunkChars:        8000,
		MaxChunks:         1,
		FieldContextChars: 3000,
		MinTextChars:      0,
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	defaults := DefaultImportConfig()
	apiKey := getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		LLMProvider:     normalizeProvider(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMAPIKey:       apiKey,
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMTemperature:  getEnvFloat("LLM_TEMPERATURE", 0.1),
		LLMTimeout:      time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		DatabaseURL:     dbURL,
		Env:             env,
		RBACGrants:      getEnv("RBAC_GRANTS", ""),
		Import: ImportConfig{
			FieldTimeout:      getEnvDuration("IMPORT_FIELD_TIMEOUT", defaults.FieldTimeout),
			MaxAttempts:       getEnvInt("IMPORT_MAX_ATTEMPTS", defaults.MaxAttempts),
			ChunkChars:        getEnvInt("IMPORT_CHUNK_CHARS", defaults.ChunkChars),
			MaxChunks:         getEnvInt("IMPORT_MAX_CHUNKS", defaults.MaxChunks),
			FieldContextChars: getEnvInt("IMPORT_FIELD_CONTEXT_CHARS", defaults.FieldContextChars),
			MinTextChars:      getEnvInt("IMPORT_MIN_TEXT_CHARS", defaults.MinTextChars),
		},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config env %s invalid positive int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		log.Printf("config env %s invalid float %q, using %g", key, raw, def)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config env %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "claude", "anthropic":
		return "claude"
	case "gemini", "google":
		return "gemini"
	case "none", "":
		return "none"
	default:
		return "openai"
	}
}
