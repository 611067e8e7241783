package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	InferenceAPIKey    string
	InferenceBaseURL   string
	InferenceModel     string
	InferenceMaxTokens int

	KnowledgeBaseID string
	RetrievalTopK   int

	TaxonomyKey string
	LensAlias   string

	GenerationMaxIterations int
	GenerationPaceSeconds   int
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

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		InferenceAPIKey:    getEnv("INFERENCE_API_KEY", ""),
		InferenceBaseURL:   getEnv("INFERENCE_BASE_URL", ""),
		InferenceModel:     getEnv("INFERENCE_MODEL", "gpt-4o"),
		InferenceMaxTokens: getEnvInt("INFERENCE_MAX_TOKENS", 4096),

		KnowledgeBaseID: getEnv("KNOWLEDGE_BASE_ID", ""),
		RetrievalTopK:   getEnvInt("RETRIEVAL_TOP_K", 20),

		TaxonomyKey: getEnv("TAXONOMY_KEY", "well_architected_best_practices.json"),
		LensAlias:   getEnv("LENS_ALIAS", "wellarchitected"),

		GenerationMaxIterations: getEnvInt("GENERATION_MAX_ITERATIONS", 30),
		GenerationPaceSeconds:   getEnvInt("GENERATION_PACE_SECONDS", 1),
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
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
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
