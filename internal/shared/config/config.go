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
	StateFile       string
	DatabaseURL     string
	UploadRoot      string
	TimeZone        string
	MaxQuestions    int
	MaxUploadBytes  int64
	MinUploadBytes  int64
	AdminAPIKey     string
	FFProbePath     string
	ArchiveS3Bucket string
	ArchiveS3Prefix string
	AWSRegion       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && getEnv("ADMIN_API_KEY", "") == "" {
		log.Printf("ADMIN_API_KEY is not set; token issuance routes are disabled")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		StateFile:       getEnv("STATE_FILE", "./data/recordings.json"),
		DatabaseURL:     dbURL,
		UploadRoot:      getEnv("UPLOAD_ROOT", "./uploads"),
		TimeZone:        getEnv("RECORDER_TIMEZONE", "Asia/Bangkok"),
		MaxQuestions:    getEnvInt("MAX_QUESTIONS", 5),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 100<<20),
		MinUploadBytes:  getEnvInt64("MIN_UPLOAD_BYTES", 1024),
		AdminAPIKey:     getEnv("ADMIN_API_KEY", ""),
		FFProbePath:     getEnv("FFPROBE_PATH", "ffprobe"),
		ArchiveS3Bucket: getEnv("ARCHIVE_S3_BUCKET", ""),
		ArchiveS3Prefix: getEnv("ARCHIVE_S3_PREFIX", "interviews/"),
		AWSRegion:       getEnv("AWS_REGION", ""),
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
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
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
