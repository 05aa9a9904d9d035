package config

import (
	"os"
	"strconv"
)

// StagingConfig selects and configures the request-scoped scratch store
// used to hold flattened images while a sheet is rendered.
// Backend "memory" keeps staged objects in process memory; "minio" uses an
// S3-compatible bucket and still deletes every object at end of request.
type StagingConfig struct {
	Backend string
	MinIO   MinIOConfig
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// PDFConfig holds rendering policy settings.
// ImageFit is "stretch" (image fills its cell box exactly) or "contain"
// (aspect-preserving, centered).
type PDFConfig struct {
	ImageFit string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	BodyLimitMB int
	PDF         PDFConfig
	Staging     StagingConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"), // default only for non-sensitive value
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 64),
		PDF: PDFConfig{
			ImageFit: getEnv("PDF_IMAGE_FIT", "stretch"),
		},
		Staging: StagingConfig{
			Backend: getEnv("STAGING_BACKEND", "memory"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
