package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL settings for the full-text search index.
// The index is optional: an empty Host disables it and search runs on the object-store fallback.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a search index database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// MinIOConfig holds S3-compatible object storage settings (MinIO, AWS S3, GCS interoperability).
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	Prefix        string
	PublicBaseURL string
	ShareURLTTL   time.Duration
}

// SearchConfig tunes the search operation.
type SearchConfig struct {
	MaxResults int
}

// IndexerConfig controls the background ingestion of stored renditions into the search index.
type IndexerConfig struct {
	Interval  time.Duration
	BatchSize int
}

// RateLimitConfig configures the per-client token bucket. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AppConfig is the centralized configuration of the document service and the indexer.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	ServiceName string
	Version     string
	ProjectID   string
	AppHost     string
	Port        string
	LogLevel    string
	LogPretty   bool
	Timezone    string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Search      SearchConfig
	Indexer     IndexerConfig
	RateLimit   RateLimitConfig
}

// Location resolves Timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	return loadLocation(c.Timezone)
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence.
func Load() *AppConfig {
	v := newViper()

	v.SetDefault("SERVICE_NAME", "prd-document-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
	v.SetDefault("APP_HOST", "localhost:8080")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SEC", 300)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("PRD_PREFIX", "prds")
	v.SetDefault("SHARE_URL_TTL", time.Duration(0))
	v.SetDefault("SEARCH_MAX_RESULTS", 5)
	v.SetDefault("INDEXER_INTERVAL", time.Minute)
	v.SetDefault("INDEXER_BATCH_SIZE", 50)
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	return &AppConfig{
		ServiceName: v.GetString("SERVICE_NAME"),
		Version:     v.GetString("SERVICE_VERSION"),
		ProjectID:   v.GetString("PROJECT_ID"),
		AppHost:     v.GetString("APP_HOST"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogPretty:   v.GetBool("LOG_PRETTY"),
		Timezone:    v.GetString("APP_TIMEZONE"),
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetString("DB_PORT"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			Name:               v.GetString("DB_NAME"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetimeSec: v.GetInt("DB_CONN_MAX_LIFETIME_SEC"),
		},
		MinIO: MinIOConfig{
			Endpoint:      v.GetString("MINIO_ENDPOINT"),
			AccessKey:     v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:     v.GetString("MINIO_SECRET_KEY"),
			Bucket:        v.GetString("MINIO_BUCKET"),
			Region:        v.GetString("MINIO_REGION"),
			UseSSL:        v.GetBool("MINIO_USE_SSL"),
			Prefix:        strings.Trim(v.GetString("PRD_PREFIX"), "/"),
			PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			ShareURLTTL:   v.GetDuration("SHARE_URL_TTL"),
		},
		Search: SearchConfig{
			MaxResults: v.GetInt("SEARCH_MAX_RESULTS"),
		},
		Indexer: IndexerConfig{
			Interval:  v.GetDuration("INDEXER_INTERVAL"),
			BatchSize: v.GetInt("INDEXER_BATCH_SIZE"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
