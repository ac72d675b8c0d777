// Package config loads the server configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr   string
	LogLevel     string
	ErrorLogFile string

	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string

	JWTKey       []byte
	TokenTTL     time.Duration
	CookieSecure bool

	AllowedOrigins  []string
	AllowAllOrigins bool

	RateLimitRPS   float64
	RateLimitBurst int

	// Redis is optional; without it realtime pushes stay on this instance.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Blob BlobConfig

	MaxUploadBytes int64

	NotificationRetention time.Duration
	NotificationSweepCron string
}

// BlobConfig selects and configures the blob store backend.
type BlobConfig struct {
	Backend      string // local, s3, gcs or azure
	Dir          string
	SignedURLTTL time.Duration

	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3KeyID    string
	S3Secret   string

	GCSBucket          string
	GCSCredentialsFile string

	AzureConnectionString string
	AzureContainer        string
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:      envDefault("LISTEN_ADDR", ":8081"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		ErrorLogFile:    envDefault("ERROR_LOG_FILE", "app.error_logger"),
		DatabaseDriver:  strings.ToLower(envDefault("DATABASE_DRIVER", "postgres")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTKey:          []byte(os.Getenv("JWT_KEY")),
		CookieSecure:    os.Getenv("COOKIE_SECURE") == "true",
		AllowAllOrigins: os.Getenv("ALLOW_ALL_ORIGINS") == "true",
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PW"),
		Blob: BlobConfig{
			Backend:               strings.ToLower(envDefault("BLOB_BACKEND", "local")),
			Dir:                   envDefault("BLOB_DIR", "uploads"),
			S3Bucket:              os.Getenv("S3_BUCKET"),
			S3Region:              os.Getenv("S3_REGION"),
			S3Endpoint:            os.Getenv("S3_ENDPOINT"),
			S3KeyID:               os.Getenv("S3_KEY_ID"),
			S3Secret:              os.Getenv("S3_SECRET"),
			GCSBucket:             os.Getenv("GCS_BUCKET"),
			GCSCredentialsFile:    os.Getenv("GCS_CREDENTIALS_FILE"),
			AzureConnectionString: os.Getenv("AZURE_CONNECTION_STRING"),
			AzureContainer:        os.Getenv("AZURE_CONTAINER"),
		},
		NotificationSweepCron: envDefault("NOTIFICATION_SWEEP_CRON", "@daily"),
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Blob.SignedURLTTL, err = durationEnv("SIGNED_URL_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.NotificationRetention, err = durationEnv("NOTIFICATION_RETENTION", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	burst, err := intEnv("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitBurst = burst
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	maxUpload, err := intEnv("MAX_UPLOAD_BYTES", 50<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and backend-specific fields.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if len(c.JWTKey) == 0 {
		return fmt.Errorf("no JWT_KEY found in environment")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	switch c.Blob.Backend {
	case "local":
		if c.Blob.Dir == "" {
			return fmt.Errorf("BLOB_DIR is required for the local blob backend")
		}
	case "s3":
		if c.Blob.S3Bucket == "" || c.Blob.S3Region == "" {
			return fmt.Errorf("S3_BUCKET and S3_REGION are required for the s3 blob backend")
		}
		if c.Blob.S3KeyID == "" || c.Blob.S3Secret == "" {
			return fmt.Errorf("S3_KEY_ID and S3_SECRET are required for the s3 blob backend")
		}
	case "gcs":
		if c.Blob.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs blob backend")
		}
	case "azure":
		if c.Blob.AzureConnectionString == "" || c.Blob.AzureContainer == "" {
			return fmt.Errorf("AZURE_CONNECTION_STRING and AZURE_CONTAINER are required for the azure blob backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.Blob.Backend)
	}
	return nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s environment variable is invalid: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s environment variable is invalid: %w", key, err)
	}
	return f, nil
}
