package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	DBURL     string
	DBTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	ClickhouseURL      string
	ClickhouseDatabase string
	ClickhouseUsername string
	ClickhousePassword string

	MediaBucket     string
	MediaBaseURL    string
	MediaEndpoint   string
	MediaTimeout    time.Duration
	MediaMaxRetries uint64
	FFProbePath     string

	MaxUploadBytes int64
	UploadDir      string

	SessionAuthKey       string
	SessionEncryptionKey string
	JWTSecret            string

	GoogleClientID     string
	GoogleClientSecret string
	BackendURL         string
	FrontendURL        string
	AllowedOrigins     []string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	dbTimeout, err := time.ParseDuration(get("DB_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_TIMEOUT: %w", err)
	}
	mediaTimeout, err := time.ParseDuration(get("MEDIA_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_TIMEOUT: %w", err)
	}
	cacheTTL, err := time.ParseDuration(get("CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	retries, err := strconv.ParseUint(get("MEDIA_MAX_RETRIES", "3"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_MAX_RETRIES: %w", err)
	}
	maxUploadMB, err := strconv.ParseInt(get("MAX_UPLOAD_MB", "512"), 10, 64)
	if err != nil || maxUploadMB <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %q", getenv("MAX_UPLOAD_MB"))
	}

	var origins []string
	for _, o := range strings.Split(get("ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		Port:                 get("PORT", "8080"),
		Env:                  get("ENV", "development"),
		DBURL:                get("DB_URL", ""),
		DBTimeout:            dbTimeout,
		RedisAddr:            get("REDIS_ADDR", ""),
		RedisPassword:        get("REDIS_PASSWORD", ""),
		CacheTTL:             cacheTTL,
		ClickhouseURL:        get("CLICKHOUSE_URL", ""),
		ClickhouseDatabase:   get("CLICKHOUSE_DATABASE", "default"),
		ClickhouseUsername:   get("CLICKHOUSE_USERNAME", "default"),
		ClickhousePassword:   get("CLICKHOUSE_PASSWORD", ""),
		MediaBucket:          get("MEDIA_BUCKET", ""),
		MediaBaseURL:         strings.TrimRight(get("MEDIA_BASE_URL", ""), "/"),
		MediaEndpoint:        get("MEDIA_ENDPOINT", ""),
		MediaTimeout:         mediaTimeout,
		MediaMaxRetries:      retries,
		FFProbePath:          get("FFPROBE_PATH", "ffprobe"),
		MaxUploadBytes:       maxUploadMB << 20,
		UploadDir:            get("UPLOAD_DIR", os.TempDir()),
		SessionAuthKey:       get("SESSION_AUTH_KEY", ""),
		SessionEncryptionKey: get("SESSION_ENCRYPTION_KEY", ""),
		JWTSecret:            get("JWT_SECRET", ""),
		GoogleClientID:       get("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		BackendURL:           strings.TrimRight(get("BACKEND_URL", "http://localhost:8080"), "/"),
		FrontendURL:          strings.TrimRight(get("FRONTEND_URL", "http://localhost:3000"), "/"),
		AllowedOrigins:       origins,
	}

	if cfg.DBURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}
	if cfg.MediaBucket == "" || cfg.MediaBaseURL == "" {
		return nil, fmt.Errorf("MEDIA_BUCKET and MEDIA_BASE_URL are required")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
