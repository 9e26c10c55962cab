package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func required() map[string]string {
	return map[string]string{
		"DB_URL":         "postgres://localhost/vidtube",
		"MEDIA_BUCKET":   "media",
		"MEDIA_BASE_URL": "https://cdn.example.com/",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(required()))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 60*time.Second, cfg.MediaTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, uint64(3), cfg.MediaMaxRetries)
	assert.Equal(t, int64(512<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "https://cdn.example.com", cfg.MediaBaseURL)
	assert.Equal(t, "ffprobe", cfg.FFProbePath)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	values := required()
	values["ENV"] = "production"
	values["DB_TIMEOUT"] = "2s"
	values["MEDIA_MAX_RETRIES"] = "0"
	values["MAX_UPLOAD_MB"] = "10"
	values["ALLOWED_ORIGINS"] = "https://a.example.com, https://b.example.com,"

	cfg, err := FromEnv(env(values))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Second, cfg.DBTimeout)
	assert.Equal(t, uint64(0), cfg.MediaMaxRetries)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestFromEnvErrors(t *testing.T) {
	_, err := FromEnv(env(map[string]string{}))
	assert.ErrorContains(t, err, "DB_URL")

	values := required()
	delete(values, "MEDIA_BUCKET")
	_, err = FromEnv(env(values))
	assert.ErrorContains(t, err, "MEDIA_BUCKET")

	values = required()
	values["DB_TIMEOUT"] = "soon"
	_, err = FromEnv(env(values))
	assert.ErrorContains(t, err, "DB_TIMEOUT")

	values = required()
	values["MAX_UPLOAD_MB"] = "0"
	_, err = FromEnv(env(values))
	assert.ErrorContains(t, err, "MAX_UPLOAD_MB")
}
