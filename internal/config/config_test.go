package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"tsguard/internal/config"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("DB_HOST", "test-host")
	defer os.Unsetenv("DB_HOST")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	content := []byte("DB_HOST=loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 1500, cfg.ChunkWindow)
	assert.Equal(t, 250, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.SearchTopK)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
}

func TestLoadConfig_Toggles(t *testing.T) {
	os.Setenv("ENABLE_API", "false")
	os.Setenv("ENABLE_EMBED_WORKER", "true")
	defer os.Unsetenv("ENABLE_API")
	defer os.Unsetenv("ENABLE_EMBED_WORKER")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.False(t, cfg.EnableAPI)
	assert.True(t, cfg.EnableEmbedWorker)
}

func TestLoadConfig_RejectsOverlapNotBelowWindow(t *testing.T) {
	os.Setenv("CHUNK_WINDOW", "100")
	os.Setenv("CHUNK_OVERLAP", "100")
	defer os.Unsetenv("CHUNK_WINDOW")
	defer os.Unsetenv("CHUNK_OVERLAP")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrInvalidChunking)
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &config.Config{ChunkWindow: 10, ChunkOverlap: 0}
	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrMissingRequired)
}
