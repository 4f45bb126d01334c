package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SOURCES_CONFIG_PATH", "NEWS_OUTPUT_DIR", "NEWS_TIMEZONE",
		"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "SIMILARITY_THRESHOLD",
		"FETCH_CONCURRENCY", "ARTICLE_CONCURRENCY", "MAX_LLM_REQUESTS",
		"REQUEST_TIMEOUT_SECONDS", "USER_AGENT", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "configs/sources.yaml", cfg.SourcesPath)
	assert.Equal(t, "docs/news", cfg.OutputDir)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Timezone)
	assert.Equal(t, 0.75, cfg.SimilarityThreshold)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 8, cfg.ArticleConcurrency)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 20, cfg.MaxLLMRequests)
	assert.Empty(t, cfg.OpenRouterAPIKey)
	assert.False(t, cfg.Debug)
	require.NotNil(t, cfg.Location)

	// Both the named zone and the fixed fallback resolve to +07:00.
	_, offset := time.Now().In(cfg.Location).Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_OUTPUT_DIR", "/tmp/out")
	t.Setenv("NEWS_TIMEZONE", "UTC")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("OPENROUTER_MODEL", "deepseek/deepseek-chat")
	t.Setenv("SIMILARITY_THRESHOLD", "0.6")
	t.Setenv("FETCH_CONCURRENCY", "2")
	t.Setenv("MAX_LLM_REQUESTS", "5")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "sk-or-test", cfg.OpenRouterAPIKey)
	assert.Equal(t, "deepseek/deepseek-chat", cfg.Model)
	assert.Equal(t, 0.6, cfg.SimilarityThreshold)
	assert.Equal(t, 2, cfg.FetchConcurrency)
	assert.Equal(t, 5, cfg.MaxLLMRequests)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Debug)
}

func TestLoad_IgnoresInvalidThreshold(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIMILARITY_THRESHOLD", "1.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.SimilarityThreshold)
}

func TestLoad_BadTimezoneFallsBackToFixedOffset(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_TIMEZONE", "Not/AZone")

	cfg, err := Load()
	require.NoError(t, err)

	_, offset := time.Now().In(cfg.Location).Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestSetTimezone(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.SetTimezone("UTC")
	assert.Equal(t, "UTC", cfg.Timezone)
	_, offset := time.Now().In(cfg.Location).Zone()
	assert.Zero(t, offset)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.FetchConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg.FetchConcurrency = 1
	cfg.OutputDir = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: Vietstock
    type: rss
    urls:
      - https://vietstock.vn/830/chung-khoan.rss
      - https://vietstock.vn/761/vang.rss
  - name: CafeF
    type: cafef
    urls:
      - https://cafef.vn/thi-truong-chung-khoan.chn
`), 0644))

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Vietstock", sources[0].Name)
	assert.Equal(t, "rss", sources[0].Type)
	assert.Len(t, sources[0].URLs, 2)
	assert.Equal(t, "cafef", sources[1].Type)
}

func TestLoadSources_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - type: rss
    urls: [https://example.com/feed]
`), 0644))

	_, err := LoadSources(path)
	assert.ErrorContains(t, err, "name is required")
}

func TestLoadSources_MissingURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: Vietstock
    type: rss
`), 0644))

	_, err := LoadSources(path)
	assert.ErrorContains(t, err, "at least one url")
}

func TestLoadSources_FileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadSources(path)
	assert.Error(t, err)
}

func TestLoadSources_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [not: closed"), 0644))

	_, err := LoadSources(path)
	assert.Error(t, err)
}
