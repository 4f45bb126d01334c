package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Source describes one configured news source. Type selects the parser
// variant; unrecognized types fall back to the generic feed parser.
type Source struct {
	Name string   `yaml:"name"`
	Type string   `yaml:"type"`
	URLs []string `yaml:"urls"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the ordered source list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg sourcesFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sources config: %w", err)
	}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return nil, fmt.Errorf("source %d: name is required", i)
		}
		if len(s.URLs) == 0 {
			return nil, fmt.Errorf("source %q: at least one url is required", s.Name)
		}
	}
	return cfg.Sources, nil
}

type Config struct {
	// Source registry
	SourcesPath string

	// Output
	OutputDir string
	Timezone  string
	Location  *time.Location

	// Clustering
	SimilarityThreshold float64

	// Ingestion
	FetchConcurrency   int // parallel (source, url) fetches
	ArticleConcurrency int // parallel article-page fetches per listing
	RequestTimeout     time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	UserAgent          string

	// LLM settings
	OpenRouterAPIKey string
	Model            string
	MaxLLMRequests   int // maximum LLM requests per run (0 = unlimited)

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SourcesPath:         "configs/sources.yaml",
		OutputDir:           "docs/news",
		Timezone:            "Asia/Ho_Chi_Minh",
		SimilarityThreshold: 0.75,
		FetchConcurrency:    4,
		ArticleConcurrency:  8,
		RequestTimeout:      15 * time.Second,
		RetryAttempts:       3,
		RetryDelay:          2 * time.Second,
		UserAgent:           "vnnews-crawler/1.0 (+https://github.com/vnnews)",
		MaxLLMRequests:      20,
	}

	// Load from environment
	cfg.SourcesPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesPath)
	cfg.OutputDir = getEnvOrDefault("NEWS_OUTPUT_DIR", cfg.OutputDir)
	cfg.Timezone = getEnvOrDefault("NEWS_TIMEZONE", cfg.Timezone)
	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.Model = os.Getenv("OPENROUTER_MODEL")

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 && val <= 1 {
			cfg.SimilarityThreshold = val
		}
	}
	cfg.FetchConcurrency = getEnvIntOrDefault("FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.ArticleConcurrency = getEnvIntOrDefault("ARTICLE_CONCURRENCY", cfg.ArticleConcurrency)
	cfg.MaxLLMRequests = getEnvIntOrDefault("MAX_LLM_REQUESTS", cfg.MaxLLMRequests)

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	cfg.SetTimezone(cfg.Timezone)

	return cfg, cfg.Validate()
}

// SetTimezone resolves a zone name and updates both the name and the
// resolved location. Unresolvable names fall back to a fixed +07:00
// offset so partition dates stay stable without tzdata.
func (c *Config) SetTimezone(name string) {
	c.Timezone = name
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.FixedZone("+07", 7*3600)
	}
	c.Location = loc
}

func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive")
	}
	if c.ArticleConcurrency < 1 {
		return fmt.Errorf("ARTICLE_CONCURRENCY must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
