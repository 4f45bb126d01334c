package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"vnnews/internal/cluster"
	"vnnews/internal/config"
	"vnnews/internal/digest"
	"vnnews/internal/index"
	"vnnews/internal/logger"
	"vnnews/internal/news"
	"vnnews/internal/openrouter"
	"vnnews/internal/parser"
	"vnnews/internal/store"
)

type options struct {
	Config   string `long:"config" env:"SOURCES_CONFIG_PATH" description:"Path to the sources YAML file"`
	OutDir   string `long:"out-dir" env:"NEWS_OUTPUT_DIR" description:"News output directory"`
	Timezone string `long:"timezone" env:"NEWS_TIMEZONE" description:"IANA zone for partition dates"`
	Force    bool   `long:"force" description:"Overwrite already-seen items with freshly extracted fields"`
	Cluster  bool   `long:"cluster" description:"Run the clustering pass after ingestion"`
	Digest   bool   `long:"digest" description:"Generate the daily digest after clustering"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func main() {
	var opts options
	flagParser := flags.NewParser(&opts, flags.Default)
	if _, err := flagParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if opts.Config != "" {
		cfg.SourcesPath = opts.Config
	}
	if opts.OutDir != "" {
		cfg.OutputDir = opts.OutDir
	}
	if opts.Timezone != "" {
		cfg.SetTimezone(opts.Timezone)
	}
	if opts.Debug {
		cfg.Debug = true
	}

	logger.Init(cfg.Debug)

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		logger.Error("failed to load sources config", "path", cfg.SourcesPath, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st := store.New(cfg.OutputDir, cfg.Location)
	registry := parser.NewRegistry(parser.Options{
		UserAgent:          cfg.UserAgent,
		RequestTimeout:     cfg.RequestTimeout,
		RetryAttempts:      cfg.RetryAttempts,
		RetryDelay:         cfg.RetryDelay,
		ArticleConcurrency: cfg.ArticleConcurrency,
		SiteZone:           cfg.Location,
	})

	crawler := news.NewCrawler(registry, st, cfg.FetchConcurrency)
	counts, err := crawler.Run(ctx, sources, opts.Force)
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Saved: %s (+%d new, %d updated, %d skipped, total %d)\n",
		cfg.OutputDir, counts.Added, counts.Updated, counts.Skipped, counts.Total)

	var llm *openrouter.Client
	if cfg.OpenRouterAPIKey != "" {
		llm, err = openrouter.New(cfg.OpenRouterAPIKey, cfg.Model, cfg.MaxLLMRequests)
		if err != nil {
			logger.Warn("LLM client unavailable", "error", err)
			llm = nil
		}
	} else if opts.Cluster || opts.Digest {
		logger.Warn("OPENROUTER_API_KEY not set, AI summarization disabled")
	}

	if opts.Cluster {
		var summarizer cluster.Summarizer
		if llm != nil {
			summarizer = llm
		}
		engine := cluster.NewEngine(cfg.SimilarityThreshold, summarizer)
		if err := engine.Run(ctx, st, st.Dates()); err != nil {
			logger.Error("clustering failed", "error", err)
			os.Exit(1)
		}
	}

	if opts.Digest && llm != nil {
		if err := digest.Build(ctx, st, llm, cfg.Location); err != nil {
			logger.Warn("digest skipped", "error", err)
		}
	}

	// Index rebuild failure is logged but never fails the run.
	if _, err := index.Build(cfg.OutputDir); err != nil {
		logger.Error("index build failed", "error", err)
		return
	}
	if err := index.WriteLatest(st); err != nil {
		logger.Error("latest pointer build failed", "error", err)
	}
}
