package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/docsum/backend"
	"github.com/sweetpotato0/docsum/config"
	"github.com/sweetpotato0/docsum/contrib/provider/claude"
	"github.com/sweetpotato0/docsum/contrib/provider/gemini"
	"github.com/sweetpotato0/docsum/contrib/provider/openai"
	"github.com/sweetpotato0/docsum/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/docsum/llm"
	"github.com/sweetpotato0/docsum/orchestrator"
	"github.com/sweetpotato0/docsum/pkg/logging"
	"github.com/sweetpotato0/docsum/pkg/telemetry"
	"github.com/sweetpotato0/docsum/store"
	"github.com/sweetpotato0/docsum/summarizer"
)

// app holds the configuration and process-wide resources of one command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	shutdown telemetry.ShutdownFunc
	closers  []func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	envFiles, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// stdout carries reports and MCP frames, so logs go to stderr.
	logger := logging.New(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	logging.SetLogger(logger)

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
		Logger:         logger.With("component", "telemetry"),
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	return &app{cfg: cfg, logger: logger, shutdown: shutdown}, nil
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	if err := a.shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

func (a *app) component(name string) *slog.Logger {
	return a.logger.With("component", name)
}

// newLLM builds the configured provider; nil selects the single-tier
// summarizer.
func (a *app) newLLM(ctx context.Context) (llm.Client, error) {
	c := a.cfg.LLM
	switch c.Provider {
	case config.ProviderOpenAI:
		return openai.New(&openai.Config{
			APIKey:     c.APIKey,
			BaseURL:    c.BaseURL,
			Model:      c.Model,
			Timeout:    c.Timeout,
			MaxRetries: c.MaxRetries,
		}), nil
	case config.ProviderClaude:
		cfg := claude.DefaultConfig(c.APIKey, c.BaseURL)
		if c.Model != "" {
			cfg.Model = c.Model
		}
		cfg.Timeout = c.Timeout
		cfg.MaxRetries = c.MaxRetries
		return claude.New(cfg), nil
	case config.ProviderGemini:
		p, err := gemini.New(ctx, &gemini.Config{
			APIKey:  c.APIKey,
			BaseURL: c.BaseURL,
			Model:   c.Model,
			Timeout: c.Timeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		return p, nil
	default:
		return nil, nil
	}
}

func (a *app) newSummarizer(ctx context.Context) (*summarizer.Service, error) {
	c := a.cfg.LLM
	opts := []summarizer.Option{
		summarizer.WithTemperature(c.Temperature),
		summarizer.WithMaxTokens(int64(c.MaxTokens)),
		summarizer.WithLLMTimeout(c.Timeout),
		summarizer.WithLogger(a.component("summarizer")),
	}
	client, err := a.newLLM(ctx)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	if client != nil {
		opts = append(opts, summarizer.WithLLM(client))
		a.logger.Info("llm summarization enabled", "provider", client.Name(), "model", c.Model)
	}
	if c.Provider != config.ProviderNone && c.MaxInputTokens > 0 {
		tokenizer, err := tiktoken.NewTiktokenTokenizer(c.Encoding)
		if err != nil {
			return nil, fmt.Errorf("load tokenizer: %w", err)
		}
		opts = append(opts, summarizer.WithTokenGuard(tokenizer, c.MaxInputTokens))
	}
	return summarizer.New(opts...), nil
}

func (a *app) newBackendClient() *backend.Client {
	c := a.cfg.Summarizer
	return backend.New(backend.Config{
		URL:        c.URL,
		Timeout:    c.Timeout,
		MaxRetries: uint64(c.MaxRetries),
		RetryBase:  c.RetryBase,
	}, backend.WithLogger(a.component("backend")))
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	c := a.cfg.Store
	return store.Open(ctx, store.Options{
		Backend: c.Backend,
		Dir:     c.Dir,
		Redis: &store.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
			TTL:      c.RedisTTL,
		},
		Postgres: &store.PostgresConfig{DSN: c.PostgresDSN},
		Mongo: &store.MongoConfig{
			URI:        c.MongoURI,
			Database:   c.MongoDatabase,
			Collection: c.MongoCollection,
		},
	})
}

func (a *app) newOrchestrator(b orchestrator.Backend, st store.Store) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{
		orchestrator.WithChunkSize(a.cfg.Ingest.ChunkSize),
		orchestrator.WithConcurrency(a.cfg.Ingest.Concurrency),
		orchestrator.WithLogger(a.component("orchestrator")),
	}
	if st != nil {
		opts = append(opts, orchestrator.WithPersister(st))
	}
	return orchestrator.New(b, opts...)
}
