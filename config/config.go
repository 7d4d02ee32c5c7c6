package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM provider names.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// providerEnv lists the API key and base URL variables read for each provider.
var providerEnv = map[string]struct{ apiKey, baseURL string }{
	ProviderOpenAI: {"OPENAI_API_KEY", "OPENAI_BASE_URL"},
	ProviderClaude: {"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL"},
	ProviderGemini: {"GEMINI_API_KEY", "GEMINI_BASE_URL"},
}

// APIKeyEnv returns the variable holding the API key for provider, or "" for
// providers that need none.
func APIKeyEnv(provider string) string {
	return providerEnv[provider].apiKey
}

// Config is the full process configuration.
type Config struct {
	App        AppConfig
	Ingest     IngestConfig
	Summarizer SummarizerConfig
	LLM        LLMConfig
	Store      StoreConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
	LogFormat   string
}

// IngestConfig configures the orchestrator service.
type IngestConfig struct {
	Addr           string
	ChunkSize      int
	Concurrency    int
	MaxUploadBytes int64
}

// SummarizerConfig configures the summarizer service and the client that
// calls it.
type SummarizerConfig struct {
	Addr       string
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// LLMConfig selects and configures the primary summarization strategy.
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
	MaxRetries     int
	MaxInputTokens int
	Encoding       string
}

// StoreConfig selects where reports are persisted.
type StoreConfig struct {
	Backend         string
	Dir             string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	RedisTTL        time.Duration
	PostgresDSN     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		App: AppConfig{
			Name:        "docsum",
			Version:     "dev",
			Environment: "development",
			LogLevel:    "info",
			LogFormat:   "json",
		},
		Ingest: IngestConfig{
			Addr:           ":8000",
			ChunkSize:      200,
			Concurrency:    1,
			MaxUploadBytes: 10 << 20,
		},
		Summarizer: SummarizerConfig{
			Addr:      ":8001",
			URL:       "http://localhost:8001/process",
			Timeout:   30 * time.Second,
			RetryBase: 200 * time.Millisecond,
		},
		LLM: LLMConfig{
			Provider:    ProviderNone,
			Temperature: 0.2,
			MaxTokens:   100,
			Timeout:     20 * time.Second,
			MaxRetries:  2,
			Encoding:    "cl100k_base",
		},
		Store: StoreConfig{
			Backend:         "file",
			Dir:             "outputs",
			RedisAddr:       "localhost:6379",
			RedisPrefix:     "docsum:report:",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "docsum",
			MongoCollection: "reports",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "docsum",
		},
	}
}

// Load reads the given env files (or .env when none is given, if present)
// and builds a Config from the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("failed to load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment over Default.
func FromEnv() (Config, error) {
	cfg := Default()
	e := &envReader{}

	cfg.App.Environment = e.getString("DOCSUM_ENV", cfg.App.Environment)
	cfg.App.LogLevel = e.getString("DOCSUM_LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = e.getString("DOCSUM_LOG_FORMAT", cfg.App.LogFormat)

	cfg.Ingest.Addr = e.getString("INGEST_ADDR", cfg.Ingest.Addr)
	cfg.Ingest.ChunkSize = e.getInt("CHUNK_SIZE", cfg.Ingest.ChunkSize)
	cfg.Ingest.Concurrency = e.getInt("INGEST_CONCURRENCY", cfg.Ingest.Concurrency)
	cfg.Ingest.MaxUploadBytes = int64(e.getInt("MAX_UPLOAD_BYTES", int(cfg.Ingest.MaxUploadBytes)))

	cfg.Summarizer.Addr = e.getString("SUMMARIZER_ADDR", cfg.Summarizer.Addr)
	cfg.Summarizer.URL = e.getString("SUMMARIZER_URL", cfg.Summarizer.URL)
	cfg.Summarizer.Timeout = e.getDuration("BACKEND_TIMEOUT", cfg.Summarizer.Timeout)
	cfg.Summarizer.MaxRetries = e.getInt("BACKEND_MAX_RETRIES", cfg.Summarizer.MaxRetries)
	cfg.Summarizer.RetryBase = e.getDuration("BACKEND_RETRY_BASE", cfg.Summarizer.RetryBase)

	cfg.LLM.Provider = strings.ToLower(e.getString("LLM_PROVIDER", cfg.LLM.Provider))
	if env, ok := providerEnv[cfg.LLM.Provider]; ok {
		cfg.LLM.APIKey = e.getString(env.apiKey, "")
		cfg.LLM.BaseURL = e.getString(env.baseURL, "")
	}
	cfg.LLM.Model = e.getString("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = e.getFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.MaxTokens = e.getInt("LLM_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.Timeout = e.getDuration("LLM_TIMEOUT", cfg.LLM.Timeout)
	cfg.LLM.MaxRetries = e.getInt("LLM_MAX_RETRIES", cfg.LLM.MaxRetries)
	cfg.LLM.MaxInputTokens = e.getInt("LLM_MAX_INPUT_TOKENS", cfg.LLM.MaxInputTokens)
	cfg.LLM.Encoding = e.getString("TOKENIZER_ENCODING", cfg.LLM.Encoding)

	cfg.Store.Backend = strings.ToLower(e.getString("STORE_BACKEND", cfg.Store.Backend))
	cfg.Store.Dir = e.getString("STORE_DIR", cfg.Store.Dir)
	cfg.Store.RedisAddr = e.getString("REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisPassword = e.getString("REDIS_PASSWORD", cfg.Store.RedisPassword)
	cfg.Store.RedisDB = e.getInt("REDIS_DB", cfg.Store.RedisDB)
	cfg.Store.RedisPrefix = e.getString("REDIS_PREFIX", cfg.Store.RedisPrefix)
	cfg.Store.RedisTTL = e.getDuration("REDIS_TTL", cfg.Store.RedisTTL)
	cfg.Store.PostgresDSN = e.getString("POSTGRES_DSN", cfg.Store.PostgresDSN)
	cfg.Store.MongoURI = e.getString("MONGODB_URI", cfg.Store.MongoURI)
	cfg.Store.MongoDatabase = e.getString("MONGODB_DB", cfg.Store.MongoDatabase)
	cfg.Store.MongoCollection = e.getString("MONGODB_COLLECTION", cfg.Store.MongoCollection)

	cfg.Telemetry.Enabled = e.getBool("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = e.getString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.ServiceName = e.getString("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)

	if err := e.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the services cannot run with.
func (c Config) Validate() error {
	v := NewValidator()

	v.ValidateOneOf("DOCSUM_LOG_LEVEL", strings.ToLower(c.App.LogLevel), "debug", "info", "warn", "warning", "error")
	v.ValidateOneOf("DOCSUM_LOG_FORMAT", strings.ToLower(c.App.LogFormat), "json", "text")

	v.RequireNonEmpty("INGEST_ADDR", c.Ingest.Addr)
	v.RequirePositive("CHUNK_SIZE", c.Ingest.ChunkSize)
	v.RequirePositive("INGEST_CONCURRENCY", c.Ingest.Concurrency)
	v.RequirePositive("MAX_UPLOAD_BYTES", int(c.Ingest.MaxUploadBytes))

	v.RequireNonEmpty("SUMMARIZER_ADDR", c.Summarizer.Addr)
	v.RequireURL("SUMMARIZER_URL", c.Summarizer.URL)
	v.RequirePositiveDuration("BACKEND_TIMEOUT", c.Summarizer.Timeout)
	v.ValidateRange("BACKEND_MAX_RETRIES", c.Summarizer.MaxRetries, 0, 10)

	v.ValidateOneOf("LLM_PROVIDER", c.LLM.Provider, ProviderNone, ProviderOpenAI, ProviderClaude, ProviderGemini)
	if key := APIKeyEnv(c.LLM.Provider); key != "" {
		v.RequireNonEmpty(key, c.LLM.APIKey)
		v.ValidateFloatRange("LLM_TEMPERATURE", c.LLM.Temperature, 0.0, 2.0)
		v.RequirePositive("LLM_MAX_TOKENS", c.LLM.MaxTokens)
		v.RequirePositiveDuration("LLM_TIMEOUT", c.LLM.Timeout)
		v.ValidateRange("LLM_MAX_INPUT_TOKENS", c.LLM.MaxInputTokens, 0, 1<<20)
	}

	v.ValidateOneOf("STORE_BACKEND", c.Store.Backend, "file", "redis", "postgres", "mongo", "none")
	switch c.Store.Backend {
	case "file":
		v.RequireNonEmpty("STORE_DIR", c.Store.Dir)
	case "redis":
		v.RequireNonEmpty("REDIS_ADDR", c.Store.RedisAddr)
		v.ValidateDBNumber("REDIS_DB", c.Store.RedisDB)
		v.RequireNonEmpty("REDIS_PREFIX", c.Store.RedisPrefix)
	case "postgres":
		v.RequireNonEmpty("POSTGRES_DSN", c.Store.PostgresDSN)
	case "mongo":
		v.RequireNonEmpty("MONGODB_URI", c.Store.MongoURI)
		v.RequireNonEmpty("MONGODB_DB", c.Store.MongoDatabase)
		v.RequireNonEmpty("MONGODB_COLLECTION", c.Store.MongoCollection)
	}

	if c.Telemetry.Enabled {
		v.RequireNonEmpty("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)
	}

	return v.Error()
}

// envReader collects parse failures so FromEnv reports all of them at once.
type envReader struct {
	errs []error
}

func (e *envReader) getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) getInt(key string, def int) int {
	raw := e.getString(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return def
	}
	return n
}

func (e *envReader) getFloat(key string, def float64) float64 {
	raw := e.getString(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, raw))
		return def
	}
	return f
}

func (e *envReader) getBool(key string, def bool) bool {
	raw := e.getString(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		return def
	}
	return b
}

func (e *envReader) getDuration(key string, def time.Duration) time.Duration {
	raw := e.getString(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return def
	}
	return d
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}
