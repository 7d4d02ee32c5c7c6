package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"github.com/sweetpotato0/docsum/document"
	docerrors "github.com/sweetpotato0/docsum/errors"
	"github.com/sweetpotato0/docsum/orchestrator"
	"github.com/sweetpotato0/docsum/pkg/logging"
)

const (
	DefaultURL       = "http://localhost:8001/process"
	DefaultTimeout   = 30 * time.Second
	DefaultRetryBase = 200 * time.Millisecond

	// maxBodyInError limits how much of a rejected response is kept on the error.
	maxBodyInError = 512
)

// Config holds the summarizer endpoint settings.
type Config struct {
	URL     string
	Timeout time.Duration
	// MaxRetries retries transport failures only. Zero disables retries.
	MaxRetries uint64
	RetryBase  time.Duration
}

// DefaultConfig returns the endpoint used by a local summarizer service.
func DefaultConfig() Config {
	return Config{
		URL:       DefaultURL,
		Timeout:   DefaultTimeout,
		RetryBase: DefaultRetryBase,
	}
}

// Client sends chunks to a remote summarizer over HTTP.
type Client struct {
	http       *resty.Client
	url        string
	maxRetries uint64
	retryBase  time.Duration
	logger     *slog.Logger
}

var _ orchestrator.Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a summarizer client. Every call is bounded by cfg.Timeout;
// exceeding it is reported as backend unavailable.
func New(cfg Config, opts ...Option) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &Client{
		http:       httpClient,
		url:        cfg.URL,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.WithComponent("backend")
	}
	return c
}

// Summarize implements orchestrator.Backend.
func (c *Client) Summarize(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
	if c.maxRetries == 0 {
		return c.post(ctx, chunk)
	}

	var (
		out     *document.ChunkSummary
		attempt int
	)
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		summary, err := c.post(ctx, chunk)
		if err != nil {
			if errors.Is(err, docerrors.ErrBackendUnavailable) {
				c.logger.Warn("summarizer unreachable, retrying",
					"chunk_index", chunk.Index, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		out = summary
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chunk).
		Post(c.url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &docerrors.BackendUnavailableError{ChunkIndex: chunk.Index, Err: err}
	}

	if !resp.IsSuccess() {
		body := resp.String()
		if len(body) > maxBodyInError {
			body = body[:maxBodyInError]
		}
		return nil, &docerrors.BackendRejectedError{
			ChunkIndex: chunk.Index,
			Status:     resp.StatusCode(),
			Body:       body,
		}
	}

	var summary document.ChunkSummary
	if err := json.Unmarshal(resp.Body(), &summary); err != nil {
		return nil, &docerrors.InternalError{
			ChunkIndex: chunk.Index,
			Cause:      fmt.Errorf("decode summarizer response: %w", err),
		}
	}
	return &summary, nil
}
