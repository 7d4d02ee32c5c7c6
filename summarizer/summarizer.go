package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	docerrors "github.com/sweetpotato0/docsum/errors"
	"github.com/sweetpotato0/docsum/document"
	"github.com/sweetpotato0/docsum/llm"
	"github.com/sweetpotato0/docsum/pkg/logging"
	"github.com/sweetpotato0/docsum/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SystemPrompt is the fixed instruction sent with every chunk.
const SystemPrompt = "You are a precise assistant. Produce a one-sentence summary of the text provided by the user. Reply with the sentence only."

const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 100
	DefaultLLMTimeout  = 20 * time.Second
)

// Strategy names the path that produced a summary.
type Strategy string

const (
	StrategyLLM      Strategy = "llm"
	StrategyFallback Strategy = "fallback"
)

// Summarizer produces the summary of a single chunk.
type Summarizer interface {
	Summarize(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error)
}

// TokenCounter estimates the LLM input size of a text.
type TokenCounter interface {
	CountTokens(text string) int
}

// Service summarizes chunks with an optional LLM and a first-sentence fallback.
// Without an LLM client every chunk takes the fallback path.
type Service struct {
	llm            llm.Client
	counter        TokenCounter
	maxInputTokens int
	temperature    float64
	maxTokens      int64
	llmTimeout     time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

var _ Summarizer = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLLM enables the LLM strategy. A nil client keeps the fallback-only mode.
func WithLLM(client llm.Client) Option {
	return func(s *Service) {
		s.llm = client
	}
}

// WithTokenGuard skips the LLM for chunks estimated above maxTokens tokens.
func WithTokenGuard(counter TokenCounter, maxTokens int) Option {
	return func(s *Service) {
		s.counter = counter
		s.maxInputTokens = maxTokens
	}
}

// WithTemperature sets the sampling temperature for the LLM strategy.
func WithTemperature(temp float64) Option {
	return func(s *Service) {
		if temp >= 0 {
			s.temperature = temp
		}
	}
}

// WithMaxTokens caps the LLM output length.
func WithMaxTokens(max int64) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxTokens = max
		}
	}
}

// WithLLMTimeout bounds a single LLM attempt.
func WithLLMTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.llmTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a summarizer service.
func New(opts ...Option) *Service {
	s := &Service{
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		llmTimeout:  DefaultLLMTimeout,
		tracer:      telemetry.Tracer("summarizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.WithComponent("summarizer")
	}
	return s
}

// Validate checks the chunk contract: non-negative index and non-blank text.
func Validate(chunk document.Chunk) error {
	if chunk.Index < 0 {
		return fmt.Errorf("%w: chunk_index must be >= 0, got %d", docerrors.ErrInvalidChunk, chunk.Index)
	}
	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: text can't be empty", docerrors.ErrInvalidChunk)
	}
	return nil
}

// FirstSentence returns the trimmed text before the first '.', or the whole
// trimmed text when there is none.
func FirstSentence(text string) string {
	before, _, _ := strings.Cut(text, ".")
	return strings.TrimSpace(before)
}

// Summarize implements Summarizer. LLM failures never surface as errors; only
// an invalid chunk or caller cancellation does.
func (s *Service) Summarize(ctx context.Context, chunk document.Chunk) (_ *document.ChunkSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "summarizer.Summarize",
		trace.WithAttributes(attribute.Int("chunk.index", chunk.Index)))
	defer func() { telemetry.End(span, err) }()

	if err = Validate(chunk); err != nil {
		return nil, err
	}

	summary, strategy, err := s.summarize(ctx, chunk)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("summarizer.strategy", string(strategy)))

	return &document.ChunkSummary{
		Index:     chunk.Index,
		Summary:   summary,
		WordCount: document.CountWords(chunk.Text),
	}, nil
}

func (s *Service) summarize(ctx context.Context, chunk document.Chunk) (string, Strategy, error) {
	if s.llm == nil {
		return FirstSentence(chunk.Text), StrategyFallback, nil
	}

	if s.counter != nil && s.maxInputTokens > 0 {
		if n := s.counter.CountTokens(chunk.Text); n > s.maxInputTokens {
			s.logger.Warn("chunk exceeds llm input budget, using fallback",
				"chunk_index", chunk.Index, "tokens", n, "max_tokens", s.maxInputTokens)
			return FirstSentence(chunk.Text), StrategyFallback, nil
		}
	}

	start := time.Now()
	summary, err := s.complete(ctx, chunk.Text)
	if err == nil {
		s.logger.Debug("llm summary produced",
			"chunk_index", chunk.Index, "provider", s.llm.Name(), "duration_ms", time.Since(start).Milliseconds())
		return summary, StrategyLLM, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", "", ctxErr
	}

	s.logger.Warn("llm summarization failed, using fallback",
		"chunk_index", chunk.Index, "provider", s.llm.Name(), "error", err)
	return FirstSentence(chunk.Text), StrategyFallback, nil
}

func (s *Service) complete(ctx context.Context, text string) (out string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("llm client panicked: %v", r)
		}
	}()

	out, err = s.llm.Complete(ctx, &llm.Request{
		System:      SystemPrompt,
		Prompt:      text,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", llm.ErrEmptyResponse
	}
	return out, nil
}
