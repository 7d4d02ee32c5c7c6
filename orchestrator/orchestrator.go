package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sweetpotato0/docsum/chunking"
	"github.com/sweetpotato0/docsum/document"
	docerrors "github.com/sweetpotato0/docsum/errors"
	"github.com/sweetpotato0/docsum/pkg/logging"
	"github.com/sweetpotato0/docsum/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Backend summarizes one chunk. Implementations report transport failures as
// *errors.BackendUnavailableError and non-success answers as
// *errors.BackendRejectedError; anything else becomes an
// *errors.InternalError for that chunk.
type Backend interface {
	Summarize(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error)

// Summarize calls f.
func (f BackendFunc) Summarize(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
	return f(ctx, chunk)
}

// Persister stores a finished report and returns the artifact name.
type Persister interface {
	Save(ctx context.Context, source string, report *document.Report) (string, error)
}

// Orchestrator turns a document into a Report by dispatching its chunks to a
// Backend. A Report is only returned when every chunk succeeded.
type Orchestrator struct {
	backend     Backend
	chunker     chunking.Chunker
	chunkSize   int
	concurrency int
	persister   Persister
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithChunkSize sets the number of words per chunk.
func WithChunkSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithChunker replaces the word chunker built from WithChunkSize.
func WithChunker(c chunking.Chunker) Option {
	return func(o *Orchestrator) {
		o.chunker = c
	}
}

// WithConcurrency allows up to n chunks in flight. Values below 2 keep the
// sequential dispatch.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithPersister saves every successful report.
func WithPersister(p Persister) Option {
	return func(o *Orchestrator) {
		o.persister = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator around backend.
func New(backend Backend, opts ...Option) *Orchestrator {
	if backend == nil {
		panic("orchestrator: backend cannot be nil")
	}
	o := &Orchestrator{
		backend:     backend,
		chunkSize:   chunking.DefaultChunkSize,
		concurrency: 1,
		tracer:      telemetry.Tracer("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.WithComponent("orchestrator")
	}
	if o.chunker == nil {
		o.chunker = chunking.NewWordChunker(chunking.WithChunkSize(o.chunkSize))
	}
	return o
}

// ValidateDocument checks a named upload and decodes it. Only .txt files with
// valid UTF-8, non-blank content are accepted.
func ValidateDocument(name string, data []byte) (document.Document, error) {
	if !strings.HasSuffix(name, ".txt") {
		return document.Document{}, docerrors.ErrUnsupportedType
	}
	if !utf8.Valid(data) {
		return document.Document{}, docerrors.ErrInvalidEncoding
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return document.Document{}, docerrors.ErrEmptyDocument
	}
	return document.Document{Name: name, Content: text}, nil
}

// Ingest validates, chunks and summarizes a named document, then persists the
// report when a persister is configured.
func (o *Orchestrator) Ingest(ctx context.Context, name string, data []byte) (_ *document.Report, err error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.Ingest", trace.WithAttributes(attribute.String("document.name", name)))
	defer func() { telemetry.End(span, err) }()

	doc, err := ValidateDocument(name, data)
	if err != nil {
		o.logger.Warn("document rejected", "name", name, "error", err)
		return nil, err
	}

	chunks, err := o.chunker.Chunk(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	span.SetAttributes(attribute.Int("document.chunks", len(chunks)))

	report, err := o.Orchestrate(ctx, doc.Name, chunks)
	if err != nil {
		return nil, err
	}

	if o.persister != nil {
		artifact, err := o.persister.Save(ctx, doc.Name, report)
		if err != nil {
			return nil, fmt.Errorf("persist report: %w", err)
		}
		o.logger.Info("report persisted", "name", doc.Name, "artifact", artifact)
	}
	return report, nil
}

// Orchestrate summarizes chunks and assembles the report in index order. The
// first terminal error aborts the request and no partial report is returned.
func (o *Orchestrator) Orchestrate(ctx context.Context, source string, chunks []document.Chunk) (_ *document.Report, err error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.Orchestrate", trace.WithAttributes(
		attribute.String("document.name", source),
		attribute.Int("document.chunks", len(chunks)),
	))
	defer func() { telemetry.End(span, err) }()

	o.logger.Info("orchestration started", "name", source, "chunks", len(chunks), "concurrency", o.concurrency)
	start := time.Now()

	var summaries []document.ChunkSummary
	if o.concurrency > 1 && len(chunks) > 1 {
		summaries, err = o.dispatchConcurrent(ctx, chunks)
	} else {
		summaries, err = o.dispatchSequential(ctx, chunks)
	}
	if err != nil {
		o.logger.Error("orchestration aborted", "name", source, "error", err)
		return nil, err
	}

	o.logger.Info("orchestration completed", "name", source, "chunks", len(summaries),
		"duration_ms", time.Since(start).Milliseconds())
	return document.NewReport(source, summaries), nil
}

func (o *Orchestrator) dispatchSequential(ctx context.Context, chunks []document.Chunk) ([]document.ChunkSummary, error) {
	summaries := make([]document.ChunkSummary, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary, err := o.dispatch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// dispatchConcurrent keeps at most o.concurrency chunks in flight, stores
// results by index and cancels the rest on the first failure.
func (o *Orchestrator) dispatchConcurrent(ctx context.Context, chunks []document.Chunk) ([]document.ChunkSummary, error) {
	summaries := make([]document.ChunkSummary, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, err := o.dispatch(gctx, chunk)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, chunk document.Chunk) (_ document.ChunkSummary, err error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.dispatch", trace.WithAttributes(attribute.Int("chunk.index", chunk.Index)))
	defer func() { telemetry.End(span, err) }()

	summary, err := o.call(ctx, chunk)
	if err != nil {
		err = classify(ctx, chunk.Index, err)
		o.logger.Debug("chunk failed", "chunk_index", chunk.Index, "error", err)
		return document.ChunkSummary{}, err
	}
	if summary == nil {
		return document.ChunkSummary{}, &docerrors.InternalError{
			ChunkIndex: chunk.Index,
			Cause:      errors.New("backend returned no summary"),
		}
	}
	if summary.Index != chunk.Index {
		return document.ChunkSummary{}, &docerrors.InternalError{
			ChunkIndex: chunk.Index,
			Cause:      fmt.Errorf("backend answered for chunk %d", summary.Index),
		}
	}

	o.logger.Debug("chunk summarized", "chunk_index", chunk.Index, "word_count", summary.WordCount)
	return *summary, nil
}

func (o *Orchestrator) call(ctx context.Context, chunk document.Chunk) (summary *document.ChunkSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary, err = nil, fmt.Errorf("backend panicked: %v", r)
		}
	}()
	return o.backend.Summarize(ctx, chunk)
}

// classify maps a backend error onto the taxonomy. Errors already carrying a
// taxonomy type pass through; caller cancellation is returned unchanged.
func classify(ctx context.Context, index int, err error) error {
	var (
		unavailable *docerrors.BackendUnavailableError
		rejected    *docerrors.BackendRejectedError
		internal    *docerrors.InternalError
	)
	switch {
	case errors.As(err, &unavailable), errors.As(err, &rejected), errors.As(err, &internal):
		return err
	case errors.Is(err, docerrors.ErrInvalidChunk):
		return &docerrors.BackendRejectedError{ChunkIndex: index, Status: http.StatusUnprocessableEntity, Err: err}
	case ctx.Err() != nil && docerrors.IsCancellation(err):
		return err
	default:
		return &docerrors.InternalError{ChunkIndex: index, Cause: err}
	}
}
