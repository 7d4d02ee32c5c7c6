package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sweetpotato0/docsum/document"
	docerrors "github.com/sweetpotato0/docsum/errors"
	"github.com/sweetpotato0/docsum/pkg/logging"
	"github.com/sweetpotato0/docsum/summarizer"
)

func echoBackend(calls *[]int, mu *sync.Mutex) BackendFunc {
	return func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
		if mu != nil {
			mu.Lock()
			*calls = append(*calls, chunk.Index)
			mu.Unlock()
		}
		return &document.ChunkSummary{
			Index:     chunk.Index,
			Summary:   summarizer.FirstSentence(chunk.Text),
			WordCount: document.CountWords(chunk.Text),
		}, nil
	}
}

func chunksOf(n int) []document.Chunk {
	chunks := make([]document.Chunk, n)
	for i := range chunks {
		chunks[i] = document.Chunk{Index: i, Text: fmt.Sprintf("chunk %d text. more", i)}
	}
	return chunks
}

func wordsText(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

type recordingPersister struct {
	source string
	report *document.Report
	err    error
}

func (p *recordingPersister) Save(ctx context.Context, source string, report *document.Report) (string, error) {
	p.source = source
	p.report = report
	return source + ".json", p.err
}

func TestOrchestrateSequentialOrder(t *testing.T) {
	var (
		calls []int
		mu    sync.Mutex
	)
	o := New(echoBackend(&calls, &mu), WithLogger(logging.Discard()))

	report, err := o.Orchestrate(context.Background(), "doc.txt", chunksOf(5))
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}
	if report.TotalChunks != 5 || len(report.Summaries) != 5 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for i, s := range report.Summaries {
		if s.Index != i {
			t.Fatalf("summary %d has index %d", i, s.Index)
		}
		if s.WordCount != 4 {
			t.Fatalf("summary %d word count %d", i, s.WordCount)
		}
	}
	for i, idx := range calls {
		if idx != i {
			t.Fatalf("backend called out of order: %v", calls)
		}
	}
}

func TestOrchestrateConcurrentPreservesIndexOrder(t *testing.T) {
	var inFlight, peak atomic.Int32
	backend := BackendFunc(func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		// later chunks finish first
		time.Sleep(time.Duration(10-chunk.Index) * time.Millisecond)
		return &document.ChunkSummary{Index: chunk.Index, Summary: "s", WordCount: 1}, nil
	})
	o := New(backend, WithConcurrency(3), WithLogger(logging.Discard()))

	report, err := o.Orchestrate(context.Background(), "doc.txt", chunksOf(10))
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}
	for i, s := range report.Summaries {
		if s.Index != i {
			t.Fatalf("summary %d has index %d", i, s.Index)
		}
	}
	if peak.Load() > 3 {
		t.Fatalf("concurrency bound exceeded: %d", peak.Load())
	}
}

func TestOrchestrateConcurrentCancelsOnFailure(t *testing.T) {
	var cancelled atomic.Int32
	backend := BackendFunc(func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
		if chunk.Index == 0 {
			time.Sleep(5 * time.Millisecond)
			return nil, &docerrors.BackendRejectedError{ChunkIndex: 0, Status: http.StatusInternalServerError}
		}
		select {
		case <-ctx.Done():
			cancelled.Add(1)
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &document.ChunkSummary{Index: chunk.Index}, nil
		}
	})
	o := New(backend, WithConcurrency(4), WithLogger(logging.Discard()))

	start := time.Now()
	report, err := o.Orchestrate(context.Background(), "doc.txt", chunksOf(4))
	if report != nil {
		t.Fatalf("expected no report on failure")
	}
	var rejected *docerrors.BackendRejectedError
	if !errors.As(err, &rejected) || rejected.Status != http.StatusInternalServerError {
		t.Fatalf("expected the first terminal error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("in-flight chunks were not cancelled")
	}
	if cancelled.Load() > 3 {
		t.Fatalf("unexpected cancellation count %d", cancelled.Load())
	}
}

func TestOrchestratePartialFailureReturnsNoReport(t *testing.T) {
	var (
		calls []int
		mu    sync.Mutex
	)
	inner := echoBackend(&calls, &mu)
	backend := BackendFunc(func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
		if chunk.Index == 2 {
			mu.Lock()
			calls = append(calls, chunk.Index)
			mu.Unlock()
			return nil, &docerrors.BackendUnavailableError{ChunkIndex: 2, Err: context.DeadlineExceeded}
		}
		return inner(ctx, chunk)
	})
	o := New(backend, WithLogger(logging.Discard()))

	report, err := o.Orchestrate(context.Background(), "doc.txt", chunksOf(3))
	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}
	if !errors.Is(err, docerrors.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected chunks 0..2 to be dispatched, got %v", calls)
	}
}

func TestOrchestrateClassifiesErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend BackendFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "invalid chunk is a rejection",
			backend: func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
				return nil, fmt.Errorf("validate: %w", docerrors.ErrInvalidChunk)
			},
			check: func(t *testing.T, err error) {
				var rejected *docerrors.BackendRejectedError
				if !errors.As(err, &rejected) || rejected.Status != http.StatusUnprocessableEntity {
					t.Fatalf("expected 422 rejection, got %v", err)
				}
			},
		},
		{
			name: "unexpected error is internal",
			backend: func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
				return nil, errors.New("decoder exploded")
			},
			check: func(t *testing.T, err error) {
				var internal *docerrors.InternalError
				if !errors.As(err, &internal) || internal.ChunkIndex != 0 {
					t.Fatalf("expected internal error for chunk 0, got %v", err)
				}
			},
		},
		{
			name: "panic is internal",
			backend: func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
				panic("nil map")
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, docerrors.ErrInternal) {
					t.Fatalf("expected ErrInternal, got %v", err)
				}
			},
		},
		{
			name: "index mismatch is internal",
			backend: func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
				return &document.ChunkSummary{Index: chunk.Index + 7}, nil
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, docerrors.ErrInternal) {
					t.Fatalf("expected ErrInternal, got %v", err)
				}
			},
		},
		{
			name: "nil summary is internal",
			backend: func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
				return nil, nil
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, docerrors.ErrInternal) {
					t.Fatalf("expected ErrInternal, got %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(tt.backend, WithLogger(logging.Discard()))
			report, err := o.Orchestrate(context.Background(), "doc.txt", chunksOf(1))
			if report != nil {
				t.Fatalf("expected no report")
			}
			tt.check(t, err)
		})
	}
}

func TestOrchestrateCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := BackendFunc(func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
		cancel()
		return nil, ctx.Err()
	})
	o := New(backend, WithLogger(logging.Discard()))

	if _, err := o.Orchestrate(ctx, "doc.txt", chunksOf(2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIngestRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"whitespace only", "a.txt", []byte("  \n\t  "), docerrors.ErrEmptyDocument},
		{"empty", "a.txt", nil, docerrors.ErrEmptyDocument},
		{"wrong extension", "a.pdf", []byte("hello"), docerrors.ErrUnsupportedType},
		{"bad utf-8", "a.txt", []byte{0xff, 0xfe, 0x41}, docerrors.ErrInvalidEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			backend := BackendFunc(func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
				called = true
				return nil, nil
			})
			persister := &recordingPersister{}
			o := New(backend, WithPersister(persister), WithLogger(logging.Discard()))

			report, err := o.Ingest(context.Background(), tt.file, tt.data)
			if report != nil {
				t.Fatalf("expected no report")
			}
			if !errors.Is(err, tt.want) || !errors.Is(err, docerrors.ErrInvalidInput) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if called {
				t.Fatalf("backend must not be called for invalid input")
			}
			if persister.report != nil {
				t.Fatalf("nothing should be persisted")
			}
		})
	}
}

func TestIngestChunksSummarizesAndPersists(t *testing.T) {
	persister := &recordingPersister{}
	o := New(echoBackend(nil, nil), WithChunkSize(10), WithPersister(persister), WithLogger(logging.Discard()))

	report, err := o.Ingest(context.Background(), "notes.txt", []byte(wordsText(25)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.SourceName != "notes.txt" || report.TotalChunks != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Summaries[2].WordCount != 5 {
		t.Fatalf("expected last chunk to hold 5 words, got %d", report.Summaries[2].WordCount)
	}
	if persister.source != "notes.txt" || persister.report != report {
		t.Fatalf("report was not persisted")
	}
}

func TestIngestPersistFailure(t *testing.T) {
	persister := &recordingPersister{err: errors.New("disk full")}
	o := New(echoBackend(nil, nil), WithPersister(persister), WithLogger(logging.Discard()))

	report, err := o.Ingest(context.Background(), "notes.txt", []byte("Some text."))
	if report != nil || err == nil {
		t.Fatalf("expected persistence failure to abort, got %v / %v", report, err)
	}
}

func TestIngestWithInProcessSummarizer(t *testing.T) {
	svc := summarizer.New(summarizer.WithLogger(logging.Discard()))
	o := New(svc, WithChunkSize(4), WithLogger(logging.Discard()))

	report, err := o.Ingest(context.Background(), "story.txt", []byte("Hello world. Second sentence. Third one here."))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.TotalChunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", report.TotalChunks)
	}
	if report.Summaries[0].Summary != "Hello world" {
		t.Fatalf("unexpected first summary %q", report.Summaries[0].Summary)
	}
	if report.Summaries[1].Summary != "Third one here" {
		t.Fatalf("unexpected second summary %q", report.Summaries[1].Summary)
	}
}

func TestInProcessInvalidChunkMatchesRemoteStatus(t *testing.T) {
	svc := summarizer.New(summarizer.WithLogger(logging.Discard()))
	o := New(svc, WithLogger(logging.Discard()))

	_, err := o.Orchestrate(context.Background(), "doc.txt", []document.Chunk{{Index: 0, Text: "   "}})
	if err == nil {
		t.Fatalf("expected blank chunk to fail")
	}
	remote := &docerrors.BackendRejectedError{ChunkIndex: 0, Status: http.StatusUnprocessableEntity, Body: "invalid chunk"}
	got, want := docerrors.HTTPStatus(err), docerrors.HTTPStatus(remote)
	if got != want {
		t.Fatalf("in-process status %d, remote status %d", got, want)
	}
	if got != http.StatusBadGateway {
		t.Fatalf("expected %d, got %d", http.StatusBadGateway, got)
	}
}

type fixedChunker struct {
	chunks []document.Chunk
	err    error
	doc    document.Document
}

func (c *fixedChunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	c.doc = doc
	return c.chunks, c.err
}

func TestIngestUsesConfiguredChunker(t *testing.T) {
	chunker := &fixedChunker{chunks: chunksOf(3)}
	var (
		calls []int
		mu    sync.Mutex
	)
	o := New(echoBackend(&calls, &mu), WithChunker(chunker), WithChunkSize(1), WithLogger(logging.Discard()))

	report, err := o.Ingest(context.Background(), "notes.txt", []byte("One short sentence."))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if chunker.doc.Name != "notes.txt" || chunker.doc.Content != "One short sentence." {
		t.Fatalf("chunker saw %+v", chunker.doc)
	}
	if report.TotalChunks != 3 || len(calls) != 3 {
		t.Fatalf("expected the chunker's 3 chunks to be summarized, got %d (%v)", report.TotalChunks, calls)
	}
}

func TestIngestChunkerFailureSkipsBackend(t *testing.T) {
	boom := errors.New("tokenizer offline")
	called := false
	o := New(BackendFunc(func(ctx context.Context, chunk document.Chunk) (*document.ChunkSummary, error) {
		called = true
		return nil, nil
	}), WithChunker(&fixedChunker{err: boom}), WithLogger(logging.Discard()))

	report, err := o.Ingest(context.Background(), "notes.txt", []byte("Some text."))
	if report != nil || !errors.Is(err, boom) {
		t.Fatalf("expected chunker error, got %v / %v", report, err)
	}
	if called {
		t.Fatalf("backend must not be called when chunking fails")
	}
}
