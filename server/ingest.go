package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sweetpotato0/docsum/document"
	"github.com/sweetpotato0/docsum/pkg/logging"
)

const (
	// IngestServiceName identifies the orchestrator in health payloads.
	IngestServiceName = "ingestion-service"

	DefaultMaxUploadBytes int64 = 10 << 20
)

// Ingester turns a named upload into a report.
type Ingester interface {
	Ingest(ctx context.Context, name string, data []byte) (*document.Report, error)
}

// IngestOption configures the ingest router.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	logger         *slog.Logger
	maxUploadBytes int64
}

// WithIngestLogger sets the logger.
func WithIngestLogger(logger *slog.Logger) IngestOption {
	return func(o *ingestOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxUploadBytes caps the accepted upload size.
func WithMaxUploadBytes(n int64) IngestOption {
	return func(o *ingestOptions) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// NewIngestRouter exposes ing on POST /upload (multipart field "file") and
// GET /health.
func NewIngestRouter(ing Ingester, opts ...IngestOption) *gin.Engine {
	o := &ingestOptions{maxUploadBytes: DefaultMaxUploadBytes}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.WithComponent("ingest-http")
	}

	engine := newEngine(o.logger)
	engine.MaxMultipartMemory = o.maxUploadBytes
	engine.GET("/health", healthHandler(IngestServiceName))
	engine.POST("/upload", uploadHandler(ing, o))
	return engine
}

func uploadHandler(ing Ingester, o *ingestOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Detail: "multipart field \"file\" is required"})
			return
		}
		if header.Size > o.maxUploadBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Detail: fmt.Sprintf("file exceeds %d bytes", o.maxUploadBytes),
			})
			return
		}

		f, err := header.Open()
		if err != nil {
			abortWithError(c, fmt.Errorf("open upload: %w", err))
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			abortWithError(c, fmt.Errorf("read upload: %w", err))
			return
		}

		report, err := ing.Ingest(c.Request.Context(), header.Filename, data)
		if err != nil {
			o.logger.Warn("ingestion failed", "name", header.Filename, "error", err)
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
