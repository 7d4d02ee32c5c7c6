package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sweetpotato0/docsum/document"
	"github.com/sweetpotato0/docsum/pkg/logging"
	"github.com/sweetpotato0/docsum/summarizer"
)

// SummarizerServiceName identifies the summarizer in health payloads.
const SummarizerServiceName = "processor-service"

// ChunkRequest is the wire request for one chunk.
type ChunkRequest struct {
	ChunkIndex *int   `json:"chunk_index" binding:"required,gte=0"`
	Text       string `json:"text" binding:"notblank"`
}

// NewSummarizerRouter exposes svc on POST /process and GET /health.
func NewSummarizerRouter(svc summarizer.Summarizer, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = logging.WithComponent("summarizer-http")
	}
	engine := newEngine(logger)
	engine.GET("/health", healthHandler(SummarizerServiceName))
	engine.POST("/process", processHandler(svc, logger))
	return engine
}

func processHandler(svc summarizer.Summarizer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChunkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
			return
		}

		summary, err := svc.Summarize(c.Request.Context(), document.Chunk{
			Index: *req.ChunkIndex,
			Text:  req.Text,
		})
		if err != nil {
			logger.Warn("chunk not summarized", "chunk_index", *req.ChunkIndex, "error", err)
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
