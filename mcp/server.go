package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/docsum/document"
	"github.com/sweetpotato0/docsum/pkg/logging"
	"github.com/sweetpotato0/docsum/summarizer"
)

// ToolName is the name of the summarization tool.
const ToolName = "summarize_chunk"

// SummarizeChunkInput are the tool arguments.
type SummarizeChunkInput struct {
	ChunkIndex int    `json:"chunk_index" jsonschema:"zero-based position of the chunk in its document"`
	Text       string `json:"text" jsonschema:"chunk text to summarize"`
}

// Option configures the server.
type Option func(*serverConfig)

type serverConfig struct {
	implementation sdkmcp.Implementation
	logger         *slog.Logger
}

// WithImplementation sets the server metadata advertised to clients.
func WithImplementation(name, version string) Option {
	return func(cfg *serverConfig) {
		if name != "" {
			cfg.implementation.Name = name
		}
		if version != "" {
			cfg.implementation.Version = version
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serverConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// NewServer returns an MCP server exposing svc as the summarize_chunk tool.
func NewServer(svc summarizer.Summarizer, opts ...Option) *sdkmcp.Server {
	cfg := serverConfig{
		implementation: sdkmcp.Implementation{Name: "docsum", Version: "0.1.0"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.WithComponent("mcp")
	}

	server := sdkmcp.NewServer(&cfg.implementation, nil)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolName,
		Description: "Summarize one chunk of a document in a single sentence and count its words.",
	}, summarizeHandler(svc, cfg.logger))
	return server
}

// Serve runs the server over stdio until the client disconnects or ctx is
// cancelled.
func Serve(ctx context.Context, server *sdkmcp.Server) error {
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}

func summarizeHandler(svc summarizer.Summarizer, logger *slog.Logger) sdkmcp.ToolHandlerFor[SummarizeChunkInput, document.ChunkSummary] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SummarizeChunkInput) (*sdkmcp.CallToolResult, document.ChunkSummary, error) {
		summary, err := svc.Summarize(ctx, document.Chunk{Index: in.ChunkIndex, Text: in.Text})
		if err != nil {
			logger.Warn("tool call failed", "tool", ToolName, "chunk_index", in.ChunkIndex, "error", err)
			return nil, document.ChunkSummary{}, err
		}
		raw, err := json.Marshal(summary)
		if err != nil {
			return nil, document.ChunkSummary{}, fmt.Errorf("encode summary: %w", err)
		}
		logger.Debug("tool call completed", "tool", ToolName, "chunk_index", in.ChunkIndex)
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(raw)}},
		}, *summary, nil
	}
}
