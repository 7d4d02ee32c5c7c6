package main

import (
	"github.com/spf13/cobra"
	"github.com/sweetpotato0/docsum/mcp"
)

// MCPCmd returns the MCP stdio server command.
func MCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the summarizer as an MCP tool over stdio",
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	svc, err := a.newSummarizer(ctx)
	if err != nil {
		return err
	}
	server := mcp.NewServer(svc,
		mcp.WithImplementation(a.cfg.App.Name, a.cfg.App.Version),
		mcp.WithLogger(a.component("mcp")),
	)
	a.logger.Info("mcp server starting", "tool", mcp.ToolName)
	return mcp.Serve(ctx, server)
}
