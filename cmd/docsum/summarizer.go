package main

import (
	"github.com/spf13/cobra"
	"github.com/sweetpotato0/docsum/server"
)

// SummarizerCmd returns the summarizer service command.
func SummarizerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarizer",
		Short: "Run the summarizer service",
		Long:  "Serve POST /process: summarize one chunk with the configured LLM provider, falling back to its first sentence.",
		RunE:  runSummarizer,
	}
	cmd.Flags().String("addr", "", "listen address (overrides SUMMARIZER_ADDR)")
	return cmd
}

func runSummarizer(cmd *cobra.Command, _ []string) error {
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
	router := server.NewSummarizerRouter(svc, a.component("summarizer-http"))

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Summarizer.Addr
	}
	return server.Serve(ctx, addr, router, a.component("server"))
}
