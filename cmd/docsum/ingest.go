package main

import (
	"github.com/spf13/cobra"
	"github.com/sweetpotato0/docsum/server"
)

// IngestCmd returns the orchestrator service command.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run the ingestion service",
		Long:  "Serve POST /upload: validate a .txt upload, chunk it, summarize every chunk through SUMMARIZER_URL and return the report.",
		RunE:  runIngest,
	}
	cmd.Flags().String("addr", "", "listen address (overrides INGEST_ADDR)")
	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	orch := a.newOrchestrator(a.newBackendClient(), st)
	router := server.NewIngestRouter(orch,
		server.WithIngestLogger(a.component("ingest-http")),
		server.WithMaxUploadBytes(a.cfg.Ingest.MaxUploadBytes),
	)

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Ingest.Addr
	}
	return server.Serve(ctx, addr, router, a.component("server"))
}
