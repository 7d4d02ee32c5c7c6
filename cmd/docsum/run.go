package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/docsum/orchestrator"
	"github.com/sweetpotato0/docsum/store"
)

// RunCmd returns the one-shot pipeline command.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Summarize one file and print the report",
		Long:  "Run the whole pipeline for FILE and write the report JSON to stdout. Chunks are summarized in-process unless --remote is set.",
		Args:  cobra.ExactArgs(1),
		RunE:  runOnce,
	}
	cmd.Flags().Bool("remote", false, "send chunks to SUMMARIZER_URL instead of summarizing in-process")
	cmd.Flags().Bool("persist", false, "also save the report to the configured store")
	cmd.Flags().Int("chunk-size", 0, "words per chunk (overrides CHUNK_SIZE)")
	return cmd
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if size, _ := cmd.Flags().GetInt("chunk-size"); size > 0 {
		a.cfg.Ingest.ChunkSize = size
	}

	var b orchestrator.Backend
	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		b = a.newBackendClient()
	} else {
		svc, err := a.newSummarizer(ctx)
		if err != nil {
			return err
		}
		b = svc
	}

	var st store.Store
	if persist, _ := cmd.Flags().GetBool("persist"); persist {
		st, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
	}

	report, err := a.newOrchestrator(b, st).Ingest(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
