package main

import (
	"github.com/spf13/cobra"
)

// RootCmd returns the docsum command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docsum",
		Short:         "Chunk text documents and summarize every chunk",
		Long:          "docsum splits plain-text documents into word chunks, summarizes each chunk and assembles an ordered report.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSlice("env-file", nil, "env files to load before reading the environment (default .env if present)")

	root.AddCommand(
		IngestCmd(),
		SummarizerCmd(),
		MCPCmd(),
		RunCmd(),
	)
	return root
}
