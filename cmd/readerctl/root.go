package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var dbFlag string

	ctx := newCommandContext(&dbFlag)

	rootCmd := &cobra.Command{
		Use:           "readerctl",
		Short:         "Inspect and export reader annotations from a local store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Path to the sqlite annotation store (defaults to SQLITE_PATH or data/reader.db)")

	rootCmd.AddCommand(newNotesCommand(ctx))
	rootCmd.AddCommand(newHighlightsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))

	return rootCmd
}
