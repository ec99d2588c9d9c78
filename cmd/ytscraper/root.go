package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ytscraper",
	Short: "Resumable YouTube metadata, caption and media scraper",
	Long: `ytscraper discovers the videos of a channel or playlist, records them
in a per-collection ledger, and downloads the captions and media that are
still missing. Runs are resumable: interrupting and restarting never
repeats completed work.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}
