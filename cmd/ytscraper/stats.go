package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mimayn/YT-FA-ASR-Downloader/internal/config"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/models"
	"github.com/mimayn/YT-FA-ASR-Downloader/internal/utils"
)

var statsCollection collectionFlags

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print ledger statistics for a collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats()
	},
}

func init() {
	statsCollection.register(statsCmd)
}

func runStats() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	col, err := statsCollection.collection()
	if err != nil {
		return err
	}

	layout := &utils.Layout{Root: cfg.DownloadRoot, Collection: col.Key()}
	if _, err := os.Stat(layout.DatabasePath()); err != nil {
		return fmt.Errorf("no ledger found for %s (expected %s)", col.Key(), layout.DatabasePath())
	}

	db, err := models.NewDatabase(layout.DatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Statistics for %s\n", col.Key())
	fmt.Printf("  total videos:    %d\n", stats.TotalVideos)
	fmt.Printf("  verified channel: %d\n", stats.VerifiedVideos)
	for status, count := range stats.ByStatus {
		name := string(status)
		if name == "" {
			name = "unknown"
		}
		fmt.Printf("  %-16s %d\n", name+":", count)
	}
	if stats.FirstScraped != nil && stats.LastScraped != nil {
		fmt.Printf("  first scraped:   %s\n", stats.FirstScraped.Format("2006-01-02 15:04"))
		fmt.Printf("  last scraped:    %s\n", stats.LastScraped.Format("2006-01-02 15:04"))
	}
	return nil
}
