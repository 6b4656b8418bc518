package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <name>",
	Short: "Chronological per-game trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetAllPlayerGameStats(args[0])
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("no games found")
		return nil
	}

	aggregator.SortChronological(stats)
	report.PrintTrendTable(os.Stdout, stats)
	return nil
}
