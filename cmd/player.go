package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/report"
)

// playerCmd is the cobra command for cross-game aggregate analysis of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Cross-game analysis for one or more players",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

// runPlayer loads every stored game for each name and prints the pooled aggregates.
func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var aggs []model.PlayerAggregate
	for _, name := range args {
		stats, err := db.GetAllPlayerGameStats(name)
		if err != nil {
			return fmt.Errorf("query stats for %s: %w", name, err)
		}
		if len(stats) == 0 {
			fmt.Fprintf(os.Stderr, "No data found for player %q\n", name)
			continue
		}
		aggs = append(aggs, aggregator.BuildPlayerAggregate(stats))
	}

	if len(aggs) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stdout)
	report.PrintPlayerAggregate(os.Stdout, aggs)
	return nil
}
