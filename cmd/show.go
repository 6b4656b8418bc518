package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/report"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <key-prefix>",
	Short: "Show stored per-player stats for a game by key prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight player name")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	game, err := db.GetGameByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if game == nil {
		fmt.Fprintf(os.Stderr, "No game found with key prefix %q\n", prefix)
		return nil
	}

	stats, err := db.GetPlayerGameStats(game.GameKey)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}

	report.PrintGameSummary(os.Stdout, *game)
	if len(stats) == 0 {
		fmt.Fprintln(os.Stdout, "No scorable sides stored for this game.")
		return nil
	}
	report.PrintPlayerTable(os.Stdout, stats, showPlayer)
	return nil
}
