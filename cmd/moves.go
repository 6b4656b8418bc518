package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/report"
)

var (
	movesMateOnly bool
	movesMinLoss  int
)

// movesCmd is the cobra command for per-move drill-down for one side of one game.
var movesCmd = &cobra.Command{
	Use:   "moves <key-prefix> <W|B>",
	Short: "Per-move drill-down for one side of one game",
	Args:  cobra.ExactArgs(2),
	RunE:  runMoves,
}

func init() {
	movesCmd.Flags().BoolVar(&movesMateOnly, "mate-only", false, "only show moves where either side had a mate score")
	movesCmd.Flags().IntVar(&movesMinLoss, "min-loss", 0, "only show comparable moves losing at least this many centipawns")
}

// filterMoves applies --mate-only and --min-loss.
func filterMoves(rows []model.MoveScoreRow, mateOnly bool, minLoss int) []model.MoveScoreRow {
	var out []model.MoveScoreRow
	for _, r := range rows {
		if mateOnly && !r.BestIsMate && !r.PlayedIsMate {
			continue
		}
		if minLoss > 0 {
			score := model.PlayedMoveScore{Value: r.Value, BestIsMate: r.BestIsMate, PlayedIsMate: r.PlayedIsMate}
			if !score.Comparable() || -r.Value < minLoss {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func runMoves(cmd *cobra.Command, args []string) error {
	side, ok := model.ParseSide(args[1])
	if !ok {
		return fmt.Errorf("invalid side %q (want W or B)", args[1])
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	game, err := db.GetGameByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if game == nil {
		fmt.Fprintf(os.Stderr, "No game found with key prefix %q\n", args[0])
		return nil
	}

	rows, err := db.GetMoveScores(game.GameKey, side)
	if err != nil {
		return fmt.Errorf("get move scores: %w", err)
	}
	rows = filterMoves(rows, movesMateOnly, movesMinLoss)

	report.PrintGameSummary(os.Stdout, *game)
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No moves match.")
		return nil
	}
	report.PrintMoveTable(os.Stdout, rows)
	return nil
}
