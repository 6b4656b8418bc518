package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL statement and print the rows as a table.

Tables:
  analysis_files(hash, path, games, skipped, ingested_at)
  games(game_key, file_hash, white, black, game_date, result, hash_code,
    book_depth, search_depth, engine, analysed_plies)
  player_game_stats(game_key, side, name, is_white, game_date, result, hash_code,
    num_scores, num_moves, score_sum, within_count, ae, sd, cv, low_threshold, matched)
  move_scores(game_key, ply, side, played, best, played_eval, best_eval,
    value, best_is_mate, played_is_mate, score_text)
  runs(id, started_at, configuration, files, games, reported)

side is 'W' or 'B'. player_game_stats.name has a NOCASE index; add COLLATE NOCASE
to use it. Example:

  chessmetrics sql "SELECT name, COUNT(*), AVG(ae) FROM player_game_stats
                    WHERE matched = 1 GROUP BY name COLLATE NOCASE"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(strings.Join(args, " "))
	if err != nil {
		return err
	}
	report.PrintRawTable(os.Stdout, cols, rows)
	return nil
}
