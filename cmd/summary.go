package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about all games stored in the database:
game and file counts, date range, most active players, result distribution
and the most recent extraction runs.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetDBOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalGames == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'chessmetrics extract --store <games.xml>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Games stored  : %s\n", humanize.Comma(int64(ov.TotalGames)))
	fmt.Fprintf(os.Stdout, "  Files         : %s\n", humanize.Comma(int64(ov.TotalFiles)))
	fmt.Fprintf(os.Stdout, "  Date range    : %s → %s\n", ov.EarliestDate, ov.LatestDate)
	fmt.Fprintf(os.Stdout, "  Players seen  : %s\n", humanize.Comma(int64(ov.UniquePlayers)))
	fmt.Fprintf(os.Stdout, "  Scored moves  : %s\n", humanize.Comma(int64(ov.TotalMoves)))
	fmt.Fprintf(os.Stdout, "  Matched rows  : %s\n", humanize.Comma(int64(ov.MatchedRows)))
	if fi, err := os.Stat(dbPath); err == nil {
		fmt.Fprintf(os.Stdout, "  Database size : %s\n", humanize.Bytes(uint64(fi.Size())))
	}

	// Most active players.
	players, err := db.GetTopPlayersByGames(10)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	pt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	pt.Header("NAME", "GAMES", "AE", "CV", "MATCHED")
	for _, p := range players {
		pt.Append(
			p.Name,
			fmt.Sprintf("%d", p.Games),
			fmt.Sprintf("%.2f", p.AvgAE),
			fmt.Sprintf("%.2f", p.AvgCV),
			fmt.Sprintf("%d", p.Matched),
		)
	}
	pt.Render()

	results, err := db.GetResultCounts()
	if err != nil {
		return fmt.Errorf("get results: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Results ---\n\n")
	rt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	rt.Header("RESULT", "GAMES")
	for _, r := range results {
		rt.Append(r.Result, fmt.Sprintf("%d", r.Games))
	}
	rt.Render()

	// Recent runs, shown only once any were stored.
	runs, err := db.ListRuns(5)
	if err != nil {
		return fmt.Errorf("get runs: %w", err)
	}
	if len(runs) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Recent Runs ---\n\n")
		ut := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
			Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
		}))
		ut.Header("RUN", "STARTED", "FILES", "GAMES", "REPORTED", "CRITERIA")
		for _, r := range runs {
			ut.Append(report.ShortKey(r.ID), r.StartedAt, fmt.Sprintf("%d", r.Files), fmt.Sprintf("%d", r.Games),
				fmt.Sprintf("%d", r.Reported), r.Configuration)
		}
		ut.Render()
	}

	return nil
}
