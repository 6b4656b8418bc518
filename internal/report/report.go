// Package report renders measurements as text records and terminal tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-chess-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// ShortKey abbreviates a game key for display.
func ShortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

func fmtFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "—"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// PrintGameSummary prints a one-line header for a stored game.
func PrintGameSummary(w io.Writer, g model.GameSummary) {
	fmt.Fprintf(w, "\n%s vs %s  |  Date: %s  |  Result: %s  |  Book: %d  |  Depth: %s  |  Engine: %s  |  Key: %s\n\n",
		g.White, g.Black, g.Date, g.Result, g.BookDepth, g.SearchDepth, g.Engine, ShortKey(g.GameKey))
}

// PrintGameList prints one row per stored game.
func PrintGameList(w io.Writer, games []model.GameSummary) {
	table := newTable(w)
	table.Header("KEY", "DATE", "WHITE", "BLACK", "RESULT", "BOOK", "DEPTH", "ENGINE", "PLIES", "HASH")
	for _, g := range games {
		table.Append(
			ShortKey(g.GameKey),
			g.Date,
			g.White,
			g.Black,
			g.Result,
			strconv.Itoa(g.BookDepth),
			g.SearchDepth,
			g.Engine,
			strconv.Itoa(g.AnalysedPlies),
			g.HashCode,
		)
	}
	table.Render()
}

// PrintPlayerTable prints the per-side statistics of one game.
// Rows whose name equals focus are marked with ">".
func PrintPlayerTable(w io.Writer, stats []model.StoredPlayerStats, focus string) {
	table := newTable(w)
	table.Header(" ", "NAME", "SIDE", "MOVES", "N", "AE", "SD", "CV", "LOW", "MATCHED")
	for _, s := range stats {
		marker := " "
		if focus != "" && s.Name == focus {
			marker = ">"
		}
		matched := ""
		if s.Matched {
			matched = "*"
		}
		table.Append(
			marker,
			s.Name,
			s.Side.String(),
			strconv.Itoa(s.NumMoves),
			strconv.Itoa(s.NumScores),
			fmtFloat(s.AE, 2),
			fmtFloat(s.SD, 1),
			fmtFloat(s.CV, 2),
			fmtFloat(s.LowThreshold, 1),
			matched,
		)
	}
	table.Render()
}

// PrintMoveTable prints the per-move drill-down of a game.
func PrintMoveTable(w io.Writer, rows []model.MoveScoreRow) {
	table := newTable(w)
	table.Header("PLY", "SIDE", "PLAYED", "EVAL", "BEST", "BEST_EVAL", "SCORE")
	for _, r := range rows {
		eval := r.PlayedEval
		if eval == "" {
			eval = "—"
		}
		table.Append(
			strconv.Itoa(r.Ply),
			r.Side.String(),
			r.Played,
			eval,
			r.Best,
			r.BestEval,
			r.Text,
		)
	}
	table.Render()
}

// PrintPlayerAggregate prints pooled statistics across all stored games.
func PrintPlayerAggregate(w io.Writer, aggs []model.PlayerAggregate) {
	table := newTable(w)
	table.Header("NAME", "GAMES", "W", "B", "MOVES", "AE", "AVG_SD", "CV", "MATCHED", "FIRST", "LAST")
	for _, a := range aggs {
		table.Append(
			a.Name,
			strconv.Itoa(a.Games),
			strconv.Itoa(a.WhiteGames),
			strconv.Itoa(a.BlackGames),
			strconv.Itoa(a.Scores),
			fmtFloat(a.AE(), 2),
			fmtFloat(a.AvgSD(), 1),
			fmtFloat(a.CV(), 2),
			strconv.Itoa(a.Matched),
			a.FirstDate,
			a.LastDate,
		)
	}
	table.Render()
}

// PrintTrendTable prints a player's games in chronological order with a
// running pooled AE and CV.
func PrintTrendTable(w io.Writer, rows []model.StoredPlayerStats) {
	table := newTable(w)
	table.Header("DATE", "GAME", "SIDE", "RES", "N", "AE", "SD", "CV", "RUN_AE", "RUN_CV")
	var n, sum, within int
	for _, r := range rows {
		n += r.NumScores
		sum += r.ScoreSum
		within += r.WithinCount
		runAE, runCV := math.NaN(), math.NaN()
		if n > 0 {
			runAE = float64(sum) / float64(n)
			runCV = float64(within) / float64(n)
		}
		table.Append(
			r.Date,
			ShortKey(r.GameKey),
			r.Side.String(),
			r.Result,
			strconv.Itoa(r.NumScores),
			fmtFloat(r.AE, 2),
			fmtFloat(r.SD, 1),
			fmtFloat(r.CV, 2),
			fmtFloat(runAE, 2),
			fmtFloat(runCV, 2),
		)
	}
	table.Render()
}

// PrintRawTable prints the result of an ad-hoc query followed by its row count.
func PrintRawTable(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}
