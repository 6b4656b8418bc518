package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/report"
	"github.com/pable/go-chess-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cGreeting.Println("chessmetrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("chessmetrics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			shellList(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <key-prefix> [--player <name>]")
				continue
			}
			prefix := args[0]
			var player string
			for i := 1; i+1 < len(args); i++ {
				if args[i] == "--player" {
					player = strings.Join(args[i+1:], " ")
					break
				}
			}
			shellShow(db, prefix, player)
		case "moves":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: moves <key-prefix> <W|B> [min-loss]")
				continue
			}
			minLoss := 0
			if len(args) > 2 {
				minLoss, _ = strconv.Atoi(args[2])
			}
			shellMoves(db, args[0], args[1], minLoss)
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <name>")
				continue
			}
			// Names usually contain spaces, so the rest of the line is one name.
			shellPlayer(db, strings.Join(args, " "))
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored games"},
		{"show <key-prefix>", "show a game's per-player stats"},
		{"show <key-prefix> --player <name>", "same, highlighting one player"},
		{"moves <key-prefix> <W|B> [min-loss]", "per-move drill-down for one side"},
		{"player <name>", "cross-game analysis for one player"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(db *storage.DB) {
	games, err := db.ListGames()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(games) == 0 {
		cMuted.Println("No games stored yet.")
		return
	}
	cHeader.Fprintf(os.Stdout, "%-14s  %-10s  %-24s  %-24s  %7s  %s\n",
		"KEY", "DATE", "WHITE", "BLACK", "RESULT", "PLIES")
	cMuted.Fprintf(os.Stdout, "%-14s  %-10s  %-24s  %-24s  %7s  %s\n",
		"──────────────", "──────────", "────────────────────────", "────────────────────────", "───────", "─────")
	for _, g := range games {
		fmt.Fprintf(os.Stdout, "%-14s  %-10s  %-24s  %-24s  %7s  %d\n",
			report.ShortKey(g.GameKey), g.Date, g.White, g.Black, g.Result, g.AnalysedPlies)
	}
}

func shellShow(db *storage.DB, prefix, player string) {
	game, err := db.GetGameByPrefix(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if game == nil {
		fmt.Fprintf(os.Stderr, "no game found with prefix %q\n", prefix)
		return
	}
	stats, err := db.GetPlayerGameStats(game.GameKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintGameSummary(os.Stdout, *game)
	report.PrintPlayerTable(os.Stdout, stats, player)
}

func shellMoves(db *storage.DB, prefix, sideArg string, minLoss int) {
	side, ok := model.ParseSide(sideArg)
	if !ok {
		cError.Fprintf(os.Stderr, "invalid side %q\n", sideArg)
		return
	}
	game, err := db.GetGameByPrefix(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if game == nil {
		fmt.Fprintf(os.Stderr, "no game found with prefix %q\n", prefix)
		return
	}
	rows, err := db.GetMoveScores(game.GameKey, side)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintMoveTable(os.Stdout, filterMoves(rows, false, minLoss))
}

func shellPlayer(db *storage.DB, name string) {
	stats, err := db.GetAllPlayerGameStats(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(stats) == 0 {
		fmt.Fprintf(os.Stderr, "no data for player %q\n", name)
		return
	}

	fmt.Fprintln(os.Stdout)
	report.PrintPlayerAggregate(os.Stdout, []model.PlayerAggregate{aggregator.BuildPlayerAggregate(stats)})
	fmt.Fprintln(os.Stdout)
	cHeader.Fprintf(os.Stdout, "--- Trend: %s ---\n", name)
	aggregator.SortChronological(stats)
	report.PrintTrendTable(os.Stdout, stats)
}
