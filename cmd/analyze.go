package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/model"
)

const analyzeSystemPrompt = `You are a chess fair-play analyst. You are given structured data from a
tool that compares each played move with the engine's preferred move, and a question.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- High engine coincidence is evidence to investigate, never proof of cheating. Say so
  when the question asks for a verdict.
- Small samples (fewer than ~20 scored moves) are noisy; flag them.

Metrics glossary:
- Score: played-move evaluation minus best-move evaluation, in centipawns. 0 means the
  engine's first choice was played; more negative means a worse move.
- AE: mean score over a sample. Closer to 0 = closer to the engine.
- SD: population standard deviation of the scores.
- CV: fraction of scores at or above the closeness threshold (low_threshold).
- "?" scores: one side had a mate score, so the move is not on the centipawn scale.
- Book depth: plies played from the opening book before analysis began.
- Matched: the row passed the reporting filter of the most recent extraction.`

var (
	analyzeModel  string
	analyzeAPIKey string

	analyzePlayerSince string
	analyzePlayerLast  int
	analyzeGameMoves   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name> <question>",
	Short: "Analyze a player's stored games with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeGameCmd = &cobra.Command{
	Use:   "game <key-prefix> <question>",
	Short: "Analyze a single game with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeGame,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzePlayerCmd.Flags().StringVar(&analyzePlayerSince, "since", "", "only games on or after this date (YYYY.MM.DD)")
	analyzePlayerCmd.Flags().IntVar(&analyzePlayerLast, "last", 0, "only use the N most recent games")
	analyzeGameCmd.Flags().IntVar(&analyzeGameMoves, "worst", 10, "number of worst moves per side to include")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeGameCmd)
}

// filterStats keeps games dated on or after since, then the last N.
// Rows must be in chronological order.
func filterStats(stats []model.StoredPlayerStats, since string, last int) []model.StoredPlayerStats {
	var out []model.StoredPlayerStats
	for _, s := range stats {
		if since != "" && s.Date < since {
			continue
		}
		out = append(out, s)
	}
	if last > 0 && len(out) > last {
		out = out[len(out)-last:]
	}
	return out
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	name, question := args[0], args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetAllPlayerGameStats(name)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	aggregator.SortChronological(stats)
	stats = filterStats(stats, normaliseDate(analyzePlayerSince), analyzePlayerLast)
	if len(stats) == 0 {
		return fmt.Errorf("no data found for player %q (after filters)", name)
	}

	filters := map[string]interface{}{
		"since": analyzePlayerSince,
		"last":  analyzePlayerLast,
	}
	contextJSON, err := buildPlayerContext(aggregator.BuildPlayerAggregate(stats), stats, filters)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

func runAnalyzeGame(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	game, err := db.GetGameByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return fmt.Errorf("no game found with key prefix %q", args[0])
	}
	question := args[1]

	stats, err := db.GetPlayerGameStats(game.GameKey)
	if err != nil {
		return fmt.Errorf("query game stats: %w", err)
	}
	moves := make(map[model.Side][]model.MoveScoreRow, 2)
	for _, side := range []model.Side{model.White, model.Black} {
		rows, err := db.GetMoveScores(game.GameKey, side)
		if err != nil {
			return fmt.Errorf("query moves: %w", err)
		}
		moves[side] = rows
	}

	contextJSON, err := buildGameContext(game, stats, moves, analyzeGameMoves)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

// normaliseDate accepts YYYY-MM-DD as well as the PGN form YYYY.MM.DD.
func normaliseDate(s string) string {
	return strings.ReplaceAll(s, "-", ".")
}

// buildPlayerContext serialises a player's pooled and per-game data into compact JSON.
func buildPlayerContext(agg model.PlayerAggregate, stats []model.StoredPlayerStats, filters map[string]interface{}) (string, error) {
	type gameEntry struct {
		Date    string  `json:"date"`
		Side    string  `json:"side"`
		Result  string  `json:"result"`
		Scored  int     `json:"scored_moves"`
		AE      float64 `json:"ae"`
		SD      float64 `json:"sd"`
		CV      float64 `json:"cv"`
		Matched bool    `json:"matched"`
	}
	games := make([]gameEntry, 0, len(stats))
	for _, s := range stats {
		games = append(games, gameEntry{
			Date:    s.Date,
			Side:    s.Side.String(),
			Result:  s.Result,
			Scored:  s.NumScores,
			AE:      round2(s.AE),
			SD:      round2(s.SD),
			CV:      round2(s.CV),
			Matched: s.Matched,
		})
	}

	doc := map[string]interface{}{
		"subject":        "player",
		"player":         agg.Name,
		"games_analyzed": agg.Games,
		"filters":        filters,
		"overview": map[string]interface{}{
			"white_games":   agg.WhiteGames,
			"black_games":   agg.BlackGames,
			"scored_moves":  agg.Scores,
			"pooled_ae":     round2(agg.AE()),
			"pooled_cv":     round2(agg.CV()),
			"avg_sd":        round2(agg.AvgSD()),
			"matched_games": agg.Matched,
			"first_date":    agg.FirstDate,
			"last_date":     agg.LastDate,
		},
		"low_threshold": stats[0].LowThreshold,
		"games":         games,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// buildGameContext serialises a single game into compact JSON, including the
// worst comparable moves of each side.
func buildGameContext(game *model.GameSummary, stats []model.StoredPlayerStats, moves map[model.Side][]model.MoveScoreRow, worst int) (string, error) {
	type moveEntry struct {
		Ply        int    `json:"ply"`
		Played     string `json:"played"`
		Best       string `json:"best"`
		PlayedEval string `json:"played_eval"`
		BestEval   string `json:"best_eval"`
		Score      string `json:"score"`
	}
	type playerEntry struct {
		Name       string      `json:"name"`
		Side       string      `json:"side"`
		Scored     int         `json:"scored_moves"`
		AE         float64     `json:"ae"`
		SD         float64     `json:"sd"`
		CV         float64     `json:"cv"`
		Matched    bool        `json:"matched"`
		WorstMoves []moveEntry `json:"worst_moves"`
	}

	players := make([]playerEntry, 0, len(stats))
	for _, s := range stats {
		p := playerEntry{
			Name:    s.Name,
			Side:    s.Side.String(),
			Scored:  s.NumScores,
			AE:      round2(s.AE),
			SD:      round2(s.SD),
			CV:      round2(s.CV),
			Matched: s.Matched,
		}
		for _, m := range worstMoves(moves[s.Side], worst) {
			p.WorstMoves = append(p.WorstMoves, moveEntry{
				Ply: m.Ply, Played: m.Played, Best: m.Best,
				PlayedEval: m.PlayedEval, BestEval: m.BestEval, Score: m.Text,
			})
		}
		players = append(players, p)
	}

	doc := map[string]interface{}{
		"subject":      "game",
		"white":        game.White,
		"black":        game.Black,
		"date":         game.Date,
		"result":       game.Result,
		"book_depth":   game.BookDepth,
		"search_depth": game.SearchDepth,
		"engine":       game.Engine,
		"players":      players,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// worstMoves returns up to n comparable moves with the lowest scores, in ply order.
func worstMoves(rows []model.MoveScoreRow, n int) []model.MoveScoreRow {
	var out []model.MoveScoreRow
	for _, r := range rows {
		if r.Text != "?" {
			out = append(out, r)
		}
	}
	if n <= 0 || len(out) <= n {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	out = out[:n]
	sort.Slice(out, func(i, j int) bool { return out[i].Ply < out[j].Ply })
	return out
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*100) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
