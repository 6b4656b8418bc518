package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/scoring"
)

// ErrEmptySample is returned when statistics are requested over no scores.
var ErrEmptySample = errors.New("empty score sample")

// SideSource selects how a player's colour label is derived.
type SideSource int

const (
	// SideFromColour labels a player by the side whose moves were scored.
	SideFromColour SideSource = iota
	// SideFromWhiteTag labels a player white when their name equals the
	// White tag, so identically named opponents are both labelled white.
	SideFromWhiteTag
)

// ParseSideSource accepts "colour"/"color" and "white-tag".
func ParseSideSource(s string) (SideSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "colour", "color":
		return SideFromColour, nil
	case "white-tag", "whitetag":
		return SideFromWhiteTag, nil
	}
	return SideFromColour, fmt.Errorf("unknown side source %q (want colour or white-tag)", s)
}

func (s SideSource) String() string {
	if s == SideFromWhiteTag {
		return "white-tag"
	}
	return "colour"
}

// IsWhite reports the colour label for the player of side in game.
func (s SideSource) IsWhite(game model.GameRecord, side model.Side) bool {
	if s == SideFromWhiteTag {
		return strings.EqualFold(game.Player(side), game.Tag("White"))
	}
	return side == model.White
}

// Summary holds the three statistics computed over a score sample.
type Summary struct {
	AE float64
	SD float64
	CV float64
}

// Compute returns the mean (AE), population standard deviation (SD) and the
// fraction of scores at or above lowThreshold (CV).
func Compute(scores []int, lowThreshold float64) (Summary, error) {
	if len(scores) == 0 {
		return Summary{}, ErrEmptySample
	}
	s := model.PlayerGameStats{Scores: scores, CV: closeFraction(scores, lowThreshold)}
	return Summary{AE: s.AE(), SD: s.SD(), CV: s.CV}, nil
}

func closeFraction(scores []int, lowThreshold float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	within := 0
	for _, v := range scores {
		if float64(v) >= lowThreshold {
			within++
		}
	}
	return float64(within) / float64(len(scores))
}

// BuildPlayerStats scores one side of a game and assembles its statistics.
// A scoring failure is returned as-is; an empty numeric sample yields
// ErrEmptySample alongside the partially filled record.
func BuildPlayerStats(game model.GameRecord, side model.Side, lowThreshold float64, src SideSource) (model.PlayerGameStats, []scoring.MoveScore, error) {
	ps := model.PlayerGameStats{
		GameKey:      game.Key,
		Name:         game.Player(side),
		Side:         side,
		IsWhite:      src.IsWhite(game, side),
		Date:         game.Tag("Date"),
		Result:       game.Tag("Result"),
		HashCode:     game.Tag("HashCode"),
		BookDepth:    game.BookDepth(),
		BookDepthTag: game.Tag("BookDepth"),
		SearchDepth:  game.Analysis.SearchDepth,
		LowThreshold: lowThreshold,
	}
	moves, err := scoring.ScoreMoves(game, side)
	if err != nil {
		return ps, nil, err
	}
	samples := scoring.Samples(moves)
	ps.Scores = samples.Numeric
	ps.TextScores = samples.Text
	ps.CV = closeFraction(ps.Scores, lowThreshold)
	if len(ps.Scores) == 0 {
		return ps, moves, ErrEmptySample
	}
	return ps, moves, nil
}

// Stored converts a computed record to its persisted form.
func Stored(ps model.PlayerGameStats) model.StoredPlayerStats {
	return model.StoredPlayerStats{
		GameKey:      ps.GameKey,
		Name:         ps.Name,
		Side:         ps.Side,
		IsWhite:      ps.IsWhite,
		Date:         ps.Date,
		Result:       ps.Result,
		HashCode:     ps.HashCode,
		NumScores:    ps.NumScores(),
		NumMoves:     len(ps.TextScores),
		ScoreSum:     ps.ScoreSum(),
		WithinCount:  ps.WithinCount(),
		AE:           ps.AE(),
		SD:           ps.SD(),
		CV:           ps.CV,
		LowThreshold: ps.LowThreshold,
		Matched:      ps.Matched,
	}
}

// MoveRows converts resolved moves to storage rows.
func MoveRows(gameKey string, side model.Side, moves []scoring.MoveScore) []model.MoveScoreRow {
	out := make([]model.MoveScoreRow, 0, len(moves))
	for _, m := range moves {
		out = append(out, model.MoveScoreRow{
			GameKey:      gameKey,
			Ply:          m.Ply,
			Side:         side,
			Played:       m.Played,
			Best:         m.Best,
			PlayedEval:   m.PlayedEval,
			BestEval:     m.BestEval,
			Value:        m.Score.Value,
			BestIsMate:   m.Score.BestIsMate,
			PlayedIsMate: m.Score.PlayedIsMate,
			Text:         m.Text(),
		})
	}
	return out
}

// BuildPlayerAggregate pools per-game rows for one player. Rows must be non-empty.
func BuildPlayerAggregate(rows []model.StoredPlayerStats) model.PlayerAggregate {
	agg := model.PlayerAggregate{Name: rows[0].Name}
	for _, r := range rows {
		agg.Games++
		if r.IsWhite {
			agg.WhiteGames++
		} else {
			agg.BlackGames++
		}
		agg.Scores += r.NumScores
		agg.ScoreSum += r.ScoreSum
		agg.WithinCount += r.WithinCount
		agg.SDSum += r.SD
		if r.Matched {
			agg.Matched++
		}
		if r.Date != "" && (agg.FirstDate == "" || r.Date < agg.FirstDate) {
			agg.FirstDate = r.Date
		}
		if r.Date > agg.LastDate {
			agg.LastDate = r.Date
		}
	}
	return agg
}

// SortChronological orders rows by date, then game key.
func SortChronological(rows []model.StoredPlayerStats) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].GameKey < rows[j].GameKey
	})
}
