// Package scoring compares each played move against the engine's preferred
// move and turns a game's analysis into per-side score samples.
package scoring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pable/go-chess-metrics/internal/model"
)

var (
	ErrNoEvaluations = errors.New("no evaluations")
	ErrMoveNotFound  = errors.New("played move not found in evaluations")
	ErrFormat        = errors.New("format error")
)

// ScoringError reports why a played move could not be scored.
type ScoringError struct {
	Move       string
	Candidates []string
	Value      string
	Err        error
}

func (e *ScoringError) Error() string {
	switch {
	case errors.Is(e.Err, ErrMoveNotFound):
		return fmt.Sprintf("played move %s not found in evaluations %s", e.Move, strings.Join(e.Candidates, " "))
	case errors.Is(e.Err, ErrFormat):
		return fmt.Sprintf("format error in evaluation %q of %s", e.Value, e.Move)
	default:
		return fmt.Sprintf("%v for %s", e.Err, e.Move)
	}
}

func (e *ScoringError) Unwrap() error { return e.Err }

// coordinateLen is the significant prefix of a coordinate move; promotion
// suffixes are ignored when matching.
const coordinateLen = 4

func coordinate(move string) string {
	if len(move) < coordinateLen {
		return move
	}
	return move[:coordinateLen]
}

// ParseValue splits an evaluation value into its number and whether it is a
// mate distance. "mate -3" yields (-3, true); "35" yields (35, false).
// Anything after the number is a format error.
func ParseValue(raw string) (int, bool, error) {
	fields := strings.Fields(raw)
	mate := false
	var text string
	switch {
	case len(fields) == 1:
		text = fields[0]
	case len(fields) == 2 && fields[0] == "mate":
		mate = true
		text = fields[1]
	default:
		return 0, false, ErrFormat
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, mate, ErrFormat
	}
	return n, mate, nil
}

// Resolve scores one played move against the first (best) evaluation.
func Resolve(m model.PlayedMove) (model.PlayedMoveScore, error) {
	if len(m.Evaluations) == 0 {
		return model.PlayedMoveScore{}, &ScoringError{Move: m.Move, Err: ErrNoEvaluations}
	}
	played := coordinate(m.Move)
	best := m.Evaluations[0]
	if coordinate(best.Move) == played {
		return model.PlayedMoveScore{}, nil
	}

	bestScore, bestIsMate, err := ParseValue(best.Value)
	if err != nil {
		return model.PlayedMoveScore{}, &ScoringError{Move: m.Move, Value: best.Value, Err: ErrFormat}
	}

	for _, ev := range m.Evaluations[1:] {
		if coordinate(ev.Move) != played {
			continue
		}
		score, playedIsMate, err := ParseValue(ev.Value)
		if err != nil {
			return model.PlayedMoveScore{}, &ScoringError{Move: m.Move, Value: ev.Value, Err: ErrFormat}
		}
		switch {
		case bestIsMate && playedIsMate:
			if score == bestScore {
				return model.PlayedMoveScore{Value: 0, BestIsMate: true, PlayedIsMate: true}, nil
			}
			return model.PlayedMoveScore{Value: score - bestScore, BestIsMate: true, PlayedIsMate: true}, nil
		case bestIsMate:
			// Missed mate: keep the raw score of what was played.
			return model.PlayedMoveScore{Value: score, BestIsMate: true}, nil
		case playedIsMate:
			return model.PlayedMoveScore{Value: bestScore, PlayedIsMate: true}, nil
		default:
			return model.PlayedMoveScore{Value: score - bestScore}, nil
		}
	}

	candidates := make([]string, len(m.Evaluations))
	for i, ev := range m.Evaluations {
		candidates[i] = coordinate(ev.Move)
	}
	return model.PlayedMoveScore{}, &ScoringError{Move: played, Candidates: candidates, Err: ErrMoveNotFound}
}
