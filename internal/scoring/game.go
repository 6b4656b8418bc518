package scoring

import "github.com/pable/go-chess-metrics/internal/model"

// MoveScore is one resolved move of a side.
type MoveScore struct {
	Ply        int
	Played     string
	Best       string
	PlayedEval string
	BestEval   string
	Score      model.PlayedMoveScore
}

// Text is the per-move report form of the score.
func (m MoveScore) Text() string { return m.Score.Text() }

// SideScores holds the two parallel samples for one side of a game.
type SideScores struct {
	Numeric []int
	Text    []string
}

// ScoreMoves resolves every analysed move played by side. Plies are counted
// from the end of book. A game with unknown book depth yields no moves.
// On the first unscorable move the whole side is discarded.
func ScoreMoves(game model.GameRecord, side model.Side) ([]MoveScore, error) {
	bookDepth := game.BookDepth()
	if bookDepth < 0 {
		return nil, nil
	}
	var out []MoveScore
	for i, m := range game.Analysis.Moves {
		if m.Side() != side {
			continue
		}
		score, err := Resolve(m)
		if err != nil {
			return nil, err
		}
		ms := MoveScore{
			Ply:    bookDepth + i + 1,
			Played: m.Move,
			Score:  score,
		}
		if best, ok := m.Best(); ok {
			ms.Best = best.Move
			ms.BestEval = best.Value
		}
		if ev, _, ok := m.EvaluationFor(); ok {
			ms.PlayedEval = ev.Value
		}
		out = append(out, ms)
	}
	return out, nil
}

// Samples splits resolved moves into the numeric and textual sequences.
// Mate divergences appear only in the textual sequence, as "?".
func Samples(moves []MoveScore) SideScores {
	s := SideScores{
		Numeric: make([]int, 0, len(moves)),
		Text:    make([]string, 0, len(moves)),
	}
	for _, m := range moves {
		if m.Score.Comparable() {
			s.Numeric = append(s.Numeric, m.Score.Value)
		}
		s.Text = append(s.Text, m.Score.Text())
	}
	return s
}

// ScoreSide returns the numeric and textual score sequences for one side.
func ScoreSide(game model.GameRecord, side model.Side) (SideScores, error) {
	moves, err := ScoreMoves(game, side)
	if err != nil {
		return SideScores{Numeric: []int{}, Text: []string{}}, err
	}
	return Samples(moves), nil
}
