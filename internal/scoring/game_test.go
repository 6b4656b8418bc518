package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/scoring"
)

func gameWith(bookDepth int, moves ...model.PlayedMove) model.GameRecord {
	a := model.NewAnalysedGame()
	a.BookDepth = bookDepth
	a.Moves = moves
	return model.GameRecord{
		Tags:     map[string]string{"White": "Alice", "Black": "Bob"},
		Analysis: a,
	}
}

func TestScoreSide(t *testing.T) {
	game := gameWith(4,
		model.PlayedMove{Move: "e2e4", White: true, Evaluations: evals("e2e4", "30", "d2d4", "25")},
		model.PlayedMove{Move: "c7c5", White: false, Evaluations: evals("e7e5", "-20", "c7c5", "-45")},
		model.PlayedMove{Move: "g1f3", White: true, Evaluations: evals("d2d4", "mate 4", "g1f3", "200")},
		model.PlayedMove{Move: "d7d6", White: false, Evaluations: evals("d7d6", "-30")},
		model.PlayedMove{Move: "f1b5", White: true, Evaluations: evals("d2d4", "mate 2", "f1b5", "mate 2")},
		model.PlayedMove{Move: "a7a6", White: false, Evaluations: evals("b8c6", "mate -3", "a7a6", "mate -5")},
	)

	white, err := scoring.ScoreSide(game, model.White)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, white.Numeric)
	assert.Equal(t, []string{"0", "?", "0"}, white.Text)

	black, err := scoring.ScoreSide(game, model.Black)
	require.NoError(t, err)
	assert.Equal(t, []int{-25, 0}, black.Numeric)
	assert.Equal(t, []string{"-25", "0", "?"}, black.Text)
}

func TestScoreSide_UnknownBookDepth(t *testing.T) {
	game := gameWith(-1,
		model.PlayedMove{Move: "e2e4", White: true, Evaluations: evals("d2d4", "30", "e2e4", "10")},
	)
	s, err := scoring.ScoreSide(game, model.White)
	require.NoError(t, err)
	assert.Empty(t, s.Numeric)
	assert.Empty(t, s.Text)
}

func TestScoreSide_ErrorDiscardsSide(t *testing.T) {
	game := gameWith(0,
		model.PlayedMove{Move: "e2e4", White: true, Evaluations: evals("d2d4", "30", "e2e4", "10")},
		model.PlayedMove{Move: "e7e5", White: false, Evaluations: evals("e7e5", "-10")},
		model.PlayedMove{Move: "h2h4", White: true, Evaluations: evals("d2d4", "30", "g1f3", "10")},
	)

	white, err := scoring.ScoreSide(game, model.White)
	require.ErrorIs(t, err, scoring.ErrMoveNotFound)
	assert.Empty(t, white.Numeric)
	assert.Empty(t, white.Text)

	black, err := scoring.ScoreSide(game, model.Black)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, black.Numeric)
}

func TestScoreMoves_Plies(t *testing.T) {
	game := gameWith(6,
		model.PlayedMove{Move: "e2e4", White: true, Evaluations: evals("e2e4", "30")},
		model.PlayedMove{Move: "e7e5", White: false, Evaluations: evals("c7c5", "-10", "e7e5", "-20")},
		model.PlayedMove{Move: "g1f3", White: true, Evaluations: evals("g1f3", "35")},
	)
	moves, err := scoring.ScoreMoves(game, model.Black)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, 8, moves[0].Ply)
	assert.Equal(t, "c7c5", moves[0].Best)
	assert.Equal(t, "-10", moves[0].BestEval)
	assert.Equal(t, "-20", moves[0].PlayedEval)
	assert.Equal(t, "-10", moves[0].Text())
}
