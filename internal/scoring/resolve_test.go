package scoring_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/scoring"
)

func evals(pairs ...string) []model.Evaluation {
	out := make([]model.Evaluation, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Evaluation{Move: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		move     model.PlayedMove
		expected model.PlayedMoveScore
	}{
		{
			name:     "best move played",
			move:     model.PlayedMove{Move: "e2e4", Evaluations: evals("e2e4", "35", "d2d4", "30")},
			expected: model.PlayedMoveScore{},
		},
		{
			name:     "promotion suffix ignored",
			move:     model.PlayedMove{Move: "a7a8q", Evaluations: evals("a7a8n", "mate 2", "b2b3", "10")},
			expected: model.PlayedMoveScore{},
		},
		{
			name:     "played move rated higher",
			move:     model.PlayedMove{Move: "d2d4", Evaluations: evals("e2e4", "34", "d2d4", "40")},
			expected: model.PlayedMoveScore{Value: 6},
		},
		{
			name:     "centipawn loss",
			move:     model.PlayedMove{Move: "d2d4", Evaluations: evals("e2e4", "35", "d2d4", "20")},
			expected: model.PlayedMoveScore{Value: -15},
		},
		{
			name:     "same mate distance",
			move:     model.PlayedMove{Move: "g1f3", Evaluations: evals("e2e4", "mate 3", "g1f3", "mate 3")},
			expected: model.PlayedMoveScore{Value: 0, BestIsMate: true, PlayedIsMate: true},
		},
		{
			name:     "slower mate",
			move:     model.PlayedMove{Move: "d2d4", Evaluations: evals("e2e4", "mate 3", "d2d4", "mate 5")},
			expected: model.PlayedMoveScore{Value: 2, BestIsMate: true, PlayedIsMate: true},
		},
		{
			name:     "missed mate keeps played score",
			move:     model.PlayedMove{Move: "g1f3", Evaluations: evals("e2e4", "mate 2", "g1f3", "150")},
			expected: model.PlayedMoveScore{Value: 150, BestIsMate: true},
		},
		{
			name:     "played mate keeps best score",
			move:     model.PlayedMove{Move: "g1f3", Evaluations: evals("e2e4", "300", "g1f3", "mate 4")},
			expected: model.PlayedMoveScore{Value: 300, PlayedIsMate: true},
		},
		{
			name:     "played evaluation is trimmed",
			move:     model.PlayedMove{Move: "g1f3", Evaluations: evals("e2e4", "40", "g1f3", " 10 ")},
			expected: model.PlayedMoveScore{Value: -30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scoring.Resolve(tt.move)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		move   model.PlayedMove
		target error
	}{
		{
			name:   "no evaluations",
			move:   model.PlayedMove{Move: "e2e4"},
			target: scoring.ErrNoEvaluations,
		},
		{
			name:   "played move missing",
			move:   model.PlayedMove{Move: "h2h4", Evaluations: evals("e2e4", "35", "d2d4", "30")},
			target: scoring.ErrMoveNotFound,
		},
		{
			name:   "only a mate listed",
			move:   model.PlayedMove{Move: "d2d4", Evaluations: evals("e2e4", "mate 2")},
			target: scoring.ErrMoveNotFound,
		},
		{
			name:   "trailing text after value",
			move:   model.PlayedMove{Move: "d2d4", Evaluations: evals("e2e4", "35", "d2d4", "30 cp")},
			target: scoring.ErrFormat,
		},
		{
			name:   "bad best value",
			move:   model.PlayedMove{Move: "d2d4", Evaluations: evals("e2e4", "abc", "d2d4", "30")},
			target: scoring.ErrFormat,
		},
		{
			name:   "bad played value",
			move:   model.PlayedMove{Move: "d2d4", Evaluations: evals("e2e4", "35", "d2d4", "mate x")},
			target: scoring.ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scoring.Resolve(tt.move)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)

			var se *scoring.ScoringError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestResolve_NotFoundListsCandidates(t *testing.T) {
	_, err := scoring.Resolve(model.PlayedMove{Move: "h2h4", Evaluations: evals("e2e4", "35", "d2d4q", "30")})
	require.Error(t, err)
	assert.Equal(t, "played move h2h4 not found in evaluations e2e4 d2d4", err.Error())
}

func TestParseValue(t *testing.T) {
	n, mate, err := scoring.ParseValue("mate -3")
	require.NoError(t, err)
	assert.Equal(t, -3, n)
	assert.True(t, mate)

	n, mate, err = scoring.ParseValue("-42")
	require.NoError(t, err)
	assert.Equal(t, -42, n)
	assert.False(t, mate)

	for _, bad := range []string{"", "mate", "35 junk", "mate 3 4", "plus 3"} {
		_, _, err = scoring.ParseValue(bad)
		assert.ErrorIs(t, err, scoring.ErrFormat, "value %q", bad)
	}
}
