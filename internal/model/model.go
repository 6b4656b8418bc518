package model

import (
	"strconv"
	"strings"
)

// Side represents which colour a move or player belongs to.
type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == Black {
		return "B"
	}
	return "W"
}

// TagName returns the PGN tag that holds the player name for this side.
func (s Side) TagName() string {
	if s == Black {
		return "Black"
	}
	return "White"
}

// ParseSide accepts W/B, white/black (any case).
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return White, true
	case "b", "black":
		return Black, true
	}
	return White, false
}

// ---- Engine analysis, as produced by the ingestion layer ----

// Evaluation is one engine candidate: a coordinate move and its value,
// either a centipawn integer as text or "mate N".
type Evaluation struct {
	Move  string
	Value string
}

func (e Evaluation) String() string {
	return e.Move + "  " + e.Value
}

// PlayedMove is a move from the game together with the engine's ranked
// candidates. Evaluations[0] is the engine's best move.
type PlayedMove struct {
	Move        string
	White       bool
	Evaluations []Evaluation
}

// Side returns the colour that played the move.
func (m PlayedMove) Side() Side {
	if m.White {
		return White
	}
	return Black
}

// Best returns the engine's top candidate, if any.
func (m PlayedMove) Best() (Evaluation, bool) {
	if len(m.Evaluations) == 0 {
		return Evaluation{}, false
	}
	return m.Evaluations[0], true
}

// EvaluationFor returns the evaluation whose move equals the played move exactly.
func (m PlayedMove) EvaluationFor() (Evaluation, int, bool) {
	for i, ev := range m.Evaluations {
		if ev.Move == m.Move {
			return ev, i, true
		}
	}
	return Evaluation{}, -1, false
}

// AnalysedGame holds the engine output for the post-book part of a game.
type AnalysedGame struct {
	Moves       []PlayedMove
	BookDepth   int // -1 when unknown
	SearchDepth string
	EngineID    string
}

// NewAnalysedGame returns an analysis with the documented defaults.
func NewAnalysedGame() AnalysedGame {
	return AnalysedGame{BookDepth: -1, EngineID: "unknown"}
}

// GameRecord is one analysed game: its PGN tags, its move tokens (result
// stripped) and the engine analysis.
type GameRecord struct {
	Key      string // content hash, stable across re-ingestion
	Tags     map[string]string
	TagOrder []string
	Moves    []string
	Analysis AnalysedGame
}

// Tag returns the value of the named tag, or "" when it is not set.
func (g GameRecord) Tag(name string) string {
	return g.Tags[name]
}

// BookDepth returns the number of plies played from book before analysis began.
func (g GameRecord) BookDepth() int {
	return g.Analysis.BookDepth
}

// Player returns the name recorded for the given side.
func (g GameRecord) Player(s Side) string {
	return g.Tag(s.TagName())
}

// ---- Scoring ----

// PlayedMoveScore describes how a played move compares with the engine's best.
//
// With neither side mate, Value is played-minus-best in centipawns (<= 0 when
// the engine prefers its own move). With both mate, Value is the difference in
// mate distance (0 for the same mate). When only the best move mates, Value is
// the raw played score; when only the played move mates, Value is the best score.
type PlayedMoveScore struct {
	Value        int
	BestIsMate   bool
	PlayedIsMate bool
}

// Comparable reports whether the score lies on the centipawn scale.
func (s PlayedMoveScore) Comparable() bool {
	return (!s.BestIsMate && !s.PlayedIsMate) || (s.BestIsMate && s.PlayedIsMate && s.Value == 0)
}

// Text renders the score the way the per-move report lists it: the value when
// comparable, otherwise "?".
func (s PlayedMoveScore) Text() string {
	if s.Comparable() {
		return strconv.Itoa(s.Value)
	}
	return "?"
}

// ---- Player queries ----

// PlayerQueryKind selects how a PlayerQuery matches.
type PlayerQueryKind int

const (
	QueryExactName PlayerQueryKind = iota
	QueryAnyWhite
	QueryAnyBlack
	QueryAny
)

// Sentinels accepted on the command line for the wildcard queries.
const (
	AnyWhiteToken = "<White>"
	AnyBlackToken = "<Black>"
	AnyToken      = "<WhiteOrBlack>"
)

// PlayerQuery selects players either by exact name (case-insensitive) or by colour.
type PlayerQuery struct {
	Kind PlayerQueryKind
	Name string
}

// ExactName builds a query matching one player name.
func ExactName(name string) PlayerQuery { return PlayerQuery{Kind: QueryExactName, Name: name} }

// ParsePlayerQuery maps the wildcard sentinels to their kinds; any other
// value is an exact name.
func ParsePlayerQuery(s string) PlayerQuery {
	switch {
	case strings.EqualFold(s, AnyToken):
		return PlayerQuery{Kind: QueryAny}
	case strings.EqualFold(s, AnyWhiteToken):
		return PlayerQuery{Kind: QueryAnyWhite}
	case strings.EqualFold(s, AnyBlackToken):
		return PlayerQuery{Kind: QueryAnyBlack}
	}
	return ExactName(s)
}

// Matches reports whether a player with the given name and colour satisfies the query.
func (q PlayerQuery) Matches(name string, isWhite bool) bool {
	switch q.Kind {
	case QueryAny:
		return true
	case QueryAnyWhite:
		return isWhite
	case QueryAnyBlack:
		return !isWhite
	default:
		return strings.EqualFold(q.Name, name)
	}
}

func (q PlayerQuery) String() string {
	switch q.Kind {
	case QueryAny:
		return AnyToken
	case QueryAnyWhite:
		return AnyWhiteToken
	case QueryAnyBlack:
		return AnyBlackToken
	}
	return q.Name
}
