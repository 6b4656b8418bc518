package model

import (
	"fmt"
	"math"
	"strconv"
)

// PlayerGameStats is the per-(game, player) measurement: the numeric score
// sample, its textual rendering and the derived statistics.
type PlayerGameStats struct {
	GameKey      string
	Name         string
	Side         Side
	IsWhite      bool // colour label used for reporting and matching
	Date         string
	Result       string
	HashCode     string
	BookDepth    int
	BookDepthTag string // raw BookDepth tag, used by ID
	SearchDepth  string

	Scores       []int
	TextScores   []string
	LowThreshold float64
	CV           float64

	Matched bool
}

// NumScores is the size of the numeric sample.
func (s PlayerGameStats) NumScores() int { return len(s.Scores) }

// AE is the mean of the numeric scores; NaN for an empty sample.
func (s PlayerGameStats) AE() float64 {
	if len(s.Scores) == 0 {
		return math.NaN()
	}
	var sum int
	for _, v := range s.Scores {
		sum += v
	}
	return float64(sum) / float64(len(s.Scores))
}

// SD is the population standard deviation of the numeric scores.
func (s PlayerGameStats) SD() float64 {
	if len(s.Scores) == 0 {
		return math.NaN()
	}
	mean := s.AE()
	var acc float64
	for _, v := range s.Scores {
		d := float64(v) - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(s.Scores)))
}

// ScoreSum is the sum of the numeric sample, kept for pooled cross-game means.
func (s PlayerGameStats) ScoreSum() int {
	var sum int
	for _, v := range s.Scores {
		sum += v
	}
	return sum
}

// WithinCount is the number of scores at or above the closeness threshold.
func (s PlayerGameStats) WithinCount() int {
	return int(math.Round(s.CV * float64(len(s.Scores))))
}

// Year returns the first four characters of the game's date, or "????".
func (s PlayerGameStats) Year() string {
	if len(s.Date) < 4 {
		return "????"
	}
	return s.Date[:4]
}

// Colour returns "W" or "B" according to the colour label.
func (s PlayerGameStats) Colour() string {
	if s.IsWhite {
		return "W"
	}
	return "B"
}

// NameWidth is the fixed width of the player column in reports and IDs.
const NameWidth = 30

// PaddedName truncates or right-pads the player name to NameWidth.
func (s PlayerGameStats) PaddedName() string {
	r := []rune(s.Name)
	if len(r) > NameWidth {
		r = r[:NameWidth]
	}
	return fmt.Sprintf("%-*s", NameWidth, string(r))
}

// ID identifies a (game, player) pair as year:name:W|B:bookDepth:moveCount.
// The book depth comes from the BookDepth tag.
func (s PlayerGameStats) ID() string {
	return fmt.Sprintf("%s:%s:%s:%3s:%3d", s.Year(), s.PaddedName(), s.Colour(), s.BookDepthTag, len(s.TextScores))
}

// BookDepthText renders the analysis book depth for reports.
func (s PlayerGameStats) BookDepthText() string {
	return strconv.Itoa(s.BookDepth)
}

// ---- Stored rows ----

// GameSummary is the persisted header of one analysed game.
type GameSummary struct {
	GameKey       string
	FileHash      string
	White         string
	Black         string
	Date          string
	Result        string
	HashCode      string
	BookDepth     int
	SearchDepth   string
	Engine        string
	AnalysedPlies int
}

// StoredPlayerStats is a persisted PlayerGameStats row. The per-move sample
// lives in move_scores, so only the aggregates are kept here.
type StoredPlayerStats struct {
	GameKey      string
	Name         string
	Side         Side
	IsWhite      bool
	Date         string
	Result       string
	HashCode     string
	NumScores    int
	NumMoves     int
	ScoreSum     int
	WithinCount  int
	AE           float64
	SD           float64
	CV           float64
	LowThreshold float64
	Matched      bool
}

// MoveScoreRow is one resolved move as stored for drill-down.
type MoveScoreRow struct {
	GameKey      string
	Ply          int
	Side         Side
	Played       string
	Best         string
	PlayedEval   string
	BestEval     string
	Value        int
	BestIsMate   bool
	PlayedIsMate bool
	Text         string
}

// PlayerAggregate pools a player's per-game rows.
type PlayerAggregate struct {
	Name        string
	Games       int
	WhiteGames  int
	BlackGames  int
	Scores      int
	ScoreSum    int
	WithinCount int
	SDSum       float64
	Matched     int
	FirstDate   string
	LastDate    string
}

// AE is the pooled mean score across all games.
func (a PlayerAggregate) AE() float64 {
	if a.Scores == 0 {
		return 0
	}
	return float64(a.ScoreSum) / float64(a.Scores)
}

// CV is the pooled fraction of scores within the closeness threshold.
func (a PlayerAggregate) CV() float64 {
	if a.Scores == 0 {
		return 0
	}
	return float64(a.WithinCount) / float64(a.Scores)
}

// AvgSD is the mean per-game standard deviation.
func (a PlayerAggregate) AvgSD() float64 {
	if a.Games == 0 {
		return 0
	}
	return a.SDSum / float64(a.Games)
}

// DBOverview holds high-level statistics about the store.
type DBOverview struct {
	TotalGames    int
	TotalFiles    int
	UniquePlayers int
	TotalMoves    int
	MatchedRows   int
	EarliestDate  string
	LatestDate    string
}

// PlayerActivity is a row of the most-active-players listing.
type PlayerActivity struct {
	Name    string
	Games   int
	AvgAE   float64
	AvgCV   float64
	Matched int
}

// ResultCount counts games per Result tag value.
type ResultCount struct {
	Result string
	Games  int
}

// RunRecord describes one extraction run.
type RunRecord struct {
	ID            string
	StartedAt     string
	Configuration string
	Files         int
	Games         int
	Reported      int
}
