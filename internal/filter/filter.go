// Package filter decides which (game, player) measurements are reported.
package filter

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/model"
)

// DefaultMinLength is the smallest numeric sample accepted by default.
const DefaultMinLength = 10

// Config holds the acceptance criteria. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Players   []model.PlayerQuery
	IDs       []string
	HashCodes []string

	MinLength       int
	AEThreshold     *float64
	CVThreshold     float64
	ShowAccuracy    bool
	RandomThreshold float64
	FullScores      bool
	SideSource      aggregator.SideSource
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MinLength: DefaultMinLength}
}

// Validate checks the numeric criteria.
func (c Config) Validate() error {
	if c.MinLength < 0 {
		return fmt.Errorf("invalid minimum length: %d", c.MinLength)
	}
	if c.RandomThreshold != 0 && (c.RandomThreshold <= 0 || c.RandomThreshold > 1) {
		return fmt.Errorf("invalid random threshold: %v (must be in (0, 1])", c.RandomThreshold)
	}
	return nil
}

// Filter applies a Config. It is built once and only read afterwards, except
// for the random generator consumed by the sampling fallback.
type Filter struct {
	cfg    Config
	rng    *rand.Rand
	ids    map[string]struct{}
	hashes map[string]struct{}
}

// New validates cfg and returns a Filter drawing from rng. A nil rng is
// replaced by a time-seeded generator.
func New(cfg Config, rng *rand.Rand) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	f := &Filter{
		cfg:    cfg,
		rng:    rng,
		ids:    make(map[string]struct{}, len(cfg.IDs)),
		hashes: make(map[string]struct{}, len(cfg.HashCodes)),
	}
	for _, id := range cfg.IDs {
		f.ids[id] = struct{}{}
	}
	for _, h := range cfg.HashCodes {
		f.hashes[h] = struct{}{}
	}
	return f, nil
}

// Config returns a copy of the active criteria.
func (f *Filter) Config() Config { return f.cfg }

// LowThreshold is the closeness threshold used for CV: the AE threshold when
// one is set, otherwise 0.
func (f *Filter) LowThreshold() float64 {
	if f.cfg.AEThreshold != nil {
		return *f.cfg.AEThreshold
	}
	return 0
}

// Matches decides whether a measurement with the given sample size is accepted.
// The length gate is never overridden, not even by random sampling.
func (f *Filter) Matches(stats model.PlayerGameStats, sampleSize int) bool {
	if sampleSize < f.cfg.MinLength {
		return false
	}
	var ok bool
	switch {
	case f.cfg.ShowAccuracy:
		ok = true
	case f.cfg.CVThreshold == 0:
		ok = f.cfg.AEThreshold == nil || stats.AE() >= *f.cfg.AEThreshold
	default:
		ok = stats.CV >= f.cfg.CVThreshold
	}
	if !ok && f.cfg.RandomThreshold > 0 {
		ok = f.rng.Float64() <= f.cfg.RandomThreshold
	}
	return ok
}

// PlayerMatches reports whether any configured player query selects this player.
func (f *Filter) PlayerMatches(name string, isWhite bool) bool {
	for _, q := range f.cfg.Players {
		if q.Matches(name, isWhite) {
			return true
		}
	}
	return false
}

// HashCodeMatches reports whether hash is in the configured list. An empty
// hash never matches.
func (f *Filter) HashCodeMatches(hash string) bool {
	if hash == "" {
		return false
	}
	_, ok := f.hashes[hash]
	return ok
}

// IDMatches reports whether the measurement's ID is in the configured list.
func (f *Filter) IDMatches(stats model.PlayerGameStats) bool {
	if len(f.ids) == 0 {
		return false
	}
	_, ok := f.ids[stats.ID()]
	return ok
}

// HasMembership reports whether any player, ID or hash list is configured.
func (f *Filter) HasMembership() bool {
	return len(f.cfg.Players) > 0 || len(f.ids) > 0 || len(f.hashes) > 0
}

// Selected reports whether a measurement belongs to the configured
// population: any of the membership predicates holds, or none is configured.
func (f *Filter) Selected(stats model.PlayerGameStats) bool {
	if !f.HasMembership() {
		return true
	}
	return f.PlayerMatches(stats.Name, stats.IsWhite) ||
		f.IDMatches(stats) ||
		f.HashCodeMatches(stats.HashCode)
}

// Accept is the reporting decision: membership first, then the thresholds.
func (f *Filter) Accept(stats model.PlayerGameStats) bool {
	return f.Selected(stats) && f.Matches(stats, stats.NumScores())
}

// Configuration renders the criteria as the flags that would reproduce them.
func (f *Filter) Configuration() string {
	var b strings.Builder
	if f.cfg.ShowAccuracy {
		b.WriteString("--accuracy ")
	}
	fmt.Fprintf(&b, "--AEthreshold %s ", model.FormatDecimal(f.LowThreshold()))
	fmt.Fprintf(&b, "--minlength %d ", f.cfg.MinLength)
	fmt.Fprintf(&b, "--CVthreshold %s ", model.FormatDecimal(f.cfg.CVThreshold))
	return b.String()
}
