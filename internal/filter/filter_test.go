package filter_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/filter"
	"github.com/pable/go-chess-metrics/internal/model"
)

func ptr(v float64) *float64 { return &v }

// statsOf builds a measurement with n scores, the first `within` of them 0
// and the rest -100, so CV (threshold 0) is within/n.
func statsOf(n, within int) model.PlayerGameStats {
	s := model.PlayerGameStats{Name: "Alice", IsWhite: true, Date: "2020.01.01", HashCode: "1234"}
	for i := 0; i < n; i++ {
		v := -100
		if i < within {
			v = 0
		}
		s.Scores = append(s.Scores, v)
		s.TextScores = append(s.TextScores, "x")
	}
	if n > 0 {
		s.CV = float64(within) / float64(n)
	}
	return s
}

func newFilter(t *testing.T, cfg filter.Config, seed int64) *filter.Filter {
	t.Helper()
	f, err := filter.New(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return f
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		cfg      func(*filter.Config)
		stats    model.PlayerGameStats
		expected bool
	}{
		{
			name:     "defaults accept long enough sample",
			stats:    statsOf(12, 0),
			expected: true,
		},
		{
			name:     "length gate rejects short sample",
			stats:    statsOf(9, 9),
			expected: false,
		},
		{
			name:     "length gate beats accuracy mode",
			cfg:      func(c *filter.Config) { c.ShowAccuracy = true },
			stats:    statsOf(9, 9),
			expected: false,
		},
		{
			name:     "accuracy mode accepts",
			cfg:      func(c *filter.Config) { c.ShowAccuracy = true; c.CVThreshold = 0.99 },
			stats:    statsOf(10, 0),
			expected: true,
		},
		{
			name:     "AE threshold met",
			cfg:      func(c *filter.Config) { c.AEThreshold = ptr(-50) },
			stats:    statsOf(10, 6), // AE = -40
			expected: true,
		},
		{
			name:     "AE threshold missed",
			cfg:      func(c *filter.Config) { c.AEThreshold = ptr(-30) },
			stats:    statsOf(10, 6),
			expected: false,
		},
		{
			name:     "CV threshold takes precedence over AE",
			cfg:      func(c *filter.Config) { c.AEThreshold = ptr(-1); c.CVThreshold = 0.5 },
			stats:    statsOf(10, 6),
			expected: true,
		},
		{
			name:     "CV threshold missed",
			cfg:      func(c *filter.Config) { c.CVThreshold = 0.7 },
			stats:    statsOf(10, 6),
			expected: false,
		},
		{
			name:     "minlength zero with empty sample",
			cfg:      func(c *filter.Config) { c.MinLength = 0 },
			stats:    statsOf(0, 0),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := filter.DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			f := newFilter(t, cfg, 1)
			assert.Equal(t, tt.expected, f.Matches(tt.stats, tt.stats.NumScores()))
		})
	}
}

func TestMatches_RandomFallback(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.CVThreshold = 0.99
	cfg.RandomThreshold = 0.5

	const seed = 42
	f := newFilter(t, cfg, seed)
	ref := rand.New(rand.NewSource(seed))

	stats := statsOf(10, 0)
	for i := 0; i < 50; i++ {
		want := ref.Float64() <= 0.5
		assert.Equal(t, want, f.Matches(stats, stats.NumScores()), "draw %d", i)
	}
}

func TestMatches_RandomNeverOverridesLength(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.CVThreshold = 0.99
	cfg.RandomThreshold = 1.0
	f := newFilter(t, cfg, 7)

	assert.True(t, f.Matches(statsOf(10, 0), 10))
	assert.False(t, f.Matches(statsOf(3, 0), 3))
}

func TestNew_InvalidRandomThreshold(t *testing.T) {
	for _, v := range []float64{-0.1, 1.5} {
		cfg := filter.DefaultConfig()
		cfg.RandomThreshold = v
		_, err := filter.New(cfg, nil)
		assert.Error(t, err, "threshold %v", v)
	}

	cfg := filter.DefaultConfig()
	cfg.RandomThreshold = 1
	_, err := filter.New(cfg, nil)
	assert.NoError(t, err)
}

func TestPlayerMatches(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.Players = []model.PlayerQuery{model.ParsePlayerQuery("carlsen, magnus")}
	f := newFilter(t, cfg, 1)

	assert.True(t, f.PlayerMatches("Carlsen, Magnus", false))
	assert.False(t, f.PlayerMatches("Caruana, Fabiano", true))

	cfg.Players = []model.PlayerQuery{model.ParsePlayerQuery("<White>")}
	f = newFilter(t, cfg, 1)
	assert.True(t, f.PlayerMatches("anyone", true))
	assert.False(t, f.PlayerMatches("anyone", false))

	cfg.Players = []model.PlayerQuery{model.ParsePlayerQuery("<black>")}
	f = newFilter(t, cfg, 1)
	assert.True(t, f.PlayerMatches("anyone", false))

	cfg.Players = []model.PlayerQuery{model.ParsePlayerQuery("<WhiteOrBlack>")}
	f = newFilter(t, cfg, 1)
	assert.True(t, f.PlayerMatches("x", true))
	assert.True(t, f.PlayerMatches("y", false))

	cfg.Players = nil
	f = newFilter(t, cfg, 1)
	assert.False(t, f.PlayerMatches("x", true))
}

func TestHashCodeMatches(t *testing.T) {
	cfg := filter.DefaultConfig()
	cfg.HashCodes = []string{"1234", ""}
	f := newFilter(t, cfg, 1)

	assert.True(t, f.HashCodeMatches("1234"))
	assert.False(t, f.HashCodeMatches("9999"))
	assert.False(t, f.HashCodeMatches(""))
}

func TestIDMatches(t *testing.T) {
	s := statsOf(20, 10)
	s.BookDepthTag = "8"
	id := s.ID()
	assert.Equal(t, "2020:Alice                         :W:  8: 20", id)

	cfg := filter.DefaultConfig()
	cfg.IDs = []string{id}
	f := newFilter(t, cfg, 1)
	assert.True(t, f.IDMatches(s))

	s.IsWhite = false
	assert.False(t, f.IDMatches(s))
}

func TestAccept_Membership(t *testing.T) {
	cfg := filter.DefaultConfig()
	f := newFilter(t, cfg, 1)
	assert.True(t, f.Accept(statsOf(10, 0)), "no membership lists selects everyone")

	cfg.Players = []model.PlayerQuery{model.ExactName("Bob")}
	f = newFilter(t, cfg, 1)
	assert.False(t, f.Accept(statsOf(10, 0)))

	cfg.HashCodes = []string{"1234"}
	f = newFilter(t, cfg, 1)
	assert.True(t, f.Accept(statsOf(10, 0)), "hash code match is enough")
	assert.False(t, f.Accept(statsOf(5, 0)), "thresholds still apply")
}

func TestConfiguration(t *testing.T) {
	cfg := filter.DefaultConfig()
	f := newFilter(t, cfg, 1)
	assert.Equal(t, "--AEthreshold 0.0 --minlength 10 --CVthreshold 0.0 ", f.Configuration())

	cfg.ShowAccuracy = true
	cfg.AEThreshold = ptr(-25)
	cfg.CVThreshold = 0.75
	cfg.MinLength = 20
	f = newFilter(t, cfg, 1)
	assert.Equal(t, "--accuracy --AEthreshold -25.0 --minlength 20 --CVthreshold 0.75 ", f.Configuration())
	assert.Equal(t, -25.0, f.LowThreshold())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hashes.txt"), []byte("  abc \n\n def\n"), 0644))
	yml := `
players: ["Carlsen, Magnus", "<Black>"]
hash_file: hashes.txt
min_length: 15
ae_threshold: -20
random: 0.25
side_source: white-tag
`
	path := filepath.Join(dir, "criteria.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := filter.LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Players, 2)
	assert.Equal(t, model.QueryAnyBlack, cfg.Players[1].Kind)
	assert.Equal(t, []string{"abc", "def"}, cfg.HashCodes)
	assert.Equal(t, 15, cfg.MinLength)
	require.NotNil(t, cfg.AEThreshold)
	assert.Equal(t, -20.0, *cfg.AEThreshold)
	assert.Equal(t, 0.25, cfg.RandomThreshold)
	assert.Equal(t, 0.0, cfg.CVThreshold)
	assert.Equal(t, aggregator.SideFromWhiteTag, cfg.SideSource)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("random: 2\n"), 0644))
	_, err := filter.LoadConfig(path)
	assert.Error(t, err)
}
