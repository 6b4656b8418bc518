// Package extract runs analysis files through scoring, filtering and reporting.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/filter"
	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/parser"
	"github.com/pable/go-chess-metrics/internal/report"
	"github.com/pable/go-chess-metrics/internal/scoring"
)

// Mode selects what a run produces.
type Mode int

const (
	// ModeStats prints one line per accepted (game, player).
	ModeStats Mode = iota
	// ModeAnnotate writes every game as commented PGN text.
	ModeAnnotate
	// ModeCurveData prints evaluation/result pairs per analysed move.
	ModeCurveData
)

// Outputs are the destinations of a run. Nil writers disable that output.
type Outputs struct {
	Stats     io.Writer // statistics lines and curve data
	Annotated io.Writer
	Details   io.Writer
	Matching  io.Writer
}

// Store persists computed measurements. *storage.DB satisfies it.
type Store interface {
	FileExists(hash string) (bool, error)
	InsertFile(hash, path string, games, skipped int) error
	InsertGame(g model.GameSummary) error
	InsertPlayerGameStats(stats []model.StoredPlayerStats) error
	InsertMoveScores(rows []model.MoveScoreRow) error
	InsertRun(r model.RunRecord) error
}

// Runner processes analysis files with a fixed filter.
type Runner struct {
	Filter  *filter.Filter
	Log     zerolog.Logger
	Mode    Mode
	Out     Outputs
	Store   Store // optional
	Workers int   // scoring parallelism; <= 0 means GOMAXPROCS
	// Force re-stores files whose hash is already recorded.
	Force bool
}

// RunSummary counts what a run did.
type RunSummary struct {
	RunID    string
	Files    int
	Games    int
	Skipped  int
	Reported int
}

type sideResult struct {
	stats model.PlayerGameStats
	moves []scoring.MoveScore
	err   error
}

type scoredGame struct {
	game  model.GameRecord
	sides [2]sideResult
}

// Run processes paths in order. A missing file stops the run; other read
// failures are logged and the next file is tried.
func (r *Runner) Run(ctx context.Context, paths []string) (RunSummary, error) {
	sum := RunSummary{RunID: uuid.NewString()}
	started := time.Now().UTC()

	if r.Mode != ModeAnnotate && r.Out.Stats != nil {
		if err := report.WriteHeader(r.Out.Stats, r.Filter.Configuration()); err != nil {
			return sum, fmt.Errorf("write header: %w", err)
		}
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		err := r.processFile(ctx, path, &sum)
		if errors.Is(err, os.ErrNotExist) {
			return sum, fmt.Errorf("file not found: %s", path)
		}
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			r.Log.Error().Err(err).Str("file", path).Msg("error processing file")
			continue
		}
		sum.Files++
	}

	if r.Store != nil {
		run := model.RunRecord{
			ID:            sum.RunID,
			StartedAt:     started.Format(time.RFC3339),
			Configuration: r.Filter.Configuration(),
			Files:         sum.Files,
			Games:         sum.Games,
			Reported:      sum.Reported,
		}
		if err := r.Store.InsertRun(run); err != nil {
			return sum, fmt.Errorf("store run: %w", err)
		}
	}
	r.Log.Info().Str("run", sum.RunID).Int("files", sum.Files).Int("games", sum.Games).
		Int("skipped", sum.Skipped).Int("reported", sum.Reported).Msg("run complete")
	return sum, nil
}

func (r *Runner) processFile(ctx context.Context, path string, sum *RunSummary) error {
	src, err := parser.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	log := r.Log.With().Str("file", path).Logger()
	games, skipped, err := parser.NewDecoder(src, log).ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	log.Debug().Int("games", len(games)).Int("skipped", skipped).Msg("decoded")
	sum.Games += len(games)
	sum.Skipped += skipped

	if r.Mode != ModeStats {
		for _, g := range games {
			if err := r.writeGame(g); err != nil {
				return err
			}
		}
		return nil
	}

	store := r.Store
	if store != nil && !r.Force {
		exists, err := store.FileExists(src.Hash)
		if err != nil {
			return fmt.Errorf("check file: %w", err)
		}
		if exists {
			log.Info().Str("hash", src.Hash[:12]).Msg("file already stored, not persisting again")
			store = nil
		}
	}

	scored, err := r.score(ctx, games)
	if err != nil {
		return err
	}
	for i := range scored {
		n, err := r.report(&scored[i], src.Hash, store, log)
		if err != nil {
			return err
		}
		sum.Reported += n
	}
	if store != nil {
		if err := store.InsertFile(src.Hash, path, len(games), skipped); err != nil {
			return fmt.Errorf("store file: %w", err)
		}
	}
	return nil
}

// score computes both sides of every game concurrently. Results keep
// document order.
func (r *Runner) score(ctx context.Context, games []model.GameRecord) ([]scoredGame, error) {
	out := make([]scoredGame, len(games))
	low := r.Filter.LowThreshold()
	src := r.Filter.Config().SideSource

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range games {
		out[i].game = games[i]
		for _, side := range []model.Side{model.White, model.Black} {
			i, side := i, side
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				stats, moves, err := aggregator.BuildPlayerStats(games[i], side, low, src)
				out[i].sides[side] = sideResult{stats: stats, moves: moves, err: err}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// report applies the filter to both sides of a game and writes the accepted
// lines. It runs on a single goroutine so random draws stay reproducible.
// A nil store skips persistence.
func (r *Runner) report(sg *scoredGame, fileHash string, store Store, log zerolog.Logger) (int, error) {
	var stored []model.StoredPlayerStats
	var moves []model.MoveScoreRow
	reported := 0
	fullScores := r.Filter.Config().FullScores

	g := sg.game
	glog := log.With().Str("game", g.Key).Str("hash", g.Tag("HashCode")).
		Str("white", g.Player(model.White)).Str("black", g.Player(model.Black)).
		Str("date", g.Tag("Date")).Logger()
	for _, side := range []model.Side{model.White, model.Black} {
		res := &sg.sides[side]
		var scoringErr *scoring.ScoringError
		switch {
		case errors.As(res.err, &scoringErr):
			glog.Warn().Err(res.err).Str("side", side.String()).Msg("skipping unscorable side")
			continue
		case errors.Is(res.err, aggregator.ErrEmptySample):
			glog.Debug().Str("side", side.String()).Msg("no comparable scores")
			continue
		case res.err != nil:
			return reported, res.err
		}

		res.stats.Matched = r.Filter.Accept(res.stats)
		stored = append(stored, aggregator.Stored(res.stats))
		moves = append(moves, aggregator.MoveRows(sg.game.Key, side, res.moves)...)
		if !res.stats.Matched {
			continue
		}
		reported++
		if err := r.writeAccepted(sg.game, res.stats, fullScores); err != nil {
			return reported, err
		}
	}

	if store != nil {
		if err := persist(store, sg.game, fileHash, stored, moves); err != nil {
			return reported, err
		}
	}
	return reported, nil
}

func (r *Runner) writeAccepted(g model.GameRecord, stats model.PlayerGameStats, fullScores bool) error {
	if r.Out.Stats != nil {
		if _, err := fmt.Fprintln(r.Out.Stats, report.FormatLine(stats, fullScores)); err != nil {
			return err
		}
	}
	if r.Out.Details != nil {
		if err := report.WriteDetails(r.Out.Details, g); err != nil {
			return fmt.Errorf("write details: %w", err)
		}
	}
	if r.Out.Matching != nil {
		if err := report.WriteGamePGN(r.Out.Matching, g); err != nil {
			return fmt.Errorf("write matching: %w", err)
		}
	}
	return nil
}

// writeGame handles the annotate and curve data modes, which look at whole
// games rather than per-player measurements.
func (r *Runner) writeGame(g model.GameRecord) error {
	switch r.Mode {
	case ModeAnnotate:
		if r.Out.Annotated == nil {
			return nil
		}
		if err := report.Annotate(r.Out.Annotated, g); err != nil {
			return fmt.Errorf("write annotation: %w", err)
		}
	case ModeCurveData:
		if r.Out.Stats != nil {
			if err := report.WriteCurveData(r.Out.Stats, g); err != nil {
				return fmt.Errorf("write curve data: %w", err)
			}
		}
		if r.Out.Matching != nil && r.Filter.HashCodeMatches(g.Tag("HashCode")) {
			if err := report.WriteGamePGN(r.Out.Matching, g); err != nil {
				return fmt.Errorf("write matching: %w", err)
			}
		}
	}
	return nil
}

func persist(store Store, g model.GameRecord, fileHash string, stats []model.StoredPlayerStats, moves []model.MoveScoreRow) error {
	summary := model.GameSummary{
		GameKey:       g.Key,
		FileHash:      fileHash,
		White:         g.Player(model.White),
		Black:         g.Player(model.Black),
		Date:          g.Tag("Date"),
		Result:        g.Tag("Result"),
		HashCode:      g.Tag("HashCode"),
		BookDepth:     g.BookDepth(),
		SearchDepth:   g.Analysis.SearchDepth,
		Engine:        g.Analysis.EngineID,
		AnalysedPlies: len(g.Analysis.Moves),
	}
	if err := store.InsertGame(summary); err != nil {
		return fmt.Errorf("store game: %w", err)
	}
	if len(stats) > 0 {
		if err := store.InsertPlayerGameStats(stats); err != nil {
			return fmt.Errorf("store stats: %w", err)
		}
	}
	if len(moves) > 0 {
		if err := store.InsertMoveScores(moves); err != nil {
			return fmt.Errorf("store moves: %w", err)
		}
	}
	return nil
}
