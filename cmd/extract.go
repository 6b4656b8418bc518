package cmd

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/extract"
	"github.com/pable/go-chess-metrics/internal/filter"
	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/parser"
)

const (
	detailsFile  = "details.txt"
	matchingFile = "matching.pgn"
)

var (
	exAEThreshold float64
	exCVThreshold float64
	exAccuracy    bool
	exAnnotate    string
	exAppend      bool
	exCurveData   bool
	exDetails     bool
	exFullStats   bool
	exHashFiles   []string
	exHashPGNs    []string
	exIDs         []string
	exIDFiles     []string
	exMatching    bool
	exMinLength   int
	exPlayers     []string
	exRandom      float64
	exSeed        int64
	exStats       bool
	exCriteria    string
	exStore       bool
	exForce       bool
	exWorkers     int
	exSideSource  string
)

var extractCmd = &cobra.Command{
	Use:   "extract [flags] <analysis.xml>...",
	Short: "Score analysed games and report players matching the criteria",
	Long: `Read engine-analysis XML files (optionally .gz, .bz2 or .zst compressed),
score every move against the engine's choice and print one line per
(game, player) that passes the criteria:

  year:player:W/B:bookDepth:moves:searchDepth:AE:SD:CV:result:hash:

Without --player, --id, --idfile, --hashfile or --hashpgn every (game, player)
pair is a candidate and only the thresholds decide what is reported. With any
of them, a pair must also match one of the lists.

Flags override values loaded with --criteria.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.Float64Var(&exAEThreshold, "AEthreshold", 0, "minimum average error to report; also the closeness threshold for CV")
	f.Float64Var(&exCVThreshold, "CVthreshold", 0, "minimum CV to report (0 uses the AE threshold instead)")
	f.BoolVar(&exAccuracy, "accuracy", false, "report every sample long enough, ignoring AE and CV")
	f.StringVar(&exAnnotate, "annotate", "", "write annotated games to this file instead of statistics")
	f.BoolVar(&exAppend, "append", false, "append to output files instead of truncating them")
	f.BoolVar(&exCurveData, "curvedata", false, "print evaluation/result pairs for win-probability curves")
	f.BoolVar(&exDetails, "details", false, "write the analysis of reported games to "+detailsFile)
	f.BoolVar(&exFullStats, "fullstats", false, "append the per-move scores to each line")
	f.StringArrayVar(&exHashFiles, "hashfile", nil, "file of game hash codes to select, one per line (repeatable)")
	f.StringArrayVar(&exHashPGNs, "hashpgn", nil, "PGN file whose HashCode tags select games (repeatable)")
	f.StringArrayVar(&exIDs, "id", nil, "player-game ID to select (repeatable)")
	f.StringArrayVar(&exIDFiles, "idfile", nil, "file of player-game IDs, one per line (repeatable)")
	f.BoolVar(&exMatching, "matching", false, "write reported games to "+matchingFile)
	f.IntVar(&exMinLength, "minlength", filter.DefaultMinLength, "minimum number of scored moves")
	f.StringArrayVar(&exPlayers, "player", nil, "player to select, or <White>, <Black>, <WhiteOrBlack> (repeatable)")
	f.Float64Var(&exRandom, "random", 0, "report a rejected sample with this probability (0, 1]")
	f.Int64Var(&exSeed, "seed", 0, "seed for --random (default: time based)")
	f.BoolVar(&exStats, "stats", false, "show statistics (always on)")
	f.StringVar(&exCriteria, "criteria", "", "YAML criteria file")
	f.BoolVar(&exStore, "store", false, "persist computed statistics to the database")
	f.BoolVar(&exForce, "force", false, "with --store, persist files that are already stored")
	f.IntVar(&exWorkers, "workers", 0, "scoring goroutines (default GOMAXPROCS)")
	f.StringVar(&exSideSource, "side-source", "colour", "how a player's colour is labelled: colour or white-tag")
	_ = f.MarkHidden("stats")
}

// buildConfig merges the criteria file with the flags that were set.
func buildConfig(cmd *cobra.Command) (filter.Config, error) {
	cfg := filter.DefaultConfig()
	if exCriteria != "" {
		var err error
		if cfg, err = filter.LoadConfig(exCriteria); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("AEthreshold") {
		v := exAEThreshold
		cfg.AEThreshold = &v
	}
	if flags.Changed("CVthreshold") {
		cfg.CVThreshold = exCVThreshold
	}
	if flags.Changed("accuracy") {
		cfg.ShowAccuracy = exAccuracy
	}
	if flags.Changed("fullstats") {
		cfg.FullScores = exFullStats
	}
	if flags.Changed("minlength") {
		cfg.MinLength = exMinLength
	}
	if flags.Changed("random") {
		cfg.RandomThreshold = exRandom
	}
	if flags.Changed("side-source") {
		src, err := aggregator.ParseSideSource(exSideSource)
		if err != nil {
			return cfg, err
		}
		cfg.SideSource = src
	}

	for _, p := range exPlayers {
		cfg.Players = append(cfg.Players, model.ParsePlayerQuery(p))
	}
	cfg.IDs = append(cfg.IDs, exIDs...)
	for _, path := range exIDFiles {
		ids, err := filter.ReadListFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.IDs = append(cfg.IDs, ids...)
	}
	for _, path := range exHashFiles {
		hashes, err := filter.ReadListFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.HashCodes = append(cfg.HashCodes, hashes...)
	}
	for _, path := range exHashPGNs {
		hashes, err := parser.HashCodesFromPGN(cmd.Context(), path)
		if err != nil {
			return cfg, err
		}
		cfg.HashCodes = append(cfg.HashCodes, hashes...)
	}
	return cfg, cfg.Validate()
}

// outputFile opens a report file and returns a buffered writer plus a
// function that flushes and closes it.
func outputFile(path string, appendTo bool) (*bufio.Writer, func() error, error) {
	mode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendTo {
		mode = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, mode, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return fmt.Errorf("criteria: %w", err)
	}
	var rng *rand.Rand
	if cmd.Flags().Changed("seed") {
		rng = rand.New(rand.NewSource(exSeed))
	}
	flt, err := filter.New(cfg, rng)
	if err != nil {
		return fmt.Errorf("criteria: %w", err)
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()

	runner := &extract.Runner{
		Filter:  flt,
		Log:     logger,
		Out:     extract.Outputs{Stats: stdout},
		Workers: exWorkers,
		Force:   exForce,
	}
	switch {
	case exAnnotate != "":
		runner.Mode = extract.ModeAnnotate
	case exCurveData:
		runner.Mode = extract.ModeCurveData
	}

	var closers []func() error
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Error().Err(err).Msg("close output")
			}
		}
	}()
	if runner.Mode == extract.ModeAnnotate {
		w, c, err := outputFile(exAnnotate, exAppend)
		if err != nil {
			return err
		}
		runner.Out.Annotated = w
		closers = append(closers, c)
	}
	if exDetails && runner.Mode == extract.ModeStats {
		w, c, err := outputFile(detailsFile, exAppend)
		if err != nil {
			return err
		}
		runner.Out.Details = w
		closers = append(closers, c)
	}
	if exMatching && runner.Mode != extract.ModeAnnotate {
		w, c, err := outputFile(matchingFile, exAppend)
		if err != nil {
			return err
		}
		runner.Out.Matching = w
		closers = append(closers, c)
	}

	if exStore {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		runner.Store = db
	}

	_, err = runner.Run(cmd.Context(), args)
	return err
}
