package filter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/model"
)

// criteriaFile is the on-disk shape of a criteria YAML file. Pointer fields
// distinguish "absent" from zero so defaults survive partial files.
type criteriaFile struct {
	Players     []string `yaml:"players,omitempty"`
	IDs         []string `yaml:"ids,omitempty"`
	IDFile      string   `yaml:"id_file,omitempty"`
	HashCodes   []string `yaml:"hash_codes,omitempty"`
	HashFile    string   `yaml:"hash_file,omitempty"`
	MinLength   *int     `yaml:"min_length,omitempty"`
	AEThreshold *float64 `yaml:"ae_threshold,omitempty"`
	CVThreshold *float64 `yaml:"cv_threshold,omitempty"`
	Accuracy    *bool    `yaml:"accuracy,omitempty"`
	Random      *float64 `yaml:"random,omitempty"`
	FullStats   *bool    `yaml:"full_stats,omitempty"`
	SideSource  string   `yaml:"side_source,omitempty"`
}

// LoadConfig reads criteria from a YAML file on top of DefaultConfig.
// Relative id_file and hash_file paths are resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read criteria: %w", err)
	}
	var cf criteriaFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return cfg, fmt.Errorf("parse criteria %s: %w", path, err)
	}

	for _, p := range cf.Players {
		cfg.Players = append(cfg.Players, model.ParsePlayerQuery(p))
	}
	cfg.IDs = append(cfg.IDs, cf.IDs...)
	cfg.HashCodes = append(cfg.HashCodes, cf.HashCodes...)

	dir := filepath.Dir(path)
	if cf.IDFile != "" {
		ids, err := ReadListFile(resolve(dir, cf.IDFile))
		if err != nil {
			return cfg, err
		}
		cfg.IDs = append(cfg.IDs, ids...)
	}
	if cf.HashFile != "" {
		hashes, err := ReadListFile(resolve(dir, cf.HashFile))
		if err != nil {
			return cfg, err
		}
		cfg.HashCodes = append(cfg.HashCodes, hashes...)
	}

	if cf.MinLength != nil {
		cfg.MinLength = *cf.MinLength
	}
	if cf.AEThreshold != nil {
		v := *cf.AEThreshold
		cfg.AEThreshold = &v
	}
	if cf.CVThreshold != nil {
		cfg.CVThreshold = *cf.CVThreshold
	}
	if cf.Accuracy != nil {
		cfg.ShowAccuracy = *cf.Accuracy
	}
	if cf.Random != nil {
		cfg.RandomThreshold = *cf.Random
	}
	if cf.FullStats != nil {
		cfg.FullScores = *cf.FullStats
	}
	if cf.SideSource != "" {
		src, err := aggregator.ParseSideSource(cf.SideSource)
		if err != nil {
			return cfg, err
		}
		cfg.SideSource = src
	}
	return cfg, cfg.Validate()
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// ReadListFile returns the trimmed, non-empty lines of a file.
func ReadListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return out, nil
}
