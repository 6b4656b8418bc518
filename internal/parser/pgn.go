package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// HashCodesFromPGN collects the distinct HashCode tags of the games in a PGN
// file, in file order. Games without the tag are ignored.
func HashCodesFromPGN(ctx context.Context, path string) ([]string, error) {
	parser := pgn.Games(path)
	seen := make(map[string]bool)
	var out []string
	for game := range parser.Games {
		select {
		case <-ctx.Done():
			parser.Stop()
			return nil, ctx.Err()
		default:
		}
		h := strings.TrimSpace(game.Tags["HashCode"])
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	if err := parser.Err(); err != nil {
		return nil, fmt.Errorf("read pgn %s: %w", path, err)
	}
	return out, nil
}
