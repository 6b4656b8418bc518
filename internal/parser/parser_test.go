package parser_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-chess-metrics/internal/model"
	"github.com/pable/go-chess-metrics/internal/parser"
)

const sampleXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<gamelist>
  <game>
    <tags>
      <tag name="White" value="Alice"/>
      <tag name="Black" value="Bob"/>
      <tag name="Date" value="2020.03.01"/>
      <tag name="Result" value="1-0"/>
      <tag name="HashCode" value="1234abcd"/>
    </tags>
    <moves>1. e4 e5 2. Nf3 1-0</moves>
    <analysis searchDepth="12" BookDepth="2" engine="Stockfish">
      <move player="white">
        <played>g1f3</played>
        <evaluation move="g1f3" value="35"/>
        <evaluation move="d2d4" value="30"/>
      </move>
      <move player="black">
        <played>b8c6</played>
        <evaluation move="g8f6" value="-20"/>
        <evaluation move="b8c6" value="-45"/>
      </move>
    </analysis>
  </game>
  <game>
    <tags><tag name="White" value="Carol"/></tags>
    <moves>1. d4</moves>
  </game>
  <game>
    <tags><tag name="White" value="Dave"/><tag name="Black" value="Eve"/></tags>
    <analysis searchDepth="8" bookDepth="-7">
      <move>
        <evaluation move="e2e4" value="10"/>
        <played>e2e4</played>
        <evaluation value="10" move="e2e4"/>
      </move>
      <move>
        <played></played>
        <evaluation move="e7e5" value="mate 3"/>
      </move>
    </analysis>
  </game>
</gamelist>
`

func decodeAll(t *testing.T, r io.Reader) ([]model.GameRecord, int) {
	t.Helper()
	games, skipped, err := parser.NewDecoder(r, zerolog.Nop()).ReadAll()
	require.NoError(t, err)
	return games, skipped
}

func TestDecoder(t *testing.T) {
	games, skipped := decodeAll(t, strings.NewReader(sampleXML))
	require.Len(t, games, 2)
	assert.Equal(t, 1, skipped)

	g := games[0]
	assert.Equal(t, []string{"White", "Black", "Date", "Result", "HashCode"}, g.TagOrder)
	assert.Equal(t, "Alice", g.Player(model.White))
	assert.Equal(t, "Bob", g.Player(model.Black))
	assert.Equal(t, []string{"e4", "e5", "2.", "Nf3"}, g.Moves)
	assert.Equal(t, 2, g.BookDepth())
	assert.Equal(t, "12", g.Analysis.SearchDepth)
	assert.Equal(t, "Stockfish", g.Analysis.EngineID)
	require.Len(t, g.Analysis.Moves, 2)
	assert.True(t, g.Analysis.Moves[0].White)
	assert.False(t, g.Analysis.Moves[1].White)
	assert.Equal(t, "b8c6", g.Analysis.Moves[1].Move)
	assert.Equal(t, []model.Evaluation{{Move: "g8f6", Value: "-20"}, {Move: "b8c6", Value: "-45"}}, g.Analysis.Moves[1].Evaluations)
	assert.Len(t, g.Key, 64)
}

func TestDecoder_LegacyDefaults(t *testing.T) {
	games, _ := decodeAll(t, strings.NewReader(sampleXML))
	g := games[1]

	assert.Equal(t, -1, g.BookDepth(), "negative book depth normalises to unknown")
	assert.Equal(t, "unknown", g.Analysis.EngineID)
	assert.Empty(t, g.Moves, "missing moves text yields no tokens")

	require.Len(t, g.Analysis.Moves, 2)
	first := g.Analysis.Moves[0]
	assert.True(t, first.White)
	assert.Equal(t, []model.Evaluation{{Move: "e2e4", Value: "10"}}, first.Evaluations, "evaluation before played is dropped")

	second := g.Analysis.Moves[1]
	assert.False(t, second.White, "colours alternate without a player attribute")
	assert.Equal(t, "???", second.Move)
}

func TestDecoder_KeyStable(t *testing.T) {
	a, _ := decodeAll(t, strings.NewReader(sampleXML))
	b, _ := decodeAll(t, strings.NewReader(sampleXML))
	assert.Equal(t, a[0].Key, b[0].Key)
	assert.NotEqual(t, a[0].Key, a[1].Key)
}

func TestDecoder_GameError(t *testing.T) {
	d := parser.NewDecoder(strings.NewReader(sampleXML), zerolog.Nop())
	_, err := d.Next()
	require.NoError(t, err)

	_, err = d.Next()
	var ge *parser.GameError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, 2, ge.Index)

	_, err = d.Next()
	require.NoError(t, err)
	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_MalformedXML(t *testing.T) {
	_, _, err := parser.NewDecoder(strings.NewReader("<gamelist><game><tags>"), zerolog.Nop()).ReadAll()
	assert.Error(t, err)
}

func TestOpen_Compressed(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(sampleXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(sampleXML), nil)
	require.NoError(t, enc.Close())

	files := map[string][]byte{
		"plain.xml":     []byte(sampleXML),
		"games.xml.gz":  gz.Bytes(),
		"games.xml.zst": zst,
	}
	hashes := map[string]bool{}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, content, 0644))

		src, err := parser.Open(path)
		require.NoError(t, err, name)
		games, _ := decodeAll(t, src)
		require.NoError(t, src.Close())

		assert.Len(t, games, 2, name)
		assert.Len(t, src.Hash, 64)
		hashes[src.Hash] = true
	}
	assert.Len(t, hashes, 3, "file hash covers the raw bytes")
}

func TestOpen_Missing(t *testing.T) {
	_, err := parser.Open(filepath.Join(t.TempDir(), "nope.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHashCodesFromPGN(t *testing.T) {
	pgnText := `[Event "A"]
[White "Alice"]
[Black "Bob"]
[Result "1-0"]
[HashCode "1234abcd"]

1. e4 e5 2. Nf3 1-0

[Event "B"]
[White "Carol"]
[Black "Dave"]
[Result "0-1"]

1. d4 d5 0-1

[Event "C"]
[White "Eve"]
[Black "Frank"]
[Result "1/2-1/2"]
[HashCode "1234abcd"]

1. c4 c5 1/2-1/2
`
	path := filepath.Join(t.TempDir(), "matching.pgn")
	require.NoError(t, os.WriteFile(path, []byte(pgnText), 0644))

	hashes, err := parser.HashCodesFromPGN(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1234abcd"}, hashes)
}
