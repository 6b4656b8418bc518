// Package parser reads engine-analysis documents into game records.
package parser

import (
	"compress/bzip2"
	"compress/gzip"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Source is an opened analysis file, decompressed according to its suffix.
type Source struct {
	Path string
	Hash string // sha256 of the raw file bytes

	r       io.Reader
	closers []io.Closer
}

// Open opens path, hashes it for idempotent storage and wraps it in the
// decompressor its suffix calls for (.zst, .gz, .bz2).
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open analysis: %w", err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		f.Close()
		return nil, fmt.Errorf("hash analysis: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek analysis: %w", err)
	}

	src := &Source{
		Path:    path,
		Hash:    fmt.Sprintf("%x", h.Sum(nil)),
		r:       f,
		closers: []io.Closer{f},
	}
	switch {
	case strings.HasSuffix(path, ".bz2"):
		src.r = bzip2.NewReader(f)
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc := dec.IOReadCloser()
		src.r = rc
		src.closers = append(src.closers, rc)
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		src.r = gz
		src.closers = append(src.closers, gz)
	}
	return src, nil
}

func (s *Source) Read(p []byte) (int, error) { return s.r.Read(p) }

// Close releases the decompressor and the file, innermost first.
func (s *Source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
