package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pable/go-chess-metrics/internal/model"
)

func TestFilterMoves(t *testing.T) {
	rows := []model.MoveScoreRow{
		{Ply: 9, Value: 0, Text: "0"},
		{Ply: 11, Value: -40, Text: "-40"},
		{Ply: 13, Value: -400, BestIsMate: true, Text: "?"},
		{Ply: 15, Value: -5, Text: "-5"},
	}

	if got := filterMoves(rows, false, 0); len(got) != 4 {
		t.Errorf("no filter: expected 4 rows, got %d", len(got))
	}
	got := filterMoves(rows, false, 30)
	if len(got) != 1 || got[0].Ply != 11 {
		t.Errorf("min-loss 30: unexpected rows %+v", got)
	}
	got = filterMoves(rows, true, 0)
	if len(got) != 1 || got[0].Ply != 13 {
		t.Errorf("mate-only: unexpected rows %+v", got)
	}
}

func TestWorstMoves(t *testing.T) {
	rows := []model.MoveScoreRow{
		{Ply: 1, Value: -10, Text: "-10"},
		{Ply: 3, Value: -90, Text: "-90"},
		{Ply: 5, Value: -500, Text: "?"},
		{Ply: 7, Value: -50, Text: "-50"},
		{Ply: 9, Value: 0, Text: "0"},
	}
	got := worstMoves(rows, 2)
	if len(got) != 2 || got[0].Ply != 3 || got[1].Ply != 7 {
		t.Errorf("expected plies 3 and 7 in ply order, got %+v", got)
	}
	if all := worstMoves(rows, 0); len(all) != 4 {
		t.Errorf("expected every comparable move, got %d", len(all))
	}
}

func TestFilterStats(t *testing.T) {
	stats := []model.StoredPlayerStats{
		{GameKey: "a", Date: "2019.03.01"},
		{GameKey: "b", Date: "2020.01.01"},
		{GameKey: "c", Date: "2021.07.15"},
		{GameKey: "d", Date: "2022.02.02"},
	}
	got := filterStats(stats, normaliseDate("2020-01-01"), 0)
	if len(got) != 3 || got[0].GameKey != "b" {
		t.Errorf("since: unexpected rows %+v", got)
	}
	got = filterStats(stats, "", 2)
	if len(got) != 2 || got[0].GameKey != "c" || got[1].GameKey != "d" {
		t.Errorf("last: unexpected rows %+v", got)
	}
}

func TestOutputFileAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "details.txt")
	write := func(text string, appendTo bool) {
		t.Helper()
		w, closeFn, err := outputFile(path, appendTo)
		if err != nil {
			t.Fatalf("outputFile: %v", err)
		}
		w.WriteString(text)
		if err := closeFn(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	write("one\n", false)
	write("two\n", true)
	b, _ := os.ReadFile(path)
	if string(b) != "one\ntwo\n" {
		t.Errorf("append: got %q", b)
	}

	write("three\n", false)
	b, _ = os.ReadFile(path)
	if string(b) != "three\n" {
		t.Errorf("truncate: got %q", b)
	}
}
