package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pable/go-chess-metrics/internal/aggregator"
	"github.com/pable/go-chess-metrics/internal/model"
)

// StatsHeader is the column legend printed after the configuration line.
const StatsHeader = "# Date:Player:W/B:BD:EM:Depth:AE:sd:CV:Res:Hash:"

// WriteHeader writes the configuration comment and the column legend.
func WriteHeader(w io.Writer, configuration string) error {
	_, err := fmt.Fprintf(w, "# %s\n%s\n", configuration, StatsHeader)
	return err
}

// FormatLine renders one accepted measurement as a colon-separated record.
// With fullScores the per-move textual scores are appended.
func FormatLine(s model.PlayerGameStats, fullScores bool) string {
	var b strings.Builder
	b.WriteString(s.Year())
	b.WriteByte(':')
	b.WriteString(s.PaddedName())
	b.WriteByte(':')
	b.WriteString(s.Colour())
	fmt.Fprintf(&b, ":%3s", s.BookDepthText())
	fmt.Fprintf(&b, ":%3d", len(s.TextScores))
	fmt.Fprintf(&b, ":%2s", s.SearchDepth)
	fmt.Fprintf(&b, ":%8.2f:%6.1f:%5.2f:", s.AE(), s.SD(), s.CV)
	b.WriteString(shortResult(s.Result))
	b.WriteByte(':')
	b.WriteString(padHash(s.HashCode))
	b.WriteByte(':')
	if fullScores {
		for _, t := range s.TextScores {
			b.WriteString(t)
			b.WriteByte(':')
		}
	}
	return b.String()
}

func shortResult(r string) string {
	if len(r) >= 3 {
		return r[:3]
	}
	return fmt.Sprintf("%3s", r)
}

func padHash(h string) string {
	if len(h) >= 8 {
		return h
	}
	return strings.Repeat("0", 8-len(h)) + h
}

// EscapeTagValue quotes & and " in a tag value. A '/' escapes the character
// after it: before & or " it is dropped, before anything else both are kept.
// Values containing neither & nor " are returned unchanged.
func EscapeTagValue(v string) string {
	if !strings.ContainsAny(v, `&"`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		switch ch := v[i]; ch {
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&quot;")
		case '/':
			if i+1 >= len(v) {
				b.WriteByte(ch)
				continue
			}
			if next := v[i+1]; next != '&' && next != '"' {
				b.WriteByte(ch)
				b.WriteByte(next)
				i++
			}
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func writeTags(b *strings.Builder, g model.GameRecord) {
	for _, name := range g.TagOrder {
		fmt.Fprintf(b, "[%s \"%s\"]\n", name, EscapeTagValue(g.Tags[name]))
	}
}

// WriteGamePGN writes the game's tags and moves followed by its result.
func WriteGamePGN(w io.Writer, g model.GameRecord) error {
	var b strings.Builder
	writeTags(&b, g)
	for _, m := range g.Moves {
		b.WriteString(m)
		b.WriteByte(' ')
	}
	b.WriteString(g.Tag("Result"))
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDetails lists every analysed move with the engine's candidates.
func WriteDetails(w io.Writer, g model.GameRecord) error {
	var b strings.Builder
	for _, m := range g.Analysis.Moves {
		b.WriteString(m.Move)
		b.WriteByte('\n')
		for _, ev := range m.Evaluations {
			b.WriteString("  ")
			b.WriteString(ev.String())
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// Annotate writes the game as commented PGN text: a stats header per player,
// the book moves, then each analysed move with its evaluation and, where the
// engine preferred something else, the engine's choice.
func Annotate(w io.Writer, g model.GameRecord) error {
	var b strings.Builder
	writeTags(&b, g)
	b.WriteByte('\n')

	fmt.Fprintf(&b, "{ search depth = %s /\n", g.Analysis.SearchDepth)
	fmt.Fprintf(&b, "%s /\n", annotationStats(g, model.White))
	fmt.Fprintf(&b, "%s }\n\n", annotationStats(g, model.Black))

	for ply := 1; ply <= g.BookDepth() && ply <= len(g.Moves); ply++ {
		b.WriteString(g.Moves[ply-1])
		b.WriteByte(' ')
	}
	b.WriteByte('\n')

	for _, m := range g.Analysis.Moves {
		b.WriteString(m.Move)
		b.WriteByte(' ')
		ev, idx, found := m.EvaluationFor()
		if found {
			fmt.Fprintf(&b, "{ %s } ", ev.Value)
		}
		if best, ok := m.Best(); ok && (!found || idx != 0) {
			fmt.Fprintf(&b, "( %s { %s }) ", best.Move, best.Value)
		}
	}
	b.WriteString(g.Tag("Result"))
	b.WriteString("\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func annotationStats(g model.GameRecord, side model.Side) string {
	ps, _, err := aggregator.BuildPlayerStats(g, side, 0, aggregator.SideFromColour)
	if err != nil {
		ps.Scores = nil
	}
	ae, cv := ps.AE(), ps.CV
	if len(ps.Scores) == 0 {
		cv = ae
	}
	return fmt.Sprintf("%s: AE = %s, CV = %s, NM = %d",
		g.Player(side), model.FormatDecimal(ae), model.FormatDecimal(cv), len(ps.Scores))
}

// WriteCurveData writes each analysed move's best evaluation paired with the
// final result from the mover's point of view (1 win, -1 loss, 0 draw).
// Games without a decisive or drawn result are skipped.
func WriteCurveData(w io.Writer, g model.GameRecord) error {
	result := strings.TrimSpace(g.Tag("Result"))
	var white, black int
	switch {
	case strings.HasPrefix(result, "1-0"):
		white, black = 1, -1
	case strings.HasPrefix(result, "0-1"):
		white, black = -1, 1
	case strings.HasPrefix(result, "1/2"):
	default:
		return nil
	}

	var b strings.Builder
	b.WriteString("# Game\n")
	fmt.Fprintf(&b, "# HashCode %s\n", g.Tag("HashCode"))
	for _, m := range g.Analysis.Moves {
		best, ok := m.Best()
		if !ok {
			continue
		}
		v := black
		if m.White {
			v = white
		}
		fmt.Fprintf(&b, "%s %d\n", best.Value, v)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
