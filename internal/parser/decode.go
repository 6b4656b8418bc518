package parser

import (
	"crypto/sha256"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pable/go-chess-metrics/internal/model"
)

// GameError reports a game that could not be produced. Decoding can continue
// with the next game.
type GameError struct {
	Index int // 1-based position of the game in the document
	Err   error
}

func (e *GameError) Error() string { return fmt.Sprintf("game %d: %v", e.Index, e.Err) }

func (e *GameError) Unwrap() error { return e.Err }

var errNoAnalysis = errors.New("no analysis element")

// Placeholders used by the analyser for empty elements.
const (
	missingMoves  = "??"
	missingPlayed = "???"
)

type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

type xmlGame struct {
	Tags     *xmlNode `xml:"tags"`
	Moves    *xmlNode `xml:"moves"`
	Analysis *xmlNode `xml:"analysis"`
}

// Decoder streams <game> elements out of a <gamelist> document.
type Decoder struct {
	d   *xml.Decoder
	log zerolog.Logger
	n   int
}

// NewDecoder returns a decoder reading from r. Input is treated as UTF-8
// regardless of the declared encoding.
func NewDecoder(r io.Reader, log zerolog.Logger) *Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	return &Decoder{d: d, log: log}
}

// Next returns the next game. It returns io.EOF at the end of the document
// and a *GameError for a game that was skipped.
func (d *Decoder) Next() (model.GameRecord, error) {
	for {
		tok, err := d.d.Token()
		if err != nil {
			if err == io.EOF {
				return model.GameRecord{}, io.EOF
			}
			return model.GameRecord{}, fmt.Errorf("xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "game" {
			continue
		}
		d.n++
		var xg xmlGame
		if err := d.d.DecodeElement(&xg, &start); err != nil {
			return model.GameRecord{}, fmt.Errorf("xml: %w", err)
		}
		g, err := d.build(xg)
		if err != nil {
			return model.GameRecord{}, &GameError{Index: d.n, Err: err}
		}
		return g, nil
	}
}

// ReadAll decodes every game, logging and skipping the ones that fail.
func (d *Decoder) ReadAll() ([]model.GameRecord, int, error) {
	var games []model.GameRecord
	skipped := 0
	for {
		g, err := d.Next()
		if err == io.EOF {
			return games, skipped, nil
		}
		var ge *GameError
		if errors.As(err, &ge) {
			d.log.Warn().Err(err).Msg("skipping game")
			skipped++
			continue
		}
		if err != nil {
			return games, skipped, err
		}
		games = append(games, g)
	}
}

func (d *Decoder) build(xg xmlGame) (model.GameRecord, error) {
	if xg.Analysis == nil {
		return model.GameRecord{}, errNoAnalysis
	}
	g := model.GameRecord{Tags: make(map[string]string)}
	if xg.Tags != nil {
		for _, t := range xg.Tags.Children {
			if t.XMLName.Local != "tag" {
				continue
			}
			name, value, ok := pair(t.Attrs, "name", "value")
			if !ok {
				continue
			}
			if _, dup := g.Tags[name]; !dup {
				g.TagOrder = append(g.TagOrder, name)
			}
			g.Tags[name] = value
		}
	}

	movesText := missingMoves
	if xg.Moves != nil && strings.TrimSpace(xg.Moves.Text) != "" {
		movesText = xg.Moves.Text
	}
	g.Moves = splitMoves(movesText)

	analysis, err := d.analysis(*xg.Analysis)
	if err != nil {
		return model.GameRecord{}, err
	}
	g.Analysis = analysis
	g.Key = gameKey(g, movesText)
	return g, nil
}

// splitMoves drops the leading move-count token and the trailing result token.
func splitMoves(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) <= 2 {
		return []string{}
	}
	return tokens[1 : len(tokens)-1]
}

func (d *Decoder) analysis(n xmlNode) (model.AnalysedGame, error) {
	a := model.NewAnalysedGame()
	for _, attr := range n.Attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "searchdepth":
			a.SearchDepth = attr.Value
		case "bookdepth":
			v, err := strconv.Atoi(strings.TrimSpace(attr.Value))
			if err != nil {
				return a, fmt.Errorf("bad bookDepth %q: %w", attr.Value, err)
			}
			if v < 0 {
				v = -1
			}
			a.BookDepth = v
		case "engine":
			a.EngineID = attr.Value
		}
	}

	// Older analyser output has no player attribute; colours then alternate
	// starting with white.
	white := true
	for _, mv := range n.Children {
		if mv.XMLName.Local != "move" {
			continue
		}
		for _, attr := range mv.Attrs {
			if !strings.EqualFold(attr.Name.Local, "player") {
				continue
			}
			switch {
			case strings.EqualFold(attr.Value, "white"):
				white = true
			case strings.EqualFold(attr.Value, "black"):
				white = false
			}
		}
		if pm, ok := d.playedMove(mv, white); ok {
			a.Moves = append(a.Moves, pm)
		}
		white = !white
	}
	return a, nil
}

func (d *Decoder) playedMove(n xmlNode, white bool) (model.PlayedMove, bool) {
	var pm model.PlayedMove
	found := false
	for _, c := range n.Children {
		switch c.XMLName.Local {
		case "played":
			text := strings.TrimSpace(c.Text)
			if text == "" || len(c.Children) > 0 {
				text = missingPlayed
			}
			pm = model.PlayedMove{Move: text, White: white}
			found = true
		case "evaluation":
			move, value, ok := pair(c.Attrs, "move", "value")
			if !ok {
				continue
			}
			if !found {
				d.log.Warn().Str("move", move).Msg("evaluation before played move, ignoring")
				continue
			}
			pm.Evaluations = append(pm.Evaluations, model.Evaluation{Move: move, Value: value})
		}
	}
	return pm, found
}

// pair extracts two named attributes. When the names are absent but there
// are exactly two attributes, they are taken in name order.
func pair(attrs []xml.Attr, first, second string) (string, string, bool) {
	var a, b string
	var okA, okB bool
	for _, attr := range attrs {
		switch {
		case strings.EqualFold(attr.Name.Local, first):
			a, okA = attr.Value, true
		case strings.EqualFold(attr.Name.Local, second):
			b, okB = attr.Value, true
		}
	}
	if okA && okB {
		return a, b, true
	}
	if len(attrs) != 2 {
		return "", "", false
	}
	sorted := append([]xml.Attr(nil), attrs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name.Local < sorted[j].Name.Local })
	return sorted[0].Value, sorted[1].Value, true
}

func gameKey(g model.GameRecord, movesText string) string {
	h := sha256.New()
	for _, name := range g.TagOrder {
		fmt.Fprintf(h, "%s=%s\n", name, g.Tags[name])
	}
	fmt.Fprintf(h, "%s\n%d|%s|%s\n", strings.Join(strings.Fields(movesText), " "),
		g.Analysis.BookDepth, g.Analysis.SearchDepth, g.Analysis.EngineID)
	return fmt.Sprintf("%x", h.Sum(nil))
}
