// Package console draws island snapshots as emoji text.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/psilLang/island/pkg/island"
	"github.com/psilLang/island/pkg/species"
)

const (
	LushGlyph  = "🌿"
	EmptyGlyph = "."

	clearLines = 50
	historyLen = 40
)

var glyphs = map[species.Kind]string{
	species.Wolf:        "🐺",
	species.Bear:        "🐻",
	species.Fox:         "🦊",
	species.Boa:         "🐍",
	species.Eagle:       "🦅",
	species.Horse:       "🐎",
	species.Deer:        "🦌",
	species.Rabbit:      "🐇",
	species.Mouse:       "🐁",
	species.Goat:        "🐐",
	species.Sheep:       "🐑",
	species.Boar:        "🐗",
	species.Buffalo:     "🐃",
	species.Duck:        "🦆",
	species.Caterpillar: "🐛",
}

// Glyph returns the emoji for one render cell.
func Glyph(g island.Glyph) string {
	switch {
	case g.Animal:
		if s, ok := glyphs[g.Kind]; ok {
			return s
		}
		return "?"
	case g.Lush:
		return LushGlyph
	}
	return EmptyGlyph
}

// Printer writes frames and statistics to Output. It implements
// island.Observer; writes are serialised so frames and stats never
// interleave.
type Printer struct {
	Output io.Writer
	Clear  bool // push the previous frame off screen before each frame

	mu      sync.Mutex
	history []int
}

func New(w io.Writer) *Printer {
	return &Printer{Output: w, Clear: true}
}

func (p *Printer) ObserveFrame(f island.Frame) {
	var sb strings.Builder
	if p.Clear {
		sb.WriteString(strings.Repeat("\n", clearLines))
	}
	sb.WriteString(FormatFrame(f))

	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.Output, sb.String())
}

func (p *Printer) ObserveStats(s island.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, s.Animals)
	if len(p.history) > historyLen {
		p.history = p.history[len(p.history)-historyLen:]
	}
	io.WriteString(p.Output, FormatStats(s, p.history))
}

// FormatFrame renders f one row per line, glyphs separated by spaces.
func FormatFrame(f island.Frame) string {
	var sb strings.Builder
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			sb.WriteString(Glyph(f.At(x, y)))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

// FormatStats renders the statistics block. history, if given, is drawn as a
// population sparkline.
func FormatStats(s island.Stats, history []int) string {
	var sb strings.Builder
	sb.WriteString("=== STATISTICS ===\n")
	fmt.Fprintf(&sb, "Sweep %d  Animals: %d, Plants: %.1f\n", s.Sweep, s.Animals, s.Plants)
	for _, name := range s.Names() {
		fmt.Fprintf(&sb, "%s: %d\n", name, s.Species[name])
	}
	if len(history) > 1 {
		sb.WriteString(sparkline("population", history))
		sb.WriteByte('\n')
	}
	sb.WriteString("==================\n")
	return sb.String()
}

func sparkline(label string, values []int) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(values)
	if n == 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-11s [%d→%d]\t", label, values[0], values[n-1])

	span := hi - lo
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = (v - lo) * (len(blocks) - 1) / span
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}
