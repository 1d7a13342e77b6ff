package island

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/psilLang/island/pkg/species"
)

// LifecycleReport summarises one lifecycle sweep.
type LifecycleReport struct {
	Sweep   uint64
	Acted   int
	Kills   int
	Births  int
	Moves   int
	Failed  int // offspring that could not be built
	Removed int // dead animals dropped by cleanup
}

// Stats is a read-only aggregate over the whole grid.
type Stats struct {
	Sweep   uint64
	Animals int
	Plants  float64
	Species map[string]int
}

// Names returns the species present, sorted.
func (s Stats) Names() []string {
	names := maps.Keys(s.Species)
	slices.Sort(names)
	return names
}

// Glyph is what a renderer should draw for one cell.
type Glyph struct {
	Animal bool
	Kind   species.Kind // valid when Animal is set
	Lush   bool
}

// Frame is a render snapshot in row-major order.
type Frame struct {
	Width, Height int
	Glyphs        []Glyph
}

// At returns the glyph at (x, y).
func (f Frame) At(x, y int) Glyph {
	return f.Glyphs[y*f.Width+x]
}

// GrowPlants adds one growth increment to every cell.
func (g *Grid) GrowPlants() {
	for _, c := range g.cells {
		c.GrowPlants(g.Plants.Growth, g.Plants.Cap)
	}
}

// Lifecycle gives every live animal one turn (eat, reproduce, move) and then
// runs Cleanup. Dead animals stay in their cells until the cleanup pass.
func (g *Grid) Lifecycle() LifecycleReport {
	rep := LifecycleReport{Sweep: g.sweeps.Add(1)}
	for _, c := range g.cells {
		g.lifecycleStep(c, &rep)
	}
	rep.Removed = g.Cleanup()
	return rep
}

// lifecycleStep visits the animals that were in c when the step began.
// Each animal's eat and reproduce run under c's lock; the move takes the
// source and destination locks in index order.
func (g *Grid) lifecycleStep(c *Cell, rep *LifecycleReport) {
	c.mu.Lock()
	residents := c.snapshot()
	c.mu.Unlock()

	for _, a := range residents {
		c.mu.Lock()
		if a.cell != c || !a.alive || a.acted == rep.Sweep {
			c.mu.Unlock()
			continue
		}
		a.acted = rep.Sweep
		rep.Acted++
		if prey := a.eat(c, g.Dice); prey != nil {
			rep.Kills++
		}
		baby, err := a.reproduce(c, g.Dice, g.Species, rep.Sweep)
		switch {
		case err != nil:
			rep.Failed++
			g.Log.Printf("[Lifecycle] %s at (%d,%d): offspring dropped: %v", a, c.X, c.Y, err)
		case baby != nil:
			rep.Births++
		}
		dir, moving := a.pickDirection(g.Dice)
		c.mu.Unlock()

		if moving && g.move(a, c, dir) {
			rep.Moves++
		}
	}
}

// Cleanup removes every dead animal from every cell.
func (g *Grid) Cleanup() int {
	removed := 0
	for _, c := range g.cells {
		c.mu.Lock()
		removed += c.removeDead()
		c.mu.Unlock()
	}
	return removed
}

// Stats counts live animals by species and totals the biomass.
func (g *Grid) Stats() Stats {
	s := Stats{Sweep: g.sweeps.Load(), Species: make(map[string]int)}
	for _, c := range g.cells {
		c.mu.Lock()
		s.Plants += c.plants
		for _, a := range c.animals {
			if a.alive {
				s.Species[a.profile.Kind.String()]++
				s.Animals++
			}
		}
		c.mu.Unlock()
	}
	return s
}

// Render picks a glyph per cell: the heaviest live animal, else the lush
// marker when biomass is above the threshold, else empty.
func (g *Grid) Render() Frame {
	f := Frame{Width: g.Width, Height: g.Height, Glyphs: make([]Glyph, len(g.cells))}
	for i, c := range g.cells {
		c.mu.Lock()
		var top *Animal
		for _, a := range c.animals {
			if a.alive && (top == nil || a.weight > top.weight) {
				top = a
			}
		}
		switch {
		case top != nil:
			f.Glyphs[i] = Glyph{Animal: true, Kind: top.profile.Kind}
		case c.plants > g.Plants.Lush:
			f.Glyphs[i] = Glyph{Lush: true}
		}
		c.mu.Unlock()
	}
	return f
}
