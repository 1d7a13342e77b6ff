package island

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"

	"github.com/psilLang/island/pkg/species"
)

var (
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	ErrInvalidPlants     = errors.New("invalid plant rules")
)

// Dice is the random source behaviours draw from. Intn returns a uniform
// integer in [0, n).
type Dice interface {
	Intn(n int) int
}

// NewDice returns a concurrency-safe random source. A zero seed picks one
// from the clock.
func NewDice(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(&rand.LockedSource{})
	r.Seed(seed)
	return r
}

// PlantRules configure biomass on every cell.
type PlantRules struct {
	Initial float64 // biomass each cell starts with
	Growth  float64 // added per growth sweep
	Cap     float64 // upper bound
	Lush    float64 // render threshold for the lush marker
}

// DefaultPlantRules returns the built-in biomass settings.
func DefaultPlantRules() PlantRules {
	return PlantRules{Initial: 0, Growth: 10, Cap: 200, Lush: 50}
}

func (r PlantRules) Validate() error {
	switch {
	case r.Growth < 0:
		return fmt.Errorf("%w: growth %.2f is negative", ErrInvalidPlants, r.Growth)
	case r.Cap <= 0:
		return fmt.Errorf("%w: cap %.2f must be positive", ErrInvalidPlants, r.Cap)
	case r.Initial < 0 || r.Initial > r.Cap:
		return fmt.Errorf("%w: initial %.2f outside [0, %.2f]", ErrInvalidPlants, r.Initial, r.Cap)
	case r.Lush < 0:
		return fmt.Errorf("%w: lush threshold %.2f is negative", ErrInvalidPlants, r.Lush)
	}
	return nil
}

// Grid is the fixed-size island. Cells are created once and never resized.
//
// Plants, Species, Dice and Log may be replaced after NewGrid and before the
// first sweep; they are read-only afterwards.
type Grid struct {
	Width, Height int

	Plants  PlantRules
	Species Builder
	Dice    Dice
	Log     *log.Logger

	cells  []*Cell
	sweeps atomic.Uint64
}

// NewGrid creates a width×height grid with the default species table and
// plant rules.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	g := &Grid{
		Width:   width,
		Height:  height,
		Plants:  DefaultPlantRules(),
		Species: species.DefaultTable(),
		Dice:    NewDice(0),
		Log:     log.New(io.Discard, "", 0),
		cells:   make([]*Cell, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := g.idx(x, y)
			g.cells[i] = newCell(x, y, i)
		}
	}
	return g, nil
}

func (g *Grid) idx(x, y int) int {
	return y*g.Width + x
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Cell returns the cell at (x, y), or false when out of bounds.
func (g *Grid) Cell(x, y int) (*Cell, bool) {
	if !g.InBounds(x, y) {
		return nil, false
	}
	return g.cells[g.idx(x, y)], true
}

// Clamp pulls a coordinate back inside the grid.
func (g *Grid) Clamp(x, y int) (int, int) {
	return clamp(x, 0, g.Width-1), clamp(y, 0, g.Height-1)
}

// Cells returns every cell in row-major order.
func (g *Grid) Cells() []*Cell {
	out := make([]*Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Sweeps returns the number of lifecycle sweeps started so far.
func (g *Grid) Sweeps() uint64 {
	return g.sweeps.Load()
}

// FillPlants sets every cell's biomass to amount, capped by the plant rules.
func (g *Grid) FillPlants(amount float64) {
	for _, c := range g.cells {
		c.mu.Lock()
		c.plants = 0
		c.growPlants(amount, g.Plants.Cap)
		c.mu.Unlock()
	}
}

// Place builds an animal of kind k and puts it on (x, y).
func (g *Grid) Place(k species.Kind, x, y int) (*Animal, error) {
	c, ok := g.Cell(x, y)
	if !ok {
		return nil, fmt.Errorf("place %s: (%d,%d) outside %dx%d grid", k, x, y, g.Width, g.Height)
	}
	a, err := Spawn(g.Species, k)
	if err != nil {
		return nil, err
	}
	c.AddAnimal(a)
	return a, nil
}

// Populate places n animals of random kinds on random cells.
func (g *Grid) Populate(n int) ([]*Animal, error) {
	kinds := species.Kinds()
	out := make([]*Animal, 0, n)
	for i := 0; i < n; i++ {
		k := kinds[g.Dice.Intn(len(kinds))]
		a, err := g.Place(k, g.Dice.Intn(g.Width), g.Dice.Intn(g.Height))
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

// lockPair locks two cells in ascending index order.
func lockPair(a, b *Cell) {
	if a == b {
		a.mu.Lock()
		return
	}
	if b.index < a.index {
		a, b = b, a
	}
	a.mu.Lock()
	b.mu.Lock()
}

func unlockPair(a, b *Cell) {
	a.mu.Unlock()
	if a != b {
		b.mu.Unlock()
	}
}

// move steps a one cell in dir from its current cell, clamped to the grid.
// At an edge the clamped destination is the source and nothing happens.
func (g *Grid) move(a *Animal, from *Cell, dir int) bool {
	to, _ := g.Cell(g.Clamp(step(from.X, from.Y, dir)))
	if to == from {
		return false
	}
	lockPair(from, to)
	defer unlockPair(from, to)
	if a.cell != from || !a.alive {
		return false
	}
	from.removeAnimal(a)
	return to.addAnimal(a)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
