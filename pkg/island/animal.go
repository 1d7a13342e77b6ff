package island

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/psilLang/island/pkg/species"
)

// Move directions
const (
	DirNorth = iota
	DirEast
	DirSouth
	DirWest
)

// Builder constructs the starting profile of a species variant.
// *species.Table is the production implementation.
type Builder interface {
	Profile(k species.Kind) (species.Profile, error)
}

// Animal is one creature. Its mutable state (weight, alive, acted) belongs
// to the cell that owns it and is only touched with that cell locked.
type Animal struct {
	ID      uuid.UUID
	profile species.Profile

	weight float64
	alive  bool
	acted  uint64 // last lifecycle sweep this animal took its turn in
	cell   *Cell
}

// NewAnimal creates a live animal from p.
func NewAnimal(p species.Profile) *Animal {
	return &Animal{
		ID:      uuid.New(),
		profile: p,
		weight:  p.Weight,
		alive:   true,
	}
}

// Spawn builds a new animal of kind k through b.
func Spawn(b Builder, k species.Kind) (*Animal, error) {
	p, err := b.Profile(k)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", k, err)
	}
	return NewAnimal(p), nil
}

func (a *Animal) Kind() species.Kind { return a.profile.Kind }

// Profile returns the species profile the animal was built from.
func (a *Animal) Profile() species.Profile { return a.profile }

// Weight and Alive read state guarded by the owning cell; call them while no
// lifecycle sweep is running, or use the snapshots from Stats and Render.
func (a *Animal) Weight() float64 { return a.weight }
func (a *Animal) Alive() bool     { return a.alive }

func (a *Animal) String() string {
	return fmt.Sprintf("%s(%s)", a.profile.Kind, a.ID.String()[:8])
}

// Eat lets a feed once in c.
func (a *Animal) Eat(c *Cell, d Dice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a.eat(c, d)
}

// Reproduce tries to add one offspring of a's kind to c. It returns nil
// when there is no partner or the draw fails. A construction error leaves
// the cell untouched.
func (a *Animal) Reproduce(c *Cell, d Dice, b Builder) (*Animal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return a.reproduce(c, d, b, 0)
}

// Move takes one random step on g. It reports whether the animal changed
// cells.
func (a *Animal) Move(c *Cell, g *Grid, d Dice) bool {
	c.mu.Lock()
	dir, ok := a.pickDirection(d)
	c.mu.Unlock()
	if !ok {
		return false
	}
	return g.move(a, c, dir)
}

// eat runs with c.mu held. Grazers eat plants when there are any; otherwise
// the cell's other animals are scanned for prey. It returns the animal
// killed, if any.
func (a *Animal) eat(c *Cell, d Dice) *Animal {
	if !a.alive {
		return nil
	}
	diet := a.profile.Diet
	if diet.EatsPlants() && c.plants > 0 {
		a.weight += c.removePlants(min(a.profile.FoodRequired, c.plants))
		return nil
	}
	for _, other := range c.animals {
		if other == a || !other.alive {
			continue
		}
		chance, ok := diet.Chance(other.profile.Kind)
		if !ok {
			continue
		}
		if d.Intn(100) < chance {
			a.weight += other.weight
			other.alive = false
			return other
		}
	}
	return nil
}

func (a *Animal) hasPartner(c *Cell) bool {
	for _, other := range c.animals {
		if other != a && other.alive && other.profile.Kind == a.profile.Kind {
			return true
		}
	}
	return false
}

// reproduce runs with c.mu held. Offspring are stamped with sweep so they
// sit out the sweep they were born in.
func (a *Animal) reproduce(c *Cell, d Dice, b Builder, sweep uint64) (*Animal, error) {
	if !a.alive || !a.hasPartner(c) {
		return nil, nil
	}
	if d.Intn(100) >= a.profile.ReproduceChance {
		return nil, nil
	}
	baby, err := Spawn(b, a.profile.Kind)
	if err != nil {
		return nil, err
	}
	baby.acted = sweep
	c.addAnimal(baby)
	return baby, nil
}

// pickDirection runs with the owning cell locked.
func (a *Animal) pickDirection(d Dice) (int, bool) {
	if !a.alive || a.profile.MaxSpeed == 0 {
		return 0, false
	}
	return d.Intn(4), true
}

func step(x, y, dir int) (int, int) {
	switch dir {
	case DirNorth:
		y--
	case DirEast:
		x++
	case DirSouth:
		y++
	case DirWest:
		x--
	}
	return x, y
}
