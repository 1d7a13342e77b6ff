package island

import "sync"

// Cell is one grid location: plant biomass plus the animals standing on it.
//
// All state is guarded by mu, including the mutable state of the animals the
// cell owns. Sweeps hold the lock for one step on one cell at a time.
type Cell struct {
	X, Y  int
	index int

	mu      sync.Mutex
	plants  float64
	animals []*Animal
}

func newCell(x, y, index int) *Cell {
	return &Cell{X: x, Y: y, index: index}
}

// AddAnimal places a in the cell. It refuses animals that are already here
// or still owned by another cell; a move must remove first.
func (c *Cell) AddAnimal(a *Animal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addAnimal(a)
}

// RemoveAnimal takes a out of the cell; a no-op if a is not here.
func (c *Cell) RemoveAnimal(a *Animal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeAnimal(a)
}

// GrowPlants adds increment to the biomass, capped at limit.
func (c *Cell) GrowPlants(increment, limit float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.growPlants(increment, limit)
}

// RemovePlants subtracts amount from the biomass without going below zero
// and returns what was actually removed.
func (c *Cell) RemovePlants(amount float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removePlants(amount)
}

// Plants returns the current biomass.
func (c *Cell) Plants() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plants
}

// Animals returns a copy of the cell's animal collection, dead ones included
// until the next cleanup.
func (c *Cell) Animals() []*Animal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Len returns the number of animals in the cell, dead ones included.
func (c *Cell) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.animals)
}

// The helpers below expect c.mu to be held.

func (c *Cell) has(a *Animal) bool {
	for _, x := range c.animals {
		if x == a {
			return true
		}
	}
	return false
}

func (c *Cell) addAnimal(a *Animal) bool {
	if a == nil || (a.cell != nil && a.cell != c) || c.has(a) {
		return false
	}
	c.animals = append(c.animals, a)
	a.cell = c
	return true
}

func (c *Cell) removeAnimal(a *Animal) bool {
	for i, x := range c.animals {
		if x == a {
			last := len(c.animals) - 1
			copy(c.animals[i:], c.animals[i+1:])
			c.animals[last] = nil
			c.animals = c.animals[:last]
			a.cell = nil
			return true
		}
	}
	return false
}

func (c *Cell) growPlants(increment, limit float64) float64 {
	if increment > 0 {
		c.plants += increment
	}
	if c.plants > limit {
		c.plants = limit
	}
	if c.plants < 0 {
		c.plants = 0
	}
	return c.plants
}

func (c *Cell) removePlants(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount > c.plants {
		amount = c.plants
	}
	c.plants -= amount
	return amount
}

func (c *Cell) snapshot() []*Animal {
	out := make([]*Animal, len(c.animals))
	copy(out, c.animals)
	return out
}

// removeDead drops every dead animal and returns how many went.
func (c *Cell) removeDead() int {
	alive := c.animals[:0]
	removed := 0
	for _, a := range c.animals {
		if a.alive {
			alive = append(alive, a)
		} else {
			a.cell = nil
			removed++
		}
	}
	for i := len(alive); i < len(c.animals); i++ {
		c.animals[i] = nil
	}
	c.animals = alive
	return removed
}
