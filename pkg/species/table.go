package species

import "fmt"

// DefaultReproduceChance is the percent chance that a paired animal produces
// an offspring in one lifecycle sweep.
const DefaultReproduceChance = 30

func prey(pairs ...any) map[Kind]int {
	m := make(map[Kind]int, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i].(Kind)] = pairs[i+1].(int)
	}
	return m
}

func grazer(k Kind, weight float64, perCell, speed int, food float64) Profile {
	return Profile{
		Kind:            k,
		Weight:          weight,
		MaxPerCell:      perCell,
		MaxSpeed:        speed,
		FoodRequired:    food,
		ReproduceChance: DefaultReproduceChance,
		Diet:            Diet{Plants: 100},
	}
}

func hunter(k Kind, weight float64, perCell, speed int, food float64, menu map[Kind]int) Profile {
	return Profile{
		Kind:            k,
		Weight:          weight,
		MaxPerCell:      perCell,
		MaxSpeed:        speed,
		FoodRequired:    food,
		ReproduceChance: DefaultReproduceChance,
		Diet:            Diet{Prey: menu},
	}
}

// builders is the construction dispatch for every variant. Offspring and
// seeded animals are always built through it, keyed by Kind.
var builders = [kindCount]func() Profile{
	Wolf: func() Profile {
		return hunter(Wolf, 50, 30, 3, 8, prey(Horse, 10, Deer, 15, Rabbit, 60, Mouse, 80, Goat, 60, Sheep, 70, Boar, 15, Buffalo, 10, Duck, 40))
	},
	Boa: func() Profile {
		return hunter(Boa, 15, 30, 1, 3, prey(Fox, 15, Rabbit, 20, Mouse, 40, Duck, 10))
	},
	Fox: func() Profile {
		return hunter(Fox, 8, 30, 2, 2, prey(Rabbit, 70, Mouse, 90, Duck, 60, Caterpillar, 40))
	},
	Bear: func() Profile {
		return hunter(Bear, 500, 5, 2, 80, prey(Boa, 80, Horse, 40, Deer, 80, Rabbit, 80, Mouse, 90, Goat, 70, Sheep, 70, Boar, 50, Buffalo, 20, Duck, 10))
	},
	Eagle: func() Profile {
		return hunter(Eagle, 6, 20, 3, 1, prey(Fox, 10, Rabbit, 90, Mouse, 90, Duck, 80))
	},
	Horse:   func() Profile { return grazer(Horse, 400, 20, 4, 60) },
	Deer:    func() Profile { return grazer(Deer, 300, 20, 4, 50) },
	Rabbit:  func() Profile { return grazer(Rabbit, 2, 150, 2, 0.45) },
	Goat:    func() Profile { return grazer(Goat, 60, 140, 3, 10) },
	Sheep:   func() Profile { return grazer(Sheep, 70, 140, 3, 15) },
	Buffalo: func() Profile { return grazer(Buffalo, 700, 10, 3, 100) },
	Mouse: func() Profile {
		p := grazer(Mouse, 0.05, 500, 1, 0.01)
		p.Diet.Prey = prey(Caterpillar, 90)
		return p
	},
	Boar: func() Profile {
		p := grazer(Boar, 400, 50, 2, 50)
		p.Diet.Prey = prey(Mouse, 50, Caterpillar, 90)
		return p
	},
	Duck: func() Profile {
		p := grazer(Duck, 1, 200, 4, 0.15)
		p.Diet.Prey = prey(Caterpillar, 90)
		return p
	},
	// Caterpillars never move.
	Caterpillar: func() Profile { return grazer(Caterpillar, 0.01, 1000, 0, 0) },
}

// Table maps every species variant to the profile new animals of that
// variant start from. A Table is read-only once the simulation starts.
type Table struct {
	profiles [kindCount]Profile
}

// DefaultTable returns the built-in profiles.
func DefaultTable() *Table {
	t := &Table{}
	for k := Kind(0); k < kindCount; k++ {
		t.profiles[k] = builders[k]()
	}
	return t
}

// Profile returns a copy of the profile for k.
func (t *Table) Profile(k Kind) (Profile, error) {
	if !k.Valid() {
		return Profile{}, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	p := t.profiles[k].Clone()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Set replaces the profile for p.Kind after validating it.
func (t *Table) Set(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	t.profiles[p.Kind] = p.Clone()
	return nil
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{}
	for k := range t.profiles {
		out.profiles[k] = t.profiles[k].Clone()
	}
	return out
}
