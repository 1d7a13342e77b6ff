// Package species defines the closed set of animal variants living on the
// island and the profile record each variant is built from.
package species

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one species variant.
type Kind uint8

const (
	Wolf Kind = iota
	Boa
	Fox
	Bear
	Eagle
	Horse
	Deer
	Rabbit
	Mouse
	Goat
	Sheep
	Boar
	Buffalo
	Duck
	Caterpillar

	kindCount
)

// PlantsName is the diet key for plant biomass in definition files.
const PlantsName = "plants"

var kindNames = [kindCount]string{
	Wolf:        "Wolf",
	Boa:         "Boa",
	Fox:         "Fox",
	Bear:        "Bear",
	Eagle:       "Eagle",
	Horse:       "Horse",
	Deer:        "Deer",
	Rabbit:      "Rabbit",
	Mouse:       "Mouse",
	Goat:        "Goat",
	Sheep:       "Sheep",
	Boar:        "Boar",
	Buffalo:     "Buffalo",
	Duck:        "Duck",
	Caterpillar: "Caterpillar",
}

var (
	ErrUnknownKind    = errors.New("unknown species kind")
	ErrInvalidProfile = errors.New("invalid species profile")
)

func (k Kind) Valid() bool { return k < kindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

// Kinds returns every species variant in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Count is the number of species variants.
func Count() int { return int(kindCount) }

// Lookup resolves a species name, ignoring case.
func Lookup(name string) (Kind, bool) {
	for k := Kind(0); k < kindCount; k++ {
		if strings.EqualFold(kindNames[k], name) {
			return k, true
		}
	}
	return 0, false
}

// Diet holds the percent chance (0-100) that an eat attempt succeeds against
// plants or a given prey species. A zero plant chance means the species does
// not graze.
type Diet struct {
	Plants int
	Prey   map[Kind]int
}

// EatsPlants reports whether the diet includes plant biomass.
func (d Diet) EatsPlants() bool { return d.Plants > 0 }

// Chance returns the predation chance against prey, if prey is on the menu.
func (d Diet) Chance(prey Kind) (int, bool) {
	c, ok := d.Prey[prey]
	return c, ok
}

func (d Diet) clone() Diet {
	out := Diet{Plants: d.Plants}
	if d.Prey != nil {
		out.Prey = make(map[Kind]int, len(d.Prey))
		for k, v := range d.Prey {
			out.Prey[k] = v
		}
	}
	return out
}

// Profile is the baseline configuration of a species variant.
type Profile struct {
	Kind            Kind
	Weight          float64
	MaxPerCell      int // carried but not enforced by the lifecycle sweep
	MaxSpeed        int
	FoodRequired    float64
	ReproduceChance int
	Diet            Diet
}

// Clone returns a deep copy, so callers can tweak a profile without touching
// the table it came from.
func (p Profile) Clone() Profile {
	p.Diet = p.Diet.clone()
	return p
}

// Validate checks the profile's numeric ranges.
func (p Profile) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, p.Kind)
	}
	switch {
	case p.Weight < 0:
		return fmt.Errorf("%w: %s weight %.2f is negative", ErrInvalidProfile, p.Kind, p.Weight)
	case p.MaxPerCell < 0:
		return fmt.Errorf("%w: %s max per cell %d is negative", ErrInvalidProfile, p.Kind, p.MaxPerCell)
	case p.MaxSpeed < 0:
		return fmt.Errorf("%w: %s speed %d is negative", ErrInvalidProfile, p.Kind, p.MaxSpeed)
	case p.FoodRequired < 0:
		return fmt.Errorf("%w: %s food %.2f is negative", ErrInvalidProfile, p.Kind, p.FoodRequired)
	case p.ReproduceChance < 0 || p.ReproduceChance > 100:
		return fmt.Errorf("%w: %s reproduce chance %d outside 0-100", ErrInvalidProfile, p.Kind, p.ReproduceChance)
	case p.Diet.Plants < 0 || p.Diet.Plants > 100:
		return fmt.Errorf("%w: %s plant chance %d outside 0-100", ErrInvalidProfile, p.Kind, p.Diet.Plants)
	}
	for prey, c := range p.Diet.Prey {
		if !prey.Valid() {
			return fmt.Errorf("%w: %s eats %d", ErrUnknownKind, p.Kind, prey)
		}
		if c < 0 || c > 100 {
			return fmt.Errorf("%w: %s chance against %s %d outside 0-100", ErrInvalidProfile, p.Kind, prey, c)
		}
	}
	return nil
}
