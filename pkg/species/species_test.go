package species

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultTableValid(t *testing.T) {
	tab := DefaultTable()
	for _, k := range Kinds() {
		p, err := tab.Profile(k)
		if err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		if p.Kind != k {
			t.Errorf("%s: profile kind is %s", k, p.Kind)
		}
		if !p.Diet.EatsPlants() && len(p.Diet.Prey) == 0 {
			t.Errorf("%s: empty diet", k)
		}
	}
	if len(Kinds()) != Count() {
		t.Fatalf("Kinds() returned %d kinds, Count() = %d", len(Kinds()), Count())
	}
}

func TestBuiltinProfiles(t *testing.T) {
	tab := DefaultTable()
	deer, _ := tab.Profile(Deer)
	if deer.Weight != 300 || deer.MaxPerCell != 20 || deer.MaxSpeed != 4 || deer.FoodRequired != 50 {
		t.Errorf("deer profile: %+v", deer)
	}
	cat, _ := tab.Profile(Caterpillar)
	if cat.MaxSpeed != 0 || cat.FoodRequired != 0 || cat.Weight != 0.01 {
		t.Errorf("caterpillar profile: %+v", cat)
	}
	if cat.ReproduceChance != DefaultReproduceChance {
		t.Errorf("reproduce chance: got %d want %d", cat.ReproduceChance, DefaultReproduceChance)
	}
}

func TestProfileCopiesAreIndependent(t *testing.T) {
	tab := DefaultTable()
	a, _ := tab.Profile(Wolf)
	a.Diet.Prey[Rabbit] = 0
	b, _ := tab.Profile(Wolf)
	if b.Diet.Prey[Rabbit] != 60 {
		t.Fatalf("table mutated through a returned profile: rabbit chance %d", b.Diet.Prey[Rabbit])
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"wolf", "Wolf", "WOLF"} {
		k, ok := Lookup(name)
		if !ok || k != Wolf {
			t.Errorf("Lookup(%q) = %v, %v", name, k, ok)
		}
	}
	if _, ok := Lookup("dragon"); ok {
		t.Error("Lookup(dragon) should fail")
	}
	if s := Kind(200).String(); s != "Kind(200)" {
		t.Errorf("invalid kind string: %q", s)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
		want   error
	}{
		{"negative weight", func(p *Profile) { p.Weight = -1 }, ErrInvalidProfile},
		{"negative speed", func(p *Profile) { p.MaxSpeed = -1 }, ErrInvalidProfile},
		{"reproduce above 100", func(p *Profile) { p.ReproduceChance = 101 }, ErrInvalidProfile},
		{"prey chance above 100", func(p *Profile) { p.Diet.Prey[Rabbit] = 150 }, ErrInvalidProfile},
		{"unknown prey", func(p *Profile) { p.Diet.Prey[Kind(99)] = 10 }, ErrUnknownKind},
		{"unknown kind", func(p *Profile) { p.Kind = kindCount }, ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := DefaultTable().Profile(Wolf)
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseDefinitions(t *testing.T) {
	src := `
# slower wolves, vegetarian foxes
species Wolf {
    speed 2
    weight 45.5
}
species fox {
    eats { plants 100 Mouse 10 }
    reproduce 50
}
`
	tab, err := ReadDefinitions("test.island", strings.NewReader(src), DefaultTable())
	if err != nil {
		t.Fatal(err)
	}
	wolf, _ := tab.Profile(Wolf)
	if wolf.MaxSpeed != 2 || wolf.Weight != 45.5 {
		t.Errorf("wolf: %+v", wolf)
	}
	if wolf.FoodRequired != 8 {
		t.Errorf("untouched field changed: food %.2f", wolf.FoodRequired)
	}
	fox, _ := tab.Profile(Fox)
	if !fox.Diet.EatsPlants() || fox.Diet.Prey[Mouse] != 10 || len(fox.Diet.Prey) != 1 {
		t.Errorf("fox diet: %+v", fox.Diet)
	}
	if fox.ReproduceChance != 50 {
		t.Errorf("fox reproduce: %d", fox.ReproduceChance)
	}

	orig, _ := DefaultTable().Profile(Wolf)
	if orig.MaxSpeed != 3 {
		t.Errorf("default table changed: %+v", orig)
	}
}

func TestParseDefinitionsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown species", `species Dragon { speed 1 }`, ErrUnknownKind},
		{"unknown prey", `species Wolf { eats { Dragon 10 } }`, ErrUnknownKind},
		{"chance out of range", `species Wolf { reproduce 300 }`, ErrInvalidProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := DefaultTable()
			_, err := ReadDefinitions("bad.island", strings.NewReader(tt.src), base)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			wolf, _ := base.Profile(Wolf)
			if wolf.ReproduceChance != DefaultReproduceChance {
				t.Fatal("base table modified by a failed load")
			}
		})
	}

	if _, err := ParseDefinitions("syntax.island", `species Wolf { speed }`); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestLoadDefinitionsFile(t *testing.T) {
	tab, err := LoadDefinitions("../../testdata/species/default.island", DefaultTable())
	if err != nil {
		t.Fatal(err)
	}
	cat, _ := tab.Profile(Caterpillar)
	if cat.MaxSpeed != 0 {
		t.Errorf("caterpillar speed %d", cat.MaxSpeed)
	}
	if _, err := LoadDefinitions("does-not-exist.island", DefaultTable()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
