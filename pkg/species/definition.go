package species

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Definition files tune the built-in profiles:
//
//	# wolves are slower on this island
//	species Wolf {
//	    speed 2
//	    eats { Rabbit 60 Mouse 80 }
//	}
//
// Only existing variants can be named. Properties left out keep their
// current value; an eats block replaces the whole prey menu and plants entry.

// Document is the top-level AST node.
type Document struct {
	Species []*Decl `@@*`
}

// Decl: species Name { property* }
type Decl struct {
	Pos   lexer.Position
	Name  string      `"species" @Ident "{"`
	Props []*Property `@@* "}"`
}

// Property is one field assignment inside a species block.
type Property struct {
	Pos        lexer.Position
	Weight     *float64   `  "weight" @Number`
	MaxPerCell *int       `| "max_per_cell" @Number`
	Speed      *int       `| "speed" @Number`
	Food       *float64   `| "food" @Number`
	Reproduce  *int       `| "reproduce" @Number`
	Eats       *DietBlock `| "eats" @@`
}

// DietBlock: { (Name chance)* }
type DietBlock struct {
	Entries []*DietEntry `"{" @@* "}"`
}

// DietEntry pairs a prey name (or "plants") with a percent chance.
type DietEntry struct {
	Pos    lexer.Position
	Food   string `@Ident`
	Chance int    `@Number`
}

var defLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Punct", Pattern: `[{}]`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

// DefinitionParser parses species definition documents.
var DefinitionParser = participle.MustBuild[Document](
	participle.Lexer(defLexer),
	participle.Elide("Whitespace", "Comment"),
)

// ParseDefinitions parses a definition document.
func ParseDefinitions(filename, source string) (*Document, error) {
	return DefinitionParser.ParseString(filename, source)
}

// Apply writes every declaration of doc onto t. The table is left untouched
// when any declaration is invalid.
func (doc *Document) Apply(t *Table) error {
	staged := t.Clone()
	for _, d := range doc.Species {
		k, ok := Lookup(d.Name)
		if !ok {
			return fmt.Errorf("%s: %w %q", d.Pos, ErrUnknownKind, d.Name)
		}
		p := staged.profiles[k].Clone()
		for _, prop := range d.Props {
			if err := prop.apply(&p); err != nil {
				return err
			}
		}
		if err := staged.Set(p); err != nil {
			return fmt.Errorf("%s: %w", d.Pos, err)
		}
	}
	*t = *staged
	return nil
}

func (prop *Property) apply(p *Profile) error {
	switch {
	case prop.Weight != nil:
		p.Weight = *prop.Weight
	case prop.MaxPerCell != nil:
		p.MaxPerCell = *prop.MaxPerCell
	case prop.Speed != nil:
		p.MaxSpeed = *prop.Speed
	case prop.Food != nil:
		p.FoodRequired = *prop.Food
	case prop.Reproduce != nil:
		p.ReproduceChance = *prop.Reproduce
	case prop.Eats != nil:
		diet := Diet{Prey: make(map[Kind]int)}
		for _, e := range prop.Eats.Entries {
			if e.Food == PlantsName {
				diet.Plants = e.Chance
				continue
			}
			k, ok := Lookup(e.Food)
			if !ok {
				return fmt.Errorf("%s: %w %q", e.Pos, ErrUnknownKind, e.Food)
			}
			diet.Prey[k] = e.Chance
		}
		p.Diet = diet
	}
	return nil
}

// LoadDefinitions reads a definition file and applies it onto a copy of base.
func LoadDefinitions(path string, base *Table) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open species file: %w", err)
	}
	defer f.Close()
	return ReadDefinitions(path, f, base)
}

// ReadDefinitions parses r and applies it onto a copy of base.
func ReadDefinitions(filename string, r io.Reader, base *Table) (*Table, error) {
	doc, err := DefinitionParser.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse species file: %w", err)
	}
	t := base.Clone()
	if err := doc.Apply(t); err != nil {
		return nil, fmt.Errorf("invalid species file: %w", err)
	}
	return t, nil
}
