// Package config loads island settings from embedded defaults, an optional
// YAML file and ISLAND_* environment variables, in that order.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/psilLang/island/pkg/island"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalid = errors.New("invalid config")

// Config is the full set of run settings.
type Config struct {
	Grid        GridConfig     `yaml:"grid"`
	Population  int            `yaml:"population"`
	Seed        uint64         `yaml:"seed"`
	Plants      PlantsConfig   `yaml:"plants"`
	Schedule    ScheduleConfig `yaml:"schedule"`
	SpeciesFile string         `yaml:"species_file"`
	Console     ConsoleConfig  `yaml:"console"`
	Feed        FeedConfig     `yaml:"feed"`
}

type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PlantsConfig mirrors island.PlantRules.
type PlantsConfig struct {
	Initial float64 `yaml:"initial"`
	Growth  float64 `yaml:"growth"`
	Cap     float64 `yaml:"cap"`
	Lush    float64 `yaml:"lush"` // render threshold
}

// TimingConfig takes Go duration strings ("1500ms", "2s").
type TimingConfig struct {
	Period time.Duration `yaml:"period"`
	Delay  time.Duration `yaml:"delay"`
}

type ScheduleConfig struct {
	Growth    TimingConfig `yaml:"growth"`
	Lifecycle TimingConfig `yaml:"lifecycle"`
	Stats     TimingConfig `yaml:"stats"`
	Render    TimingConfig `yaml:"render"`
}

type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
	Clear   bool `yaml:"clear"` // scroll the previous frame away before drawing
}

// FeedConfig controls the websocket feed. An empty Listen disables it.
type FeedConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load reads path over the embedded defaults. Keys missing from the file keep
// their default value. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files (".env" when none are named) into the
// process environment. Missing files are not an error; variables already set
// in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from ISLAND_* environment variables.
func (c *Config) ApplyEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"ISLAND_WIDTH", &c.Grid.Width},
		{"ISLAND_HEIGHT", &c.Grid.Height},
		{"ISLAND_ANIMALS", &c.Population},
	}
	for _, v := range ints {
		s, ok := os.LookupEnv(v.name)
		if !ok || s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, v.name, s)
		}
		*v.dst = n
	}
	if s := os.Getenv("ISLAND_SEED"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: ISLAND_SEED=%q: %v", ErrInvalid, s, err)
		}
		c.Seed = n
	}
	if s := os.Getenv("ISLAND_SPECIES"); s != "" {
		c.SpeciesFile = s
	}
	if s, ok := os.LookupEnv("ISLAND_LISTEN"); ok {
		c.Feed.Listen = s
	}
	return c.Validate()
}

// Validate checks the settings without building anything.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d: %v", ErrInvalid, c.Grid.Width, c.Grid.Height, island.ErrInvalidDimensions)
	}
	if c.Population < 0 {
		return fmt.Errorf("%w: population %d is negative", ErrInvalid, c.Population)
	}
	if err := c.PlantRules().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.IslandSchedule().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) PlantRules() island.PlantRules {
	return island.PlantRules{
		Initial: c.Plants.Initial,
		Growth:  c.Plants.Growth,
		Cap:     c.Plants.Cap,
		Lush:    c.Plants.Lush,
	}
}

func (c *Config) IslandSchedule() island.Schedule {
	t := func(tc TimingConfig) island.Timing {
		return island.Timing{Period: tc.Period, Delay: tc.Delay}
	}
	return island.Schedule{
		Growth:    t(c.Schedule.Growth),
		Lifecycle: t(c.Schedule.Lifecycle),
		Stats:     t(c.Schedule.Stats),
		Render:    t(c.Schedule.Render),
	}
}

// YAML returns the effective settings as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
