// Command island runs the island ecosystem simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/psilLang/island/pkg/config"
	"github.com/psilLang/island/pkg/console"
	"github.com/psilLang/island/pkg/feed"
	"github.com/psilLang/island/pkg/island"
	"github.com/psilLang/island/pkg/species"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults built in)")
	envFile := flag.String("env", ".env", "dotenv file with ISLAND_* overrides (missing is fine)")
	speciesFile := flag.String("species", "", "species definition file")
	width := flag.Int("width", 0, "grid width (0 = from config)")
	height := flag.Int("height", 0, "grid height (0 = from config)")
	animals := flag.Int("animals", -1, "initial animal count (-1 = from config)")
	seed := flag.Uint64("seed", 0, "random seed (0 = from config, else time-based)")
	duration := flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	listen := flag.String("listen", "", "serve the websocket feed on this address, e.g. :8080")
	quiet := flag.Bool("quiet", false, "do not draw the island on stdout")
	verbose := flag.Bool("verbose", false, "log scheduler and lifecycle activity to stderr")
	dumpConfig := flag.Bool("dump-config", false, "print the effective config as YAML and exit")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fatal(err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fatal(err)
	}

	if *speciesFile != "" {
		cfg.SpeciesFile = *speciesFile
	}
	if *width > 0 {
		cfg.Grid.Width = *width
	}
	if *height > 0 {
		cfg.Grid.Height = *height
	}
	if *animals >= 0 {
		cfg.Population = *animals
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *listen != "" {
		cfg.Feed.Listen = *listen
	}
	if *quiet {
		cfg.Console.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if *dumpConfig {
		data, err := cfg.YAML()
		if err != nil {
			fatal(err)
		}
		os.Stdout.Write(data)
		return
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := log.New(logOut, "", log.Ltime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// run builds the island from cfg and drives it until ctx is done.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	sim, hub, err := build(cfg, logger, out)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Simulation started!")
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sim.Run(ctx) })
	if hub != nil {
		g.Go(func() error { return feed.Serve(ctx, cfg.Feed.Listen, hub) })
	}
	err = g.Wait()

	fmt.Fprintf(out, "Simulation finished after %v and %d lifecycle sweeps.\n",
		time.Since(start).Round(time.Millisecond), sim.Grid.Sweeps())
	printCounters(out, sim.Counters())
	return err
}

// build wires the grid, species table, simulation and observers. The hub is
// nil when the feed is disabled.
func build(cfg *config.Config, logger *log.Logger, out io.Writer) (*island.Simulation, *feed.Hub, error) {
	table := species.DefaultTable()
	if cfg.SpeciesFile != "" {
		t, err := species.LoadDefinitions(cfg.SpeciesFile, table)
		if err != nil {
			return nil, nil, err
		}
		table = t
	}

	grid, err := island.NewGrid(cfg.Grid.Width, cfg.Grid.Height)
	if err != nil {
		return nil, nil, err
	}
	grid.Plants = cfg.PlantRules()
	grid.Species = table
	grid.Dice = island.NewDice(cfg.Seed)
	grid.Log = logger

	sim, err := island.NewSimulation(grid, cfg.IslandSchedule())
	if err != nil {
		return nil, nil, err
	}
	sim.Population = cfg.Population
	sim.Log = logger

	var observers island.Observers
	if cfg.Console.Enabled {
		p := console.New(out)
		p.Clear = cfg.Console.Clear
		observers = append(observers, p)
	}
	var hub *feed.Hub
	if cfg.Feed.Listen != "" {
		hub = feed.NewHub()
		hub.Log = logger
		observers = append(observers, hub)
	}
	sim.Observer = observers
	return sim, hub, nil
}

func printCounters(out io.Writer, counters map[string]island.ActivityCounters) {
	names := maps.Keys(counters)
	slices.Sort(names)
	for _, name := range names {
		c := counters[name]
		fmt.Fprintf(out, "  %-10s runs=%d skipped=%d\n", name, c.Runs, c.Skipped)
	}
}
