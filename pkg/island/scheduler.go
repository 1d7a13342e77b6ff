package island

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	ErrInvalidPeriod  = errors.New("activity period must be positive")
	ErrAlreadyStarted = errors.New("simulation already started")
	ErrNotRunning     = errors.New("simulation not running")
)

// Observer receives the read-only snapshots produced by the statistics and
// render activities. Methods are called from the activity goroutines; the
// two may run concurrently with each other.
type Observer interface {
	ObserveStats(Stats)
	ObserveFrame(Frame)
}

// Observers fans snapshots out to several observers in order.
type Observers []Observer

func (obs Observers) ObserveStats(s Stats) {
	for _, o := range obs {
		o.ObserveStats(s)
	}
}

func (obs Observers) ObserveFrame(f Frame) {
	for _, o := range obs {
		o.ObserveFrame(f)
	}
}

// Timing is how often an activity runs and how long it waits before the
// first run.
type Timing struct {
	Period time.Duration
	Delay  time.Duration
}

// Schedule holds the timing of the four activities.
type Schedule struct {
	Growth    Timing
	Lifecycle Timing
	Stats     Timing
	Render    Timing
}

// DefaultSchedule returns the built-in timings.
func DefaultSchedule() Schedule {
	return Schedule{
		Growth:    Timing{Period: 2 * time.Second},
		Lifecycle: Timing{Period: 3 * time.Second, Delay: time.Second},
		Stats:     Timing{Period: 5 * time.Second, Delay: 2 * time.Second},
		Render:    Timing{Period: time.Second},
	}
}

func (s Schedule) Validate() error {
	for _, t := range []struct {
		name string
		Timing
	}{
		{"growth", s.Growth},
		{"lifecycle", s.Lifecycle},
		{"stats", s.Stats},
		{"render", s.Render},
	} {
		if t.Period <= 0 {
			return fmt.Errorf("%w: %s period %v", ErrInvalidPeriod, t.name, t.Period)
		}
		if t.Delay < 0 {
			return fmt.Errorf("%w: %s delay %v is negative", ErrInvalidPeriod, t.name, t.Delay)
		}
	}
	return nil
}

// State is the simulation lifecycle: idle → running → stopped.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ActivityCounters reports how often an activity ran and how often it was
// skipped because the previous run had not finished.
type ActivityCounters struct {
	Runs    int64
	Skipped int64
}

type activity struct {
	name string
	Timing
	run func()

	sem     *semaphore.Weighted
	runs    atomic.Int64
	skipped atomic.Int64
}

// Simulation drives the four recurring activities against one grid.
type Simulation struct {
	Grid       *Grid
	Schedule   Schedule
	Population int
	Observer   Observer
	Log        *log.Logger

	mu         sync.Mutex
	state      State
	cancel     context.CancelFunc
	group      *errgroup.Group
	activities []*activity
}

// NewSimulation prepares a simulation over g. Population, Observer and Log
// can be set before Start.
func NewSimulation(g *Grid, sched Schedule) (*Simulation, error) {
	if g == nil {
		return nil, errors.New("simulation needs a grid")
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	if err := g.Plants.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{
		Grid:     g,
		Schedule: sched,
		Observer: Observers(nil),
		Log:      log.New(io.Discard, "", 0),
	}, nil
}

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Counters returns run/skip counts per activity name.
func (s *Simulation) Counters() map[string]ActivityCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]ActivityCounters, len(s.activities))
	for _, a := range s.activities {
		out[a.name] = ActivityCounters{Runs: a.runs.Load(), Skipped: a.skipped.Load()}
	}
	return out
}

// Start seeds the grid with plants and Population random animals, then
// starts the four activities. It returns immediately.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("%w (state %s)", ErrAlreadyStarted, s.state)
	}

	s.Grid.FillPlants(s.Grid.Plants.Initial)
	if _, err := s.Grid.Populate(s.Population); err != nil {
		return fmt.Errorf("failed to populate island: %w", err)
	}

	s.activities = []*activity{
		s.newActivity("growth", s.Schedule.Growth, s.Grid.GrowPlants),
		s.newActivity("lifecycle", s.Schedule.Lifecycle, s.lifecycle),
		s.newActivity("stats", s.Schedule.Stats, s.stats),
		s.newActivity("render", s.Schedule.Render, s.render),
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.group = &errgroup.Group{}
	for _, a := range s.activities {
		s.group.Go(func() error { return s.loop(ctx, a) })
	}
	s.state = StateRunning
	s.Log.Printf("[Scheduler] started %dx%d island with %d animals", s.Grid.Width, s.Grid.Height, s.Population)
	return nil
}

// Stop halts every activity and waits for sweeps already in flight to
// finish. Sweeps are never interrupted part way through.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrNotRunning, st)
	}
	s.state = StateStopped
	s.cancel()
	group := s.group
	s.mu.Unlock()

	err := group.Wait()
	s.Log.Printf("[Scheduler] stopped after %d lifecycle sweeps", s.Grid.Sweeps())
	return err
}

// Run starts the simulation and blocks until ctx is done, then stops it.
func (s *Simulation) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

func (s *Simulation) newActivity(name string, t Timing, run func()) *activity {
	return &activity{name: name, Timing: t, run: run, sem: semaphore.NewWeighted(1)}
}

func (s *Simulation) loop(ctx context.Context, a *activity) error {
	if a.Delay > 0 {
		timer := time.NewTimer(a.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
	s.fire(ctx, a)

	ticker := time.NewTicker(a.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.fire(ctx, a)
		}
	}
}

// fire starts one run of a unless the previous run is still going, in which
// case this occurrence is dropped.
func (s *Simulation) fire(ctx context.Context, a *activity) {
	if ctx.Err() != nil {
		return
	}
	if !a.sem.TryAcquire(1) {
		a.skipped.Add(1)
		s.Log.Printf("[Scheduler] %s still running, skipping this tick", a.name)
		return
	}
	s.group.Go(func() error {
		defer a.sem.Release(1)
		a.runs.Add(1)
		a.run()
		return nil
	})
}

func (s *Simulation) lifecycle() {
	rep := s.Grid.Lifecycle()
	s.Log.Printf("[Lifecycle] sweep %d: %d acted, %d kills, %d births, %d moves, %d removed",
		rep.Sweep, rep.Acted, rep.Kills, rep.Births, rep.Moves, rep.Removed)
}

func (s *Simulation) stats() {
	st := s.Grid.Stats()
	if s.Observer != nil {
		s.Observer.ObserveStats(st)
	}
}

func (s *Simulation) render() {
	f := s.Grid.Render()
	if s.Observer != nil {
		s.Observer.ObserveFrame(f)
	}
}
