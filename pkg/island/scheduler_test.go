package island

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recorder counts snapshots. Optional gates block the observer until closed.
type recorder struct {
	mu     sync.Mutex
	stats  []Stats
	frames []Frame

	statsGate chan struct{}
	frameGate chan struct{}
	entered   chan struct{}
}

func (r *recorder) ObserveStats(s Stats) {
	if r.statsGate != nil {
		r.signal()
		<-r.statsGate
	}
	r.mu.Lock()
	r.stats = append(r.stats, s)
	r.mu.Unlock()
}

func (r *recorder) ObserveFrame(f Frame) {
	if r.frameGate != nil {
		r.signal()
		<-r.frameGate
	}
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *recorder) signal() {
	select {
	case r.entered <- struct{}{}:
	default:
	}
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stats), len(r.frames)
}

func fastSchedule() Schedule {
	t := Timing{Period: 5 * time.Millisecond}
	return Schedule{Growth: t, Lifecycle: t, Stats: t, Render: t}
}

func newTestSimulation(t *testing.T, sched Schedule) *Simulation {
	t.Helper()
	g := testGrid(t, 5, 5)
	s, err := NewSimulation(g, sched)
	if err != nil {
		t.Fatal(err)
	}
	s.Population = 10
	return s
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestScheduleValidate(t *testing.T) {
	if err := DefaultSchedule().Validate(); err != nil {
		t.Fatalf("default schedule: %v", err)
	}
	bad := DefaultSchedule()
	bad.Stats.Period = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("zero period: got %v", err)
	}
	bad = DefaultSchedule()
	bad.Render.Delay = -time.Second
	if err := bad.Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("negative delay: got %v", err)
	}

	g := testGrid(t, 2, 2)
	if _, err := NewSimulation(g, bad); err == nil {
		t.Error("NewSimulation accepted a bad schedule")
	}
	g.Plants.Cap = 0
	if _, err := NewSimulation(g, DefaultSchedule()); !errors.Is(err, ErrInvalidPlants) {
		t.Errorf("bad plant rules: got %v", err)
	}
}

func TestSimulationStartStop(t *testing.T) {
	s := newTestSimulation(t, fastSchedule())
	rec := &recorder{}
	s.Observer = rec

	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("stop before start: got %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state %s", s.State())
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second start: got %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		st, fr := rec.counts()
		return st > 0 && fr > 0 && s.Grid.Sweeps() > 0
	})
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateStopped {
		t.Fatalf("state %s", s.State())
	}
	for name, c := range s.Counters() {
		if c.Runs == 0 {
			t.Errorf("%s never ran", name)
		}
	}

	// Nothing runs after Stop returns.
	sweeps := s.Grid.Sweeps()
	st, fr := rec.counts()
	time.Sleep(30 * time.Millisecond)
	if s.Grid.Sweeps() != sweeps {
		t.Error("lifecycle ran after stop")
	}
	if st2, fr2 := rec.counts(); st2 != st || fr2 != fr {
		t.Error("observers called after stop")
	}

	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second stop: got %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("restart: got %v", err)
	}
}

func TestSimulationSeedsGrid(t *testing.T) {
	idle := Timing{Period: time.Hour, Delay: time.Hour}
	s := newTestSimulation(t, Schedule{Growth: idle, Lifecycle: idle, Stats: idle, Render: idle})
	s.Grid.Plants.Initial = 30
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	st := s.Grid.Stats()
	if st.Animals != 10 {
		t.Errorf("animals %d, want 10", st.Animals)
	}
	if st.Plants != 30*25 {
		t.Errorf("plants %.2f, want %d", st.Plants, 30*25)
	}
}

func TestSlowActivityIsSkipped(t *testing.T) {
	sched := fastSchedule()
	sched.Render.Period = time.Millisecond
	s := newTestSimulation(t, sched)
	rec := &recorder{frameGate: make(chan struct{}), entered: make(chan struct{}, 1)}
	s.Observer = rec

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-rec.entered
	waitFor(t, 2*time.Second, func() bool {
		return s.Counters()["render"].Skipped >= 3
	})
	if runs := s.Counters()["render"].Runs; runs != 1 {
		t.Errorf("render started %d times while the first run was blocked", runs)
	}

	close(rec.frameGate)
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if s.Grid.Sweeps() == 0 {
		t.Error("a blocked render must not hold up the lifecycle")
	}
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	s := newTestSimulation(t, fastSchedule())
	rec := &recorder{statsGate: make(chan struct{}), entered: make(chan struct{}, 1)}
	s.Observer = rec

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-rec.entered

	done := make(chan error, 1)
	go func() { done <- s.Stop() }()

	select {
	case <-done:
		t.Fatal("Stop returned while a stats run was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(rec.statsGate)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the run finished")
	}
	if st, _ := rec.counts(); st != 1 {
		t.Errorf("stats delivered %d times, want 1", st)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestSimulation(t, fastSchedule())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateStopped {
		t.Errorf("state %s", s.State())
	}
	if s.Grid.Sweeps() == 0 {
		t.Error("no lifecycle sweeps ran")
	}
}

func TestObserversFanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	obs := Observers{a, b}
	obs.ObserveStats(Stats{})
	obs.ObserveFrame(Frame{})
	for _, r := range []*recorder{a, b} {
		if st, fr := r.counts(); st != 1 || fr != 1 {
			t.Errorf("recorder got %d stats, %d frames", st, fr)
		}
	}
}
