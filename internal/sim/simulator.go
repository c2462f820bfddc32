package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/collision"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// Simulator owns the body store and every per-tick collaborator. It is not
// safe for concurrent use.
type Simulator struct {
	store      *Store
	backend    compute.Backend
	integrator Integrator
	resolver   *collision.Resolver
	energy     EnergyComputer
	metrics    []Metric
	observers  []Observer
	logger     *slog.Logger

	pos  []mgl64.Vec3
	mass []float64
	acc  []mgl64.Vec3
	prev []dynamo.Body

	step int
	time float64
}

// New wires a simulator. resolver may be nil to disable merging.
func New(store *Store, backend compute.Backend, integrator Integrator, resolver *collision.Resolver) *Simulator {
	return &Simulator{
		store:      store,
		backend:    backend,
		integrator: integrator,
		resolver:   resolver,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     slog.Default().With("component", "sim"),
	}
}

func (s *Simulator) AddMetric(m Metric)            { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)        { s.observers = append(s.observers, o) }
func (s *Simulator) SetEnergy(e EnergyComputer)    { s.energy = e }
func (s *Simulator) SetLogger(l *slog.Logger)      { s.logger = l }
func (s *Simulator) Store() *Store                 { return s.store }
func (s *Simulator) Backend() compute.Backend      { return s.backend }
func (s *Simulator) Integrator() Integrator        { return s.integrator }
func (s *Simulator) Resolver() *collision.Resolver { return s.resolver }
func (s *Simulator) StepCount() int                { return s.step }
func (s *Simulator) Time() float64                 { return s.time }

// Step advances the simulation by dt. A zero dt is a valid tick that moves
// nothing but still resolves collisions. A tick that fails leaves the store
// as it was before the call.
func (s *Simulator) Step(dt float64) (dynamo.TickReport, error) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return dynamo.TickReport{}, fmt.Errorf("dt %g: %w", dt, dynamo.ErrParameterBounds)
	}

	bodies := s.store.Bodies()
	n := len(bodies)
	s.ensureScratch(n)
	for i := range bodies {
		s.pos[i] = bodies[i].Position
		s.mass[i] = bodies[i].Mass
	}

	if err := s.backend.Accelerations(s.pos[:n], s.mass[:n], s.acc[:n]); err != nil {
		return dynamo.TickReport{}, &dynamo.SimulationError{Step: s.step, Time: s.time, Wrapped: err}
	}

	s.prev = append(s.prev[:0], bodies...)
	s.integrator.Step(bodies, s.acc[:n], dt)

	for i := range bodies {
		b := &bodies[i]
		if !dynamo.IsFinite(b.Position) || !dynamo.IsFinite(b.Velocity) {
			copy(bodies, s.prev)
			return dynamo.TickReport{}, &dynamo.SimulationError{
				Step: s.step, Time: s.time, Body: b.ID, Wrapped: dynamo.ErrInvalidState,
			}
		}
	}

	var merges []dynamo.MergeEvent
	if s.resolver != nil {
		merges = s.resolver.Resolve(bodies)
	}
	if len(merges) > 0 {
		absorbed := make([]dynamo.BodyID, len(merges))
		for i, m := range merges {
			absorbed[i] = m.Absorbed
			s.logger.Debug("bodies merged", "step", s.step+1, "absorber", m.Absorber, "absorbed", m.Absorbed)
		}
		s.store.Remove(absorbed...)
	}

	s.step++
	s.time += dt
	report := dynamo.TickReport{Step: s.step, Time: s.time, Merges: merges}
	for _, obs := range s.observers {
		obs.OnStep(report, s.store.Bodies())
	}
	return report, nil
}

// ensureScratch doubles the per-body buffers until they hold n entries.
func (s *Simulator) ensureScratch(n int) {
	if n <= cap(s.pos) {
		s.pos, s.mass, s.acc = s.pos[:n], s.mass[:n], s.acc[:n]
		return
	}
	c := cap(s.pos)
	if c == 0 {
		c = defaultCapacity
	}
	for c < n {
		c *= 2
	}
	s.pos = make([]mgl64.Vec3, n, c)
	s.mass = make([]float64, n, c)
	s.acc = make([]mgl64.Vec3, n, c)
}

func (s *Simulator) validateConfig(cfg RunConfig) error {
	if cfg.Dt <= 0 || math.IsNaN(cfg.Dt) {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if cfg.Duration <= 0 || math.IsNaN(cfg.Duration) {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrParameterBounds)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d: %w", cfg.SampleEvery, dynamo.ErrParameterBounds)
	}
	return nil
}

// Steps returns the number of ticks a run of cfg takes.
func (cfg RunConfig) Steps() int {
	return int(cfg.Duration/cfg.Dt + 1e-9)
}

func (s *Simulator) computeEnergy() float64 {
	if s.energy == nil {
		return 0
	}
	return s.energy.TotalEnergy(s.store.Bodies())
}

func (s *Simulator) frame() Frame {
	return Frame{Step: s.step, Time: s.time, Bodies: s.store.Snapshot()}
}

// Run advances the simulation for cfg.Duration and records sampled frames,
// merges and metrics. Cancelling ctx stops the run between ticks and
// returns the partial result with ctx's error.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	every := cfg.SampleEvery
	if every == 0 {
		every = 1
	}

	result := &Result{
		Frames:  make([]Frame, 0, steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	s.logger.Info("run started", "bodies", s.store.Len(), "steps", steps, "dt", cfg.Dt,
		"backend", s.backend.Name(), "integrator", s.integrator.Name())

	result.Frames = append(result.Frames, s.frame())
	for _, m := range s.metrics {
		m.Observe(s.store.Bodies(), s.time)
	}
	initialEnergy := s.computeEnergy()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.FinalCount = s.store.Len()
			return result, ctx.Err()
		default:
		}

		report, err := s.Step(cfg.Dt)
		if err != nil {
			result.Errors = append(result.Errors, err)
			s.logger.Warn("run stopped", "step", s.step, "err", err)
			break
		}
		result.StepsTaken++
		for _, m := range report.Merges {
			result.Merges = append(result.Merges, MergeRecord{Step: report.Step, Time: report.Time, MergeEvent: m})
		}

		if (i+1)%every == 0 || i == steps-1 {
			result.Frames = append(result.Frames, s.frame())
			for _, m := range s.metrics {
				m.Observe(s.store.Bodies(), s.time)
			}
		}
	}

	finalEnergy := s.computeEnergy()
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.FinalCount = s.store.Len()

	s.logger.Info("run finished", "steps", result.StepsTaken, "bodies", result.FinalCount,
		"merges", len(result.Merges), "energy_drift", result.EnergyDrift, "elapsed", time.Since(start))

	return result, nil
}

// RunWithCallback steps until cfg.Duration elapses, ctx is cancelled or fn
// returns false. fn sees the state before the first tick and after every
// tick.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg RunConfig, fn func(report dynamo.TickReport, bodies []dynamo.Body) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	if !fn(dynamo.TickReport{Step: s.step, Time: s.time}, s.store.Bodies()) {
		return nil
	}

	steps := cfg.Steps()
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		report, err := s.Step(cfg.Dt)
		if err != nil {
			return err
		}
		if !fn(report, s.store.Bodies()) {
			return nil
		}
	}

	return nil
}
