package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/gravsim/internal/collision"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
)

// Experiment wires a validated config into a ready-to-run simulator.
type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Setup builds the simulator. It must be called before Run.
func (e *Experiment) Setup(reg *Registry) error {
	s, err := Build(reg, e.cfg)
	if err != nil {
		return err
	}
	e.simulator = s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.RunConfig())
}

func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

// Info describes the experiment for the run store.
func (e *Experiment) Info() storage.RunInfo {
	return Info(e.cfg)
}

// Build validates cfg and assembles a simulator holding its initial bodies.
func Build(reg *Registry, cfg *config.Config) (*sim.Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bodies, err := cfg.InitialBodies()
	if err != nil {
		return nil, err
	}
	store := sim.NewStore(len(bodies))
	for _, b := range bodies {
		if _, err := store.Add(b); err != nil {
			return nil, err
		}
	}

	params := cfg.GravityParams()
	backend, err := reg.GetSolver(cfg.Solver, params)
	if err != nil {
		return nil, err
	}
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	var resolver *collision.Resolver
	if cfg.Collision.Enabled {
		resolver = collision.NewResolver(cfg.Collision.Density, cfg.Collision.RadiusScale)
	}

	s := sim.New(store, backend, integ, resolver)
	s.SetEnergy(metrics.NewModel(params))
	s.SetLogger(slog.Default().With("component", "sim", "config", cfg.Name))
	for _, m := range reg.DefaultMetrics(params, containmentRadius(cfg)) {
		s.AddMetric(m)
	}
	return s, nil
}

// containmentRadius is twice the largest spawn half-extent, or 10 when
// nothing is spawned.
func containmentRadius(cfg *config.Config) float64 {
	r := 0.0
	if cfg.Spawn.Count > 0 {
		for _, c := range cfg.Spawn.Bounds {
			r = max(r, c)
		}
	}
	if r <= 0 {
		return 10
	}
	return 2 * r
}

func Info(cfg *config.Config) storage.RunInfo {
	n := len(cfg.Bodies) + cfg.Spawn.Count
	if cfg.Spawn.CentralBody {
		n++
	}
	return storage.RunInfo{
		Name:        cfg.Name,
		Solver:      cfg.Solver,
		Integrator:  cfg.Integrator,
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		SampleEvery: cfg.SampleEvery,
		G:           cfg.Gravity.G,
		Theta:       cfg.Gravity.Theta,
		Epsilon:     cfg.Gravity.Epsilon,
		Collisions:  cfg.Collision.Enabled,
		Bodies:      n,
	}
}
