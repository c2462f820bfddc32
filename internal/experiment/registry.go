package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

type Registry struct {
	integrators map[string]func() sim.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
	}

	r.integrators["symplectic"] = func() sim.Integrator { return integrators.NewSymplecticEuler() }
	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }

	return r
}

func (r *Registry) GetSolver(name string, p gravity.Params) (compute.Backend, error) {
	return compute.New(name, p)
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListSolvers() []string {
	return compute.Names()
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metrics attached to every run. radius is the
// containment threshold.
func (r *Registry) DefaultMetrics(p gravity.Params, radius float64) []sim.Metric {
	model := metrics.NewModel(p)
	return []sim.Metric{
		metrics.NewEnergy(model),
		metrics.NewEnergyDrift(model),
		metrics.NewMomentumDrift(),
		metrics.NewBodyCount(),
		metrics.NewContainment(radius),
	}
}
