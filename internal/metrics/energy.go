package metrics

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
)

// Model computes conserved quantities of a body set under a force law.
type Model struct {
	Law gravity.Law
}

func NewModel(p gravity.Params) Model {
	return Model{Law: gravity.NewLaw(p.G, p.Epsilon)}
}

// TotalEnergy returns kinetic plus softened pairwise potential energy.
func (m Model) TotalEnergy(bodies []dynamo.Body) float64 {
	return TotalEnergy(m.Law, bodies)
}

func KineticEnergy(bodies []dynamo.Body) float64 {
	var ke float64
	for _, b := range bodies {
		ke += b.KineticEnergy()
	}
	return ke
}

// PotentialEnergy sums the pair potential over every unordered pair. The
// outer loop runs in parallel.
func PotentialEnergy(law gravity.Law, bodies []dynamo.Body) float64 {
	var (
		mu    sync.Mutex
		total float64
	)
	n := len(bodies)
	dynamo.ParallelFor(n, 32, func(start, end int) {
		var pe float64
		for i := start; i < end; i++ {
			a := bodies[i]
			for j := i + 1; j < n; j++ {
				b := bodies[j]
				pe += law.Potential(a.Position.Sub(b.Position).LenSqr(), a.Mass, b.Mass)
			}
		}
		mu.Lock()
		total += pe
		mu.Unlock()
	})
	return total
}

func TotalEnergy(law gravity.Law, bodies []dynamo.Body) float64 {
	return KineticEnergy(bodies) + PotentialEnergy(law, bodies)
}

// TotalMomentum returns Σ m·v.
func TotalMomentum(bodies []dynamo.Body) mgl64.Vec3 {
	var p mgl64.Vec3
	for _, b := range bodies {
		p = p.Add(b.Momentum())
	}
	return p
}

// CenterOfMass returns the mass-weighted mean position and the total mass.
func CenterOfMass(bodies []dynamo.Body) (mgl64.Vec3, float64) {
	var (
		c    mgl64.Vec3
		mass float64
	)
	for _, b := range bodies {
		c = c.Add(b.Position.Mul(b.Mass))
		mass += b.Mass
	}
	if mass == 0 {
		return mgl64.Vec3{}, 0
	}
	return c.Mul(1 / mass), mass
}

// Energy reports the mean total energy over the observed samples.
type Energy struct {
	name        string
	model       Model
	samples     int
	totalEnergy float64
}

func NewEnergy(model Model) *Energy {
	return &Energy{
		name:  "energy",
		model: model,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(bodies []dynamo.Body, t float64) {
	e.totalEnergy += e.model.TotalEnergy(bodies)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift reports the largest relative deviation from the first
// observed energy.
type EnergyDrift struct {
	name          string
	model         Model
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(model Model) *EnergyDrift {
	return &EnergyDrift{
		name:  "energy_drift",
		model: model,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(bodies []dynamo.Body, t float64) {
	energy := e.model.TotalEnergy(bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
