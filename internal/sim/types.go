package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// Integrator advances bodies in place given their accelerations.
type Integrator interface {
	Name() string
	Step(bodies []dynamo.Body, acc []mgl64.Vec3, dt float64)
}

// Metric accumulates a scalar over the sampled frames of a run.
type Metric interface {
	Name() string
	Observe(bodies []dynamo.Body, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every completed tick.
type Observer interface {
	OnStep(report dynamo.TickReport, bodies []dynamo.Body)
}

// EnergyComputer returns the total mechanical energy of a body set.
type EnergyComputer interface {
	TotalEnergy(bodies []dynamo.Body) float64
}

type RunConfig struct {
	Dt       float64
	Duration float64
	// SampleEvery records a frame every n ticks. The first and last ticks
	// are always recorded. Zero means every tick.
	SampleEvery int
}

// Frame is a copy of all live bodies at one sampled tick.
type Frame struct {
	Step   int
	Time   float64
	Bodies []dynamo.Body
}

// MergeRecord is a MergeEvent stamped with the tick it happened on.
type MergeRecord struct {
	Step int
	Time float64
	dynamo.MergeEvent
}

type Result struct {
	Frames      []Frame
	Merges      []MergeRecord
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	FinalCount  int
	Errors      []error
}
