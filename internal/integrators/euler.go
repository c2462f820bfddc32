package integrators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const minChunk = 256

// SymplecticEuler advances v += a·dt then x += v·dt, using the updated
// velocity for the position. It is the default integrator.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (e *SymplecticEuler) Name() string { return "symplectic" }

func (e *SymplecticEuler) Step(bodies []dynamo.Body, acc []mgl64.Vec3, dt float64) {
	dynamo.ParallelFor(len(bodies), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			b := &bodies[i]
			b.Velocity = b.Velocity.Add(acc[i].Mul(dt))
			b.Position = b.Position.Add(b.Velocity.Mul(dt))
		}
	})
}

// Euler is the explicit variant: the position moves with the velocity from
// the start of the step. It drifts in energy and exists for comparison.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(bodies []dynamo.Body, acc []mgl64.Vec3, dt float64) {
	dynamo.ParallelFor(len(bodies), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			b := &bodies[i]
			b.Position = b.Position.Add(b.Velocity.Mul(dt))
			b.Velocity = b.Velocity.Add(acc[i].Mul(dt))
		}
	})
}
