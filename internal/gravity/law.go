// Package gravity holds the softened Newtonian force law shared by every
// force solver, so the tree, direct and gonum paths agree term by term.
package gravity

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// MinDenominator is the floor applied to the kernel denominator. It keeps
// self-interaction and coincident bodies finite.
const MinDenominator = 1e-12

const (
	DefaultG       = 1.0
	DefaultTheta   = 0.5
	DefaultEpsilon = 0.01
)

// Params are the simulation-wide scalars of the force law.
type Params struct {
	G       float64
	Theta   float64
	Epsilon float64
}

func DefaultParams() Params {
	return Params{G: DefaultG, Theta: DefaultTheta, Epsilon: DefaultEpsilon}
}

func (p Params) Validate() error {
	if p.G <= 0 || math.IsNaN(p.G) || math.IsInf(p.G, 0) {
		return fmt.Errorf("gravitational constant %g: %w", p.G, dynamo.ErrParameterBounds)
	}
	if p.Theta < 0 || math.IsNaN(p.Theta) {
		return fmt.Errorf("theta %g: %w", p.Theta, dynamo.ErrParameterBounds)
	}
	if p.Epsilon < 0 || math.IsNaN(p.Epsilon) {
		return fmt.Errorf("epsilon %g: %w", p.Epsilon, dynamo.ErrParameterBounds)
	}
	return nil
}

// Law evaluates a·= dir·G·m / max((d²+ε²)·d, MinDenominator).
type Law struct {
	G         float64
	EpsilonSq float64
}

func NewLaw(g, epsilon float64) Law {
	return Law{G: g, EpsilonSq: epsilon * epsilon}
}

// Acceleration returns the pull of a point mass towards which dir points,
// where d2 is dir's squared length.
func (l Law) Acceleration(dir mgl64.Vec3, d2, mass float64) mgl64.Vec3 {
	denom := (d2 + l.EpsilonSq) * math.Sqrt(d2)
	if denom < MinDenominator {
		denom = MinDenominator
	}
	return dir.Mul(l.G * mass / denom)
}

// Between returns the acceleration at `at` caused by mass located at source.
func (l Law) Between(at, source mgl64.Vec3, mass float64) mgl64.Vec3 {
	dir := source.Sub(at)
	return l.Acceleration(dir, dir.LenSqr(), mass)
}

// Potential returns the softened pair potential energy -G·m1·m2/√(d²+ε²).
func (l Law) Potential(d2, m1, m2 float64) float64 {
	r := math.Sqrt(d2 + l.EpsilonSq)
	if r == 0 {
		return 0
	}
	return -l.G * m1 * m2 / r
}
