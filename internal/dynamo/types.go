package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyID identifies a body for its whole lifetime. IDs are never reused.
type BodyID uint64

// Kind tags presentation variants. The physics never branches on it.
type Kind uint8

const (
	Planet Kind = iota
	Star
)

func (k Kind) String() string {
	switch k {
	case Star:
		return "star"
	default:
		return "planet"
	}
}

// ParseKind is the inverse of Kind.String. Unknown names map to Planet.
func ParseKind(s string) Kind {
	if s == "star" {
		return Star
	}
	return Planet
}

type Body struct {
	ID       BodyID
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Mass     float64
	// Radius is the collision radius when positive. Zero means the radius
	// is derived from Mass by the collision resolver.
	Radius float64
	Kind   Kind
}

// Momentum returns m·v.
func (b Body) Momentum() mgl64.Vec3 {
	return b.Velocity.Mul(b.Mass)
}

// KineticEnergy returns ½·m·|v|².
func (b Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Velocity.LenSqr()
}

// Validate reports whether the body can take part in a simulation.
func (b Body) Validate() error {
	if math.IsNaN(b.Mass) || math.IsInf(b.Mass, 0) || !IsFinite(b.Position) || !IsFinite(b.Velocity) {
		return fmt.Errorf("body %d: %w", b.ID, ErrInvalidState)
	}
	if b.Mass <= 0 {
		return fmt.Errorf("body %d has mass %g: %w", b.ID, b.Mass, ErrNonPositiveMass)
	}
	if b.Radius < 0 {
		return fmt.Errorf("body %d has radius %g: %w", b.ID, b.Radius, ErrParameterBounds)
	}
	return nil
}

// IsFinite reports whether no component of v is NaN or Inf.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// MergeEvent records that Absorbed was merged into Absorber.
type MergeEvent struct {
	Absorber BodyID
	Absorbed BodyID
}

func (m MergeEvent) String() string {
	return fmt.Sprintf("%d<-%d", m.Absorber, m.Absorbed)
}

// TickReport summarises one completed tick.
type TickReport struct {
	Step   int
	Time   float64
	Merges []MergeEvent
}
