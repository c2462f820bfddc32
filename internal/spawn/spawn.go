// Package spawn generates seeded initial conditions: an optional central
// star surrounded by bodies scattered uniformly through an ellipsoid.
package spawn

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const (
	VelocityOrbital = "orbital"
	VelocityNone    = "none"
)

type Config struct {
	Seed  uint64
	Count int

	Center mgl64.Vec3
	// Bounds holds the ellipsoid radii along x, y and z.
	Bounds mgl64.Vec3

	MassMin float64
	MassMax float64

	CentralBody   bool
	CenterMassMin float64
	CenterMassMax float64

	Velocity string
	G        float64
}

func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("spawn count must not be negative, got %d", c.Count)
	}
	if c.Count > 0 {
		if c.MassMin <= 0 || c.MassMax < c.MassMin {
			return fmt.Errorf("spawn mass range [%g, %g] invalid: %w", c.MassMin, c.MassMax, dynamo.ErrNonPositiveMass)
		}
		if c.Bounds[0] < 0 || c.Bounds[1] < 0 || c.Bounds[2] < 0 {
			return fmt.Errorf("spawn bounds %v must not be negative: %w", c.Bounds, dynamo.ErrParameterBounds)
		}
	}
	if c.CentralBody && (c.CenterMassMin <= 0 || c.CenterMassMax < c.CenterMassMin) {
		return fmt.Errorf("central mass range [%g, %g] invalid: %w", c.CenterMassMin, c.CenterMassMax, dynamo.ErrNonPositiveMass)
	}
	switch c.Velocity {
	case "", VelocityOrbital, VelocityNone:
	default:
		return fmt.Errorf("unknown velocity mode %q (available: %s, %s)", c.Velocity, VelocityOrbital, VelocityNone)
	}
	if c.Velocity != VelocityNone && c.G <= 0 {
		return fmt.Errorf("orbital velocities need a positive G, got %g: %w", c.G, dynamo.ErrParameterBounds)
	}
	return nil
}

// Generate returns the bodies described by cfg. The same seed always
// yields the same bodies. Returned bodies carry no IDs.
func Generate(cfg Config) ([]dynamo.Body, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	bodies := make([]dynamo.Body, 0, cfg.Count+1)

	if cfg.CentralBody {
		bodies = append(bodies, dynamo.Body{
			Position: cfg.Center,
			Mass:     uniform(rng, cfg.CenterMassMin, cfg.CenterMassMax),
			Kind:     dynamo.Star,
		})
	}

	var spawned float64
	first := len(bodies)
	for i := 0; i < cfg.Count; i++ {
		m := uniform(rng, cfg.MassMin, cfg.MassMax)
		spawned += m
		bodies = append(bodies, dynamo.Body{
			Position: cfg.Center.Add(PointInEllipsoid(rng, cfg.Bounds)),
			Mass:     m,
		})
	}

	if cfg.Velocity == VelocityNone {
		return bodies, nil
	}

	attractor := spawned
	if cfg.CentralBody {
		attractor = bodies[0].Mass
	}
	for i := first; i < len(bodies); i++ {
		bodies[i].Velocity = OrbitalVelocity(bodies[i].Position, cfg.Center, attractor, cfg.G)
	}
	return bodies, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// PointInEllipsoid draws a point uniformly distributed inside the
// ellipsoid with the given radii, centred on the origin.
func PointInEllipsoid(rng *rand.Rand, radii mgl64.Vec3) mgl64.Vec3 {
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(uniform(rng, -1, 1))
	r := math.Cbrt(rng.Float64())

	sinPhi := math.Sin(phi)
	return mgl64.Vec3{
		sinPhi * math.Cos(theta) * radii[0] * r,
		sinPhi * math.Sin(theta) * radii[1] * r,
		math.Cos(phi) * radii[2] * r,
	}
}

// OrbitalVelocity returns the circular orbit velocity of a body at pos
// around a point mass at center. It points along dir × +Y, or dir × +X
// when dir is parallel to Y.
func OrbitalVelocity(pos, center mgl64.Vec3, mass, g float64) mgl64.Vec3 {
	dir := center.Sub(pos)
	dist := dir.Len()
	if dist == 0 {
		return mgl64.Vec3{}
	}

	speed := math.Sqrt(g * mass / dist)
	unit := dir.Mul(1 / dist)
	tangent := unit.Cross(mgl64.Vec3{0, 1, 0})
	if tangent.LenSqr() < 1e-24 {
		tangent = unit.Cross(mgl64.Vec3{1, 0, 0})
	}
	return tangent.Normalize().Mul(speed)
}
