package compute

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
)

type particle struct {
	pos  r3.Vec
	mass float64
}

func (p *particle) Coord3() r3.Vec { return p.pos }
func (p *particle) Mass() float64 { return p.mass }

// GonumBackend evaluates forces with gonum's pointer-based Barnes-Hut
// volume. It serves as an independent cross-check of the arena tree.
//
// gonum's volume summary weights aggregate centres by particle count and
// leaves them correct only for unit masses. The backend therefore hands
// gonum unit-mass particles scaled by the shared mass when every body has
// the same mass, and uses gonum's exact per-particle sum otherwise.
type GonumBackend struct {
	law   gravity.Law
	theta float64

	particles []particle
	refs      []barneshut.Particle3
}

func NewGonumBackend(p gravity.Params) *GonumBackend {
	return &GonumBackend{law: gravity.NewLaw(p.G, p.Epsilon), theta: p.Theta}
}

func (b *GonumBackend) Name() string { return "gonum" }

// uniformMass returns the common mass of all bodies, or false when masses
// differ.
func uniformMass(mass []float64) (float64, bool) {
	if len(mass) == 0 {
		return 0, false
	}
	for _, m := range mass[1:] {
		if m != mass[0] {
			return 0, false
		}
	}
	return mass[0], mass[0] > 0
}

// forceFunc returns a gonum force callback yielding the acceleration of p1.
// gonum reports aggregate mass in particle units, so m2 is multiplied by
// unit.
func (b *GonumBackend) forceFunc(unit float64) barneshut.Force3 {
	return func(p1, p2 barneshut.Particle3, _, m2 float64, v r3.Vec) r3.Vec {
		if p2 != nil && p1 == p2 {
			return r3.Vec{}
		}
		dir := mgl64.Vec3{v.X, v.Y, v.Z}
		a := b.law.Acceleration(dir, dir.LenSqr(), m2*unit)
		return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
	}
}

// Approximates reports whether a call with these masses uses the
// Barnes-Hut walk rather than the exact sum.
func (b *GonumBackend) Approximates(mass []float64) bool {
	_, ok := uniformMass(mass)
	return ok && b.theta > 0
}

func (b *GonumBackend) Accelerations(pos []mgl64.Vec3, mass []float64, acc []mgl64.Vec3) error {
	if err := checkDims(pos, mass, acc); err != nil {
		return err
	}

	unit, uniform := uniformMass(mass)
	theta := b.theta
	if !uniform {
		unit, theta = 1, 0
	}

	if cap(b.particles) < len(pos) {
		b.particles = make([]particle, len(pos))
		b.refs = make([]barneshut.Particle3, len(pos))
	}
	b.particles = b.particles[:len(pos)]
	b.refs = b.refs[:len(pos)]
	for i := range pos {
		m := mass[i]
		if uniform {
			m = 1
		}
		b.particles[i] = particle{pos: r3.Vec{X: pos[i][0], Y: pos[i][1], Z: pos[i][2]}, mass: m}
		b.refs[i] = &b.particles[i]
	}

	vol := &barneshut.Volume{Particles: b.refs}
	if theta > 0 {
		if err := vol.Reset(); err != nil {
			// Coincident bodies defeat gonum's subdivision; sum directly instead.
			slog.Debug("gonum volume rejected, summing directly", "component", "compute", "err", err)
			theta = 0
		}
	}

	force := b.forceFunc(unit)
	dynamo.ParallelFor(len(pos), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			f := vol.ForceOn(b.refs[i], theta, force)
			acc[i] = mgl64.Vec3{f.X, f.Y, f.Z}
		}
	})
	return nil
}
