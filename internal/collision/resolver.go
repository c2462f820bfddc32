// Package collision detects overlapping bodies and merges them.
//
// Detection is a sweep-and-prune pass along x followed by an exact sphere
// test. Candidate pairs are ordered by body ID before merging so the
// outcome does not depend on goroutine scheduling or slice order. A body
// that took part in a merge is left out of every later pair in the same
// tick, which keeps a merge chain from cascading within one step.
package collision

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const (
	DefaultDensity     = 1.0
	DefaultRadiusScale = 1.0
)

// RadiusFromMass returns scale·∛(3m / 4πρ), the radius of a uniform sphere.
func RadiusFromMass(mass, density, scale float64) float64 {
	if mass <= 0 || density <= 0 {
		return 0
	}
	return scale * math.Cbrt(3*mass/(4*math.Pi*density))
}

// CombineRadii returns the radius of a sphere with the volume of both.
func CombineRadii(a, b float64) float64 {
	return math.Cbrt(a*a*a + b*b*b)
}

type Resolver struct {
	Density     float64
	RadiusScale float64
	Enabled     bool

	radii  []float64
	order  []int
	pairs  []pair
	merged map[dynamo.BodyID]bool
}

type pair struct {
	a, b int
}

func NewResolver(density, radiusScale float64) *Resolver {
	if density <= 0 {
		density = DefaultDensity
	}
	if radiusScale <= 0 {
		radiusScale = DefaultRadiusScale
	}
	return &Resolver{
		Density:     density,
		RadiusScale: radiusScale,
		Enabled:     true,
		merged:      make(map[dynamo.BodyID]bool),
	}
}

// EffectiveRadius returns the supplied radius when set, otherwise the
// radius derived from mass.
func (r *Resolver) EffectiveRadius(b dynamo.Body) float64 {
	if b.Radius > 0 {
		return b.Radius
	}
	return RadiusFromMass(b.Mass, r.Density, r.RadiusScale)
}

// Overlapping reports whether two bodies touch: distance < rA + rB.
func (r *Resolver) Overlapping(a, b dynamo.Body) bool {
	return touching(a.Position, b.Position, r.EffectiveRadius(a)+r.EffectiveRadius(b))
}

// Resolve merges every colliding pair in bodies. Absorbers are updated in
// place; absorbed bodies are left untouched and listed in the returned
// events, and the caller removes them.
func (r *Resolver) Resolve(bodies []dynamo.Body) []dynamo.MergeEvent {
	if !r.Enabled || len(bodies) < 2 {
		return nil
	}

	candidates := r.candidates(bodies)
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		ai, bi := pairKey(bodies, candidates[i])
		aj, bj := pairKey(bodies, candidates[j])
		if ai != aj {
			return ai < aj
		}
		return bi < bj
	})

	if r.merged == nil {
		r.merged = make(map[dynamo.BodyID]bool)
	}
	clear(r.merged)
	var events []dynamo.MergeEvent
	for _, p := range candidates {
		a, b := &bodies[p.a], &bodies[p.b]
		if r.merged[a.ID] || r.merged[b.ID] {
			continue
		}

		absorber, absorbed := a, b
		if b.Mass > a.Mass || (b.Mass == a.Mass && b.ID < a.ID) {
			absorber, absorbed = b, a
		}
		r.absorb(absorber, absorbed)

		r.merged[a.ID] = true
		r.merged[b.ID] = true
		events = append(events, dynamo.MergeEvent{Absorber: absorber.ID, Absorbed: absorbed.ID})
	}
	return events
}

// absorb folds src into dst conserving mass and momentum. dst keeps its
// position.
func (r *Resolver) absorb(dst, src *dynamo.Body) {
	total := dst.Mass + src.Mass
	momentum := dst.Momentum().Add(src.Momentum())

	if dst.Radius > 0 {
		dst.Radius = CombineRadii(dst.Radius, r.EffectiveRadius(*src))
	}
	dst.Mass = total
	dst.Velocity = momentum.Mul(1 / total)
}

// candidates returns every overlapping pair, found by sorting bodies on
// the low edge of their x extent and sweeping.
func (r *Resolver) candidates(bodies []dynamo.Body) []pair {
	n := len(bodies)
	if cap(r.radii) < n {
		r.radii = make([]float64, n)
		r.order = make([]int, n)
	}
	r.radii = r.radii[:n]
	r.order = r.order[:n]
	for i := range bodies {
		r.radii[i] = r.EffectiveRadius(bodies[i])
		r.order[i] = i
	}

	lo := func(i int) float64 { return bodies[i].Position[0] - r.radii[i] }
	sort.Slice(r.order, func(i, j int) bool { return lo(r.order[i]) < lo(r.order[j]) })

	r.pairs = r.pairs[:0]
	for k, i := range r.order {
		hi := bodies[i].Position[0] + r.radii[i]
		for _, j := range r.order[k+1:] {
			if lo(j) >= hi {
				break
			}
			if touching(bodies[i].Position, bodies[j].Position, r.radii[i]+r.radii[j]) {
				r.pairs = append(r.pairs, pair{a: i, b: j})
			}
		}
	}
	return r.pairs
}

func touching(a, b mgl64.Vec3, reach float64) bool {
	return a.Sub(b).LenSqr() < reach*reach
}

func pairKey(bodies []dynamo.Body, p pair) (dynamo.BodyID, dynamo.BodyID) {
	a, b := bodies[p.a].ID, bodies[p.b].ID
	if a > b {
		a, b = b, a
	}
	return a, b
}
