package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// MomentumDrift reports max |P - P0| / |P0|, or the absolute deviation
// when the initial momentum is zero.
type MomentumDrift struct {
	name     string
	initial  mgl64.Vec3
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(bodies []dynamo.Body, t float64) {
	p := TotalMomentum(bodies)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	drift := p.Sub(m.initial).Len()
	if scale := m.initial.Len(); scale > 0 {
		drift /= scale
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = mgl64.Vec3{}
	m.maxDrift = 0
	m.samples = 0
}

// BodyCount reports the number of live bodies at the last sample.
type BodyCount struct {
	last int
}

func NewBodyCount() *BodyCount { return &BodyCount{} }

func (b *BodyCount) Name() string                            { return "body_count" }
func (b *BodyCount) Observe(bodies []dynamo.Body, t float64) { b.last = len(bodies) }
func (b *BodyCount) Value() float64                          { return float64(b.last) }
func (b *BodyCount) Reset()                                  { b.last = 0 }
