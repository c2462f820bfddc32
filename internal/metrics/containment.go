package metrics

import (
	"github.com/san-kum/gravsim/internal/dynamo"
)

// Containment reports the mean fraction of bodies that stay within
// threshold of the centre of mass, a rough measure of how bound the
// system remains.
type Containment struct {
	name      string
	threshold float64
	fraction  float64
	samples   int
}

func NewContainment(threshold float64) *Containment {
	return &Containment{
		name:      "containment",
		threshold: threshold,
	}
}

func (s *Containment) Name() string {
	return s.name
}

func (s *Containment) Observe(bodies []dynamo.Body, t float64) {
	if len(bodies) == 0 {
		return
	}
	com, _ := CenterOfMass(bodies)
	limit := s.threshold * s.threshold

	inside := 0
	for _, b := range bodies {
		if b.Position.Sub(com).LenSqr() <= limit {
			inside++
		}
	}
	s.fraction += float64(inside) / float64(len(bodies))
	s.samples++
}

func (s *Containment) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return s.fraction / float64(s.samples)
}

func (s *Containment) Reset() {
	s.fraction = 0
	s.samples = 0
}
