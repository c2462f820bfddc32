package octree

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MinOctantSize is the half-width used when the bodies span no volume.
const MinOctantSize = 1e-6

// boundsPadding widens the root cube so rounding never leaves a body outside.
const boundsPadding = 1e-9

// Octant is an axis-aligned cube spanning Center ± Size on every axis.
type Octant struct {
	Center mgl64.Vec3
	Size   float64
}

// NewContaining returns the smallest padded cube holding every position.
func NewContaining(positions []mgl64.Vec3) Octant {
	if len(positions) == 0 {
		return Octant{Size: MinOctantSize}
	}

	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}

	center := lo.Add(hi).Mul(0.5)
	extent := math.Max(hi[0]-lo[0], math.Max(hi[1]-lo[1], hi[2]-lo[2]))
	half := extent / 2
	half += half*boundsPadding + MinOctantSize*boundsPadding
	if half < MinOctantSize {
		half = MinOctantSize
	}

	return Octant{Center: center, Size: half}
}

// FindOctant returns the child index for p: bit 0 is x, bit 1 is y, bit 2
// is z, set when the coordinate is on or above the centre.
func (o Octant) FindOctant(p mgl64.Vec3) int {
	idx := 0
	if p[0] >= o.Center[0] {
		idx |= 1
	}
	if p[1] >= o.Center[1] {
		idx |= 2
	}
	if p[2] >= o.Center[2] {
		idx |= 4
	}
	return idx
}

// IntoOctants splits o into its eight children in FindOctant order.
func (o Octant) IntoOctants() [8]Octant {
	var out [8]Octant
	h := o.Size / 2
	for i := range out {
		off := mgl64.Vec3{-h, -h, -h}
		if i&1 != 0 {
			off[0] = h
		}
		if i&2 != 0 {
			off[1] = h
		}
		if i&4 != 0 {
			off[2] = h
		}
		out[i] = Octant{Center: o.Center.Add(off), Size: h}
	}
	return out
}

// Contains reports whether p lies in the closed cube.
func (o Octant) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(p[i]-o.Center[i]) > o.Size {
			return false
		}
	}
	return true
}

// Splittable reports whether the children of o would have centres distinct
// from o's own in floating point.
func (o Octant) Splittable() bool {
	h := o.Size / 2
	if h <= 0 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := o.Center[i]
		if c+h == c || c-h == c {
			return false
		}
	}
	return true
}
