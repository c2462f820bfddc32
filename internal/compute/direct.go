package compute

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
)

// DirectBackend sums every pair exactly. Each goroutine owns a block of
// target bodies, so no per-worker accumulators are needed.
type DirectBackend struct {
	law gravity.Law
}

func NewDirectBackend(p gravity.Params) *DirectBackend {
	return &DirectBackend{law: gravity.NewLaw(p.G, p.Epsilon)}
}

func (b *DirectBackend) Name() string { return "direct" }

func (b *DirectBackend) Accelerations(pos []mgl64.Vec3, mass []float64, acc []mgl64.Vec3) error {
	if err := checkDims(pos, mass, acc); err != nil {
		return err
	}

	law := b.law
	n := len(pos)
	dynamo.ParallelFor(n, minChunk/4, func(start, end int) {
		for i := start; i < end; i++ {
			var a mgl64.Vec3
			pi := pos[i]
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				dir := pos[j].Sub(pi)
				a = a.Add(law.Acceleration(dir, dir.LenSqr(), mass[j]))
			}
			acc[i] = a
		}
	})
	return nil
}
