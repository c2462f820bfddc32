package compute

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/octree"
)

// TreeBackend rebuilds a Barnes-Hut octree on every call and queries it in
// parallel. The arena is reused between calls.
type TreeBackend struct {
	tree *octree.Octree
}

func NewTreeBackend(p gravity.Params) *TreeBackend {
	return &TreeBackend{tree: octree.New(p)}
}

func (b *TreeBackend) Name() string { return "tree" }

func (b *TreeBackend) Accelerations(pos []mgl64.Vec3, mass []float64, acc []mgl64.Vec3) error {
	if err := checkDims(pos, mass, acc); err != nil {
		return err
	}
	if err := b.tree.Build(pos, mass); err != nil {
		return err
	}

	tree := b.tree
	dynamo.ParallelFor(len(pos), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			acc[i] = tree.CalculateAcceleration(pos[i])
		}
	})
	return nil
}

// Tree exposes the octree built by the last call.
func (b *TreeBackend) Tree() *octree.Octree { return b.tree }
