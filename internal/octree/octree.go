// Package octree implements a Barnes-Hut octree stored as a flat node arena.
//
// Nodes live in a single slice with the root at index 0. A branch's eight
// children occupy consecutive slots, and every node carries a skip pointer
// (Next) to the node that follows its subtree in depth-first order, so force
// queries run as a single loop with no recursion or stack. Branch masses are
// filled in by Propagate, which walks the parents in reverse creation order
// so that every child is final before its parent is summed.
package octree

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
)

// None marks a missing child block or the end of the traversal. Slot 0
// holds the root, which is never a child nor a skip target.
const None = 0

// Node is one arena slot. A leaf holds a body or nothing; a branch holds
// the summed mass and centre of mass of its subtree.
type Node struct {
	Children int
	Next     int
	Octant   Octant
	Mass     float64
	Position mgl64.Vec3
}

func (n Node) IsLeaf() bool   { return n.Children == None }
func (n Node) IsBranch() bool { return n.Children != None }
func (n Node) IsEmpty() bool  { return n.Mass == 0 }

// Octree is a reusable Barnes-Hut tree. It is not safe for concurrent
// mutation; CalculateAcceleration may run concurrently once built.
type Octree struct {
	nodes   []Node
	parents []int

	law     gravity.Law
	thetaSq float64
}

// New returns an empty tree using the given force parameters. Clear must be
// called before the first Insert.
func New(p gravity.Params) *Octree {
	return &Octree{
		nodes:   make([]Node, 0, 64),
		law:     gravity.NewLaw(p.G, p.Epsilon),
		thetaSq: p.Theta * p.Theta,
	}
}

// Clear resets the tree to a single empty root covering bounds. Allocated
// capacity is kept.
func (t *Octree) Clear(bounds Octant) {
	t.nodes = t.nodes[:0]
	t.parents = t.parents[:0]
	t.nodes = append(t.nodes, Node{Octant: bounds})
}

// Build clears the tree to the bounding cube of positions, inserts every
// body and propagates.
func (t *Octree) Build(positions []mgl64.Vec3, masses []float64) error {
	if len(positions) != len(masses) {
		return fmt.Errorf("%d positions, %d masses: %w", len(positions), len(masses), dynamo.ErrDimensionMismatch)
	}
	t.Clear(NewContaining(positions))
	for i := range positions {
		if err := t.Insert(positions[i], masses[i]); err != nil {
			return fmt.Errorf("insert body %d: %w", i, err)
		}
	}
	t.Propagate()
	return nil
}

// Insert adds a point mass to the tree. The position must lie inside the
// root cube set by Clear. The tree is left untouched when the mass or
// position is invalid.
func (t *Octree) Insert(pos mgl64.Vec3, mass float64) error {
	if math.IsNaN(mass) || math.IsInf(mass, 0) || !dynamo.IsFinite(pos) {
		return fmt.Errorf("insert mass %g at %v: %w", mass, pos, dynamo.ErrInvalidState)
	}
	if mass <= 0 {
		return fmt.Errorf("insert mass %g: %w", mass, dynamo.ErrNonPositiveMass)
	}
	if len(t.nodes) == 0 {
		return fmt.Errorf("insert before Clear: %w", dynamo.ErrInvalidState)
	}
	if root := t.nodes[0].Octant; !root.Contains(pos) {
		return fmt.Errorf("insert at %v outside root %v±%g: %w", pos, root.Center, root.Size, dynamo.ErrParameterBounds)
	}

	node := 0
	for t.nodes[node].IsBranch() {
		n := &t.nodes[node]
		node = n.Children + n.Octant.FindOctant(pos)
	}

	n := &t.nodes[node]
	if n.IsEmpty() {
		n.Position = pos
		n.Mass = mass
		return nil
	}
	if n.Position == pos {
		n.Mass += mass
		return nil
	}

	// Push the resident body and the new one down until they separate.
	p, m := n.Position, n.Mass
	for {
		oct := t.nodes[node].Octant
		if !oct.Splittable() {
			total := m + mass
			t.nodes[node].Position = p.Mul(m / total).Add(pos.Mul(mass / total))
			t.nodes[node].Mass = total
			return nil
		}

		children := t.Subdivide(node)
		q1 := children + oct.FindOctant(p)
		q2 := children + oct.FindOctant(pos)
		if q1 == q2 {
			node = q1
			continue
		}

		t.nodes[q1].Position, t.nodes[q1].Mass = p, m
		t.nodes[q2].Position, t.nodes[q2].Mass = pos, mass
		return nil
	}
}

// Subdivide turns the leaf at idx into a branch and returns the index of its
// first child. Children 0-6 skip to their next sibling; child 7 inherits
// the parent's skip pointer.
func (t *Octree) Subdivide(idx int) int {
	t.parents = append(t.parents, idx)

	first := len(t.nodes)
	next := t.nodes[idx].Next
	octants := t.nodes[idx].Octant.IntoOctants()
	for i, o := range octants {
		child := Node{Octant: o, Next: first + i + 1}
		if i == 7 {
			child.Next = next
		}
		t.nodes = append(t.nodes, child)
	}

	parent := &t.nodes[idx]
	parent.Children = first
	parent.Mass = 0
	parent.Position = mgl64.Vec3{}
	return first
}

// Propagate computes the mass and centre of mass of every branch.
func (t *Octree) Propagate() {
	for i := len(t.parents) - 1; i >= 0; i-- {
		idx := t.parents[i]
		first := t.nodes[idx].Children

		var mass float64
		var weighted mgl64.Vec3
		for c := first; c < first+8; c++ {
			child := &t.nodes[c]
			if child.Mass == 0 {
				continue
			}
			mass += child.Mass
			weighted = weighted.Add(child.Position.Mul(child.Mass))
		}

		n := &t.nodes[idx]
		n.Mass = mass
		if mass > 0 {
			n.Position = weighted.Mul(1 / mass)
		} else {
			n.Position = n.Octant.Center
		}
	}
}

// Nodes exposes the arena for inspection. Callers must not modify it.
func (t *Octree) Nodes() []Node { return t.nodes }

func (t *Octree) Len() int { return len(t.nodes) }

// Parents returns branch indices in creation order.
func (t *Octree) Parents() []int { return t.parents }

// Root returns the root node. It panics on a tree that was never cleared.
func (t *Octree) Root() Node { return t.nodes[0] }
