package octree

import "github.com/go-gl/mathgl/mgl64"

// CalculateAcceleration returns the gravitational acceleration at pos. It
// only reads the tree and may be called from many goroutines at once.
func (t *Octree) CalculateAcceleration(pos mgl64.Vec3) mgl64.Vec3 {
	var acc mgl64.Vec3
	if len(t.nodes) == 0 {
		return acc
	}

	node := 0
	for {
		n := &t.nodes[node]
		dir := n.Position.Sub(pos)
		d2 := dir.LenSqr()

		if n.IsLeaf() || n.Octant.Size*n.Octant.Size < d2*t.thetaSq {
			if n.Mass != 0 {
				acc = acc.Add(t.law.Acceleration(dir, d2, n.Mass))
			}
			if n.Next == None {
				break
			}
			node = n.Next
		} else {
			node = n.Children
		}
	}
	return acc
}
