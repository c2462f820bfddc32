package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/octree"
)

// Camera orbits Target at Distance and projects world points onto a
// canvas with a simple perspective divide. Scale is the world half-extent
// that fills the shorter side of the canvas at zoom 1.
type Camera struct {
	Target     mgl64.Vec3
	Distance   float64
	Scale      float64
	RotX, RotY float64
	Zoom       float64
}

func NewCamera(scale float64) *Camera {
	if scale <= 0 {
		scale = 10
	}
	return &Camera{Distance: 4 * scale, Scale: scale, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(100, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.01, c.Zoom/1.2) }

// View returns p in camera space: translated to Target then rotated.
func (c *Camera) View(p mgl64.Vec3) mgl64.Vec3 {
	rot := mgl64.Rotate3DY(c.RotY).Mul3(mgl64.Rotate3DX(c.RotX))
	return rot.Mul3x1(p.Sub(c.Target))
}

// Project maps p to dot coordinates on a w x h dot canvas. depth grows
// away from the viewer; ok is false when p is behind the camera or off
// the canvas.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y int, depth float64, ok bool) {
	v := c.View(p)
	dist := c.Distance
	if v.Z() >= dist {
		return 0, 0, 0, false
	}
	persp := dist / (dist - v.Z())
	unit := float64(min(w, h)) / 2 / c.Scale * c.Zoom

	x = int(math.Round(v.X()*persp*unit)) + w/2
	y = int(math.Round(-v.Y()*persp*unit)) + h/2
	return x, y, -v.Z(), x >= 0 && x < w && y >= 0 && y < h
}

type projected struct {
	x, y, r int
	depth   float64
}

// RenderBodies draws bodies back to front. Stars and massive bodies get a
// disc sized by their share of the heaviest mass.
func RenderBodies(c *Canvas, bodies []dynamo.Body, cam *Camera) {
	if c == nil || cam == nil || len(bodies) == 0 {
		return
	}
	w, h := c.Dots()

	heaviest := 0.0
	for i := range bodies {
		heaviest = math.Max(heaviest, bodies[i].Mass)
	}

	proj := make([]projected, 0, len(bodies))
	for _, b := range bodies {
		x, y, d, ok := cam.Project(b.Position, w, h)
		if !ok {
			continue
		}
		r := 0
		if b.Kind == dynamo.Star {
			r = 2
		} else if heaviest > 0 && b.Mass/heaviest > 0.25 {
			r = 1
		}
		proj = append(proj, projected{x: x, y: y, r: r, depth: d})
	}

	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, p := range proj {
		c.FillDisc(p.x, p.y, p.r)
	}
}

// boxEdges are the vertex index pairs of a cube's twelve edges, with
// vertex i at corner bits x=1, y=2, z=4.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// RenderOctants outlines up to maxBoxes branch octants of tree in arena
// order, so coarse levels come first. Boxes with a corner off the canvas
// are skipped edge by edge.
func RenderOctants(c *Canvas, tree *octree.Octree, cam *Camera, maxBoxes int) {
	if c == nil || tree == nil || cam == nil {
		return
	}
	w, h := c.Dots()
	drawn := 0
	nodes := tree.Nodes()
	for i := range nodes {
		if drawn >= maxBoxes {
			return
		}
		n := &nodes[i]
		if !n.IsBranch() {
			continue
		}
		drawBox(c, cam, n.Octant, w, h)
		drawn++
	}
}

func drawBox(c *Canvas, cam *Camera, o octree.Octant, w, h int) {
	var pts [8][2]int
	var vis [8]bool
	for i := range 8 {
		corner := o.Center
		for axis := range 3 {
			if i&(1<<axis) != 0 {
				corner[axis] += o.Size
			} else {
				corner[axis] -= o.Size
			}
		}
		x, y, _, ok := cam.Project(corner, w, h)
		pts[i] = [2]int{x, y}
		vis[i] = ok
	}
	for _, e := range boxEdges {
		if vis[e[0]] && vis[e[1]] {
			a, b := pts[e[0]], pts[e[1]]
			c.DrawLine(a[0], a[1], b[0], b[1])
		}
	}
}

func heaviest(bodies []dynamo.Body) (dynamo.Body, bool) {
	if len(bodies) == 0 {
		return dynamo.Body{}, false
	}
	best := bodies[0]
	for _, b := range bodies[1:] {
		if b.Mass > best.Mass {
			best = b
		}
	}
	return best, true
}

// FitScale returns the largest distance of any body from the centre of
// mass, padded by 10%, or 1 for an empty or point-like set.
func FitScale(bodies []dynamo.Body) float64 {
	com, mass := metrics.CenterOfMass(bodies)
	if mass == 0 {
		return 1
	}
	r := 0.0
	for i := range bodies {
		r = math.Max(r, bodies[i].Position.Sub(com).Len())
	}
	if r == 0 {
		return 1
	}
	return 1.1 * r
}
