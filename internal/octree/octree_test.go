package octree_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/octree"
)

func randomCloud(n int, seed uint64, spread float64) ([]mgl64.Vec3, []float64) {
	rng := rand.New(rand.NewSource(seed))
	pos := make([]mgl64.Vec3, n)
	mass := make([]float64, n)
	for i := range pos {
		pos[i] = mgl64.Vec3{
			(rng.Float64()*2 - 1) * spread,
			(rng.Float64()*2 - 1) * spread,
			(rng.Float64()*2 - 1) * spread,
		}
		mass[i] = 0.5 + rng.Float64()
	}
	return pos, mass
}

func direct(law gravity.Law, at mgl64.Vec3, pos []mgl64.Vec3, mass []float64) mgl64.Vec3 {
	var acc mgl64.Vec3
	for i := range pos {
		acc = acc.Add(law.Between(at, pos[i], mass[i]))
	}
	return acc
}

var _ = Describe("Octant", func() {
	It("classifies positions by the sign of each axis offset", func() {
		o := octree.Octant{Size: 10}
		Expect(o.FindOctant(mgl64.Vec3{1, 1, 1})).To(Equal(7))
		Expect(o.FindOctant(mgl64.Vec3{-1, -1, -1})).To(Equal(0))
		Expect(o.FindOctant(mgl64.Vec3{1, -1, -1})).To(Equal(1))
		Expect(o.FindOctant(mgl64.Vec3{-1, 1, -1})).To(Equal(2))
		Expect(o.FindOctant(mgl64.Vec3{-1, -1, 1})).To(Equal(4))
	})

	It("puts coordinates on the centre plane on the high side", func() {
		o := octree.Octant{Size: 10}
		Expect(o.FindOctant(mgl64.Vec3{0, 0, 0})).To(Equal(7))
	})

	It("splits into children that agree with FindOctant", func() {
		o := octree.Octant{Center: mgl64.Vec3{3, -2, 5}, Size: 4}
		for i, child := range o.IntoOctants() {
			Expect(child.Size).To(Equal(2.0))
			Expect(o.FindOctant(child.Center)).To(Equal(i))
			Expect(o.Contains(child.Center)).To(BeTrue())
		}
	})

	It("contains every position it was built from", func() {
		pos, _ := randomCloud(500, 7, 1e3)
		bounds := octree.NewContaining(pos)
		for _, p := range pos {
			Expect(bounds.Contains(p)).To(BeTrue(), "position %v outside %+v", p, bounds)
		}
	})

	It("returns a minimal octant for degenerate input", func() {
		Expect(octree.NewContaining(nil).Size).To(Equal(octree.MinOctantSize))

		same := []mgl64.Vec3{{4, 4, 4}, {4, 4, 4}}
		o := octree.NewContaining(same)
		Expect(o.Size).To(Equal(octree.MinOctantSize))
		Expect(o.Center).To(Equal(mgl64.Vec3{4, 4, 4}))
	})

	It("stops being splittable at floating point resolution", func() {
		Expect(octree.Octant{Center: mgl64.Vec3{1, 1, 1}, Size: 1}.Splittable()).To(BeTrue())
		Expect(octree.Octant{Center: mgl64.Vec3{1e10, 0, 0}, Size: 1e-10}.Splittable()).To(BeFalse())
		Expect(octree.Octant{Size: 0}.Splittable()).To(BeFalse())
	})
})

var _ = Describe("Octree", func() {
	var tree *octree.Octree

	BeforeEach(func() {
		tree = octree.New(gravity.Params{G: 1, Theta: 0.5, Epsilon: 0})
	})

	It("yields zero acceleration when empty", func() {
		tree.Clear(octree.NewContaining(nil))
		tree.Propagate()
		Expect(tree.Len()).To(Equal(1))
		Expect(tree.CalculateAcceleration(mgl64.Vec3{1, 2, 3})).To(Equal(mgl64.Vec3{}))
	})

	It("computes the centre of mass of two bodies", func() {
		pos := []mgl64.Vec3{{10, 10, 10}, {-10, -10, -10}}
		mass := []float64{5, 3}
		Expect(tree.Build(pos, mass)).To(Succeed())

		root := tree.Root()
		Expect(root.Mass).To(BeNumerically("~", 8, 1e-12))
		for i := 0; i < 3; i++ {
			Expect(root.Position[i]).To(BeNumerically("~", 2.5, 1e-9))
		}
	})

	It("conserves mass through propagation", func() {
		pos, mass := randomCloud(1000, 42, 100)
		Expect(tree.Build(pos, mass)).To(Succeed())

		var total float64
		for _, m := range mass {
			total += m
		}
		Expect(tree.Root().Mass).To(BeNumerically("~", total, total*1e-12))

		for _, idx := range tree.Parents() {
			n := tree.Nodes()[idx]
			var sum float64
			for c := n.Children; c < n.Children+8; c++ {
				sum += tree.Nodes()[c].Mass
			}
			Expect(n.Mass).To(BeNumerically("~", sum, sum*1e-12))
		}
	})

	It("accumulates coincident bodies without creating nodes", func() {
		tree.Clear(octree.Octant{Size: 10})
		Expect(tree.Insert(mgl64.Vec3{1, 1, 1}, 2)).To(Succeed())
		Expect(tree.Insert(mgl64.Vec3{1, 1, 1}, 3)).To(Succeed())
		tree.Propagate()

		Expect(tree.Len()).To(Equal(1))
		Expect(tree.Root().Mass).To(Equal(5.0))
	})

	It("merges bodies that cannot be separated in floating point", func() {
		a := mgl64.Vec3{1, 1, 1}
		b := mgl64.Vec3{math.Nextafter(1, 2), 1, 1}
		// A half-width of one ulp holds b but leaves no splittable room.
		tree.Clear(octree.Octant{Center: a, Size: b[0] - a[0]})
		Expect(tree.Insert(a, 1)).To(Succeed())
		Expect(tree.Insert(b, 3)).To(Succeed())
		tree.Propagate()

		Expect(tree.Len()).To(Equal(1))
		root := tree.Root()
		Expect(root.Mass).To(Equal(4.0))
		Expect(root.Position[0]).To(BeNumerically(">=", a[0]))
		Expect(root.Position[0]).To(BeNumerically("<=", b[0]))
	})

	It("links children with skip pointers", func() {
		pos := []mgl64.Vec3{{1, 1, 1}, {-1, -1, -1}}
		Expect(tree.Build(pos, []float64{1, 1})).To(Succeed())

		nodes := tree.Nodes()
		Expect(nodes).To(HaveLen(9))
		Expect(nodes[0].Children).To(Equal(1))
		Expect(nodes[0].Next).To(Equal(octree.None))
		for i := 1; i < 8; i++ {
			Expect(nodes[i].Next).To(Equal(i + 1))
		}
		Expect(nodes[8].Next).To(Equal(octree.None))
	})

	It("visits every leaf exactly once along the skip chain", func() {
		pos, mass := randomCloud(300, 3, 50)
		Expect(tree.Build(pos, mass)).To(Succeed())

		nodes := tree.Nodes()
		seen := make(map[int]int)
		node := 0
		for {
			n := nodes[node]
			if n.IsLeaf() {
				seen[node]++
				if n.Next == octree.None {
					break
				}
				node = n.Next
			} else {
				node = n.Children
			}
		}

		leaves := 0
		for i := range nodes {
			if nodes[i].IsLeaf() {
				leaves++
				Expect(seen[i]).To(Equal(1), "leaf %d", i)
			}
		}
		Expect(seen).To(HaveLen(leaves))
	})

	It("rejects invalid bodies without touching the tree", func() {
		tree.Clear(octree.Octant{Size: 10})
		Expect(tree.Insert(mgl64.Vec3{}, 0)).To(MatchError(dynamo.ErrNonPositiveMass))
		Expect(tree.Insert(mgl64.Vec3{}, -1)).To(MatchError(dynamo.ErrNonPositiveMass))
		Expect(tree.Insert(mgl64.Vec3{math.NaN(), 0, 0}, 1)).To(MatchError(dynamo.ErrInvalidState))
		Expect(tree.Insert(mgl64.Vec3{}, math.Inf(1))).To(MatchError(dynamo.ErrInvalidState))
		Expect(tree.Len()).To(Equal(1))
		Expect(tree.Root().IsEmpty()).To(BeTrue())
	})

	It("rejects bodies outside the root cube", func() {
		tree.Clear(octree.NewContaining([]mgl64.Vec3{{}}))
		Expect(tree.Insert(mgl64.Vec3{}, 1)).To(Succeed())
		Expect(tree.Insert(mgl64.Vec3{10, 0, 0}, 1)).To(MatchError(dynamo.ErrParameterBounds))
		tree.Propagate()

		Expect(tree.Len()).To(Equal(1))
		Expect(tree.Root().Mass).To(Equal(1.0))
	})

	It("requires Clear before the first insert", func() {
		Expect(tree.Insert(mgl64.Vec3{}, 1)).To(MatchError(dynamo.ErrInvalidState))
		Expect(tree.Len()).To(Equal(0))
	})

	It("gives the exact pair force once both bodies are inside the root", func() {
		pos := []mgl64.Vec3{{}, {10, 0, 0}}
		Expect(tree.Build(pos, []float64{1, 1})).To(Succeed())

		a := tree.CalculateAcceleration(pos[0])
		Expect(a[0]).To(BeNumerically("~", 0.01, 1e-12))
		Expect(a[1]).To(BeZero())
		Expect(a[2]).To(BeZero())
	})

	It("matches direct summation in the far field", func() {
		pos, mass := randomCloud(200, 11, 1)
		for i := range pos {
			pos[i] = pos[i].Add(mgl64.Vec3{100, 0, 0})
		}
		Expect(tree.Build(pos, mass)).To(Succeed())

		law := gravity.NewLaw(1, 0)
		probe := mgl64.Vec3{}
		want := direct(law, probe, pos, mass)
		got := tree.CalculateAcceleration(probe)
		Expect(got.Sub(want).Len() / want.Len()).To(BeNumerically("<", 0.01))
	})

	It("is exact when theta is zero", func() {
		exact := octree.New(gravity.Params{G: 1, Theta: 0, Epsilon: 0.01})
		pos, mass := randomCloud(100, 5, 10)
		Expect(exact.Build(pos, mass)).To(Succeed())

		law := gravity.NewLaw(1, 0.01)
		for i := 0; i < len(pos); i += 10 {
			want := direct(law, pos[i], pos, mass)
			got := exact.CalculateAcceleration(pos[i])
			Expect(got.Sub(want).Len()).To(BeNumerically("<", 1e-9*math.Max(1, want.Len())))
		}
	})

	It("reuses the arena across rebuilds", func() {
		pos, mass := randomCloud(100, 9, 10)
		Expect(tree.Build(pos, mass)).To(Succeed())
		first := tree.Len()
		Expect(tree.Build(pos, mass)).To(Succeed())
		Expect(tree.Len()).To(Equal(first))
	})
})
