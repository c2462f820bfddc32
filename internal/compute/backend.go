package compute

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
)

// Backend fills acc[i] with the gravitational acceleration on body i.
// All three slices have the same length; acc is overwritten.
type Backend interface {
	Name() string
	Accelerations(pos []mgl64.Vec3, mass []float64, acc []mgl64.Vec3) error
}

// directThreshold is the body count below which Auto prefers direct
// summation over building a tree.
const directThreshold = 64

// minChunk is the smallest slice of bodies handed to one goroutine.
const minChunk = 64

var constructors = map[string]func(gravity.Params) Backend{
	"tree":   func(p gravity.Params) Backend { return NewTreeBackend(p) },
	"direct": func(p gravity.Params) Backend { return NewDirectBackend(p) },
	"gonum":  func(p gravity.Params) Backend { return NewGonumBackend(p) },
}

// New returns the backend registered under name.
func New(name string, p gravity.Params) (Backend, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if name == "auto" {
		return NewAutoBackend(p), nil
	}
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, Names())
	}
	return ctor(p), nil
}

// Names lists the selectable backends, "auto" included.
func Names() []string {
	names := make([]string, 0, len(constructors)+1)
	for name := range constructors {
		names = append(names, name)
	}
	names = append(names, "auto")
	sort.Strings(names)
	return names
}

// AutoBackend switches between direct summation and the tree depending on
// how many bodies are alive.
type AutoBackend struct {
	tree     *TreeBackend
	direct   *DirectBackend
	lastTree bool
}

func NewAutoBackend(p gravity.Params) *AutoBackend {
	return &AutoBackend{tree: NewTreeBackend(p), direct: NewDirectBackend(p)}
}

func (a *AutoBackend) Name() string { return "auto" }

func (a *AutoBackend) Accelerations(pos []mgl64.Vec3, mass []float64, acc []mgl64.Vec3) error {
	a.lastTree = len(pos) >= directThreshold
	if !a.lastTree {
		return a.direct.Accelerations(pos, mass, acc)
	}
	return a.tree.Accelerations(pos, mass, acc)
}

func (a *AutoBackend) Tree() *TreeBackend { return a.tree }

// UsingTree reports whether the last call went through the tree.
func (a *AutoBackend) UsingTree() bool { return a.lastTree }

func checkDims(pos []mgl64.Vec3, mass []float64, acc []mgl64.Vec3) error {
	if len(pos) != len(mass) || len(pos) != len(acc) {
		return fmt.Errorf("compute: %d positions, %d masses, %d outputs: %w",
			len(pos), len(mass), len(acc), dynamo.ErrDimensionMismatch)
	}
	return nil
}
