package viz

import (
	"bytes"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	w, h := c.Dots()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	assert.Equal(t, rune(0x2801), c.Grid[0][0])
	assert.Equal(t, rune(0x2880), c.Grid[0][1])
	assert.True(t, c.IsSet(3, 3))
	assert.False(t, c.IsSet(1, 0))
	assert.False(t, c.IsSet(100, 100))

	c.Clear()
	assert.Equal(t, "⠀⠀\n", c.String())
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	for x := 0; x < 8; x++ {
		assert.True(t, c.IsSet(x, 0), "dot %d", x)
	}
	assert.False(t, c.IsSet(0, 1))
}

func TestCanvasFillDisc(t *testing.T) {
	c := NewCanvas(4, 2)
	c.FillDisc(4, 4, 1)
	for _, p := range [][2]int{{4, 4}, {3, 4}, {5, 4}, {4, 3}, {4, 5}} {
		assert.True(t, c.IsSet(p[0], p[1]))
	}
	assert.False(t, c.IsSet(3, 3))
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera(10)

	x, y, _, ok := cam.Project(mgl64.Vec3{}, 100, 80)
	require.True(t, ok)
	assert.Equal(t, 50, x)
	assert.Equal(t, 40, y)

	x, y, _, ok = cam.Project(mgl64.Vec3{10, 0, 0}, 100, 80)
	require.True(t, ok)
	assert.Equal(t, 90, x, "scale maps to half the shorter side")
	assert.Equal(t, 40, y)

	_, y, _, _ = cam.Project(mgl64.Vec3{0, 5, 0}, 100, 80)
	assert.Less(t, y, 40, "up is towards the top row")

	_, _, _, ok = cam.Project(mgl64.Vec3{0, 0, 100}, 100, 80)
	assert.False(t, ok, "behind the camera")
}

func TestCameraRotation(t *testing.T) {
	cam := NewCamera(10)
	cam.RotateY(math.Pi / 2)
	v := cam.View(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 0, v.X(), 1e-12)
	assert.InDelta(t, 1, math.Abs(v.Z()), 1e-12)
}

func TestFitScale(t *testing.T) {
	assert.Equal(t, 1.0, FitScale(nil))
	bodies := []dynamo.Body{
		{Mass: 1, Position: mgl64.Vec3{-2, 0, 0}},
		{Mass: 1, Position: mgl64.Vec3{2, 0, 0}},
	}
	assert.InDelta(t, 2.2, FitScale(bodies), 1e-12)
}

func TestRenderBodies(t *testing.T) {
	c := NewCanvas(20, 10)
	cam := NewCamera(10)
	RenderBodies(c, []dynamo.Body{
		{Mass: 100, Kind: dynamo.Star},
		{Mass: 1, Position: mgl64.Vec3{5, 0, 0}},
	}, cam)

	w, h := c.Dots()
	assert.True(t, c.IsSet(w/2, h/2))
	assert.True(t, c.IsSet(w/2+2, h/2), "stars are drawn as discs")
	x, y, _, ok := cam.Project(mgl64.Vec3{5, 0, 0}, w, h)
	require.True(t, ok)
	assert.True(t, c.IsSet(x, y))
}

func TestStarColor(t *testing.T) {
	assert.InDelta(t, 2000, StarTemperature(1), 1e-9)
	assert.Equal(t, 0.0, StarTemperature(0))

	cool := string(StarColor(1))
	hot := string(StarColor(1e6))
	assert.True(t, strings.HasPrefix(cool, "#ff"), "cool stars are red: %s", cool)
	assert.True(t, strings.HasSuffix(hot, "ff"), "hot stars are blue: %s", hot)
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "───", Sparkline(nil, 3))
	assert.NotEmpty(t, Sparkline([]float64{1, 2, 3, 4}, 4))
}

func TestModelStepsAndPauses(t *testing.T) {
	m, err := NewPresetModel("binary")
	require.NoError(t, err)

	next, cmd := m.Update(TickMsg{})
	assert.NotNil(t, cmd)
	m = next.(Model)
	assert.Equal(t, 1, m.sim.StepCount())
	assert.Len(t, m.energyHistory, 1)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	assert.False(t, m.running)

	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	assert.Equal(t, 1, m.sim.StepCount(), "paused model does not step")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = next.(Model)
	assert.Equal(t, 2, m.sim.StepCount())

	assert.Contains(t, m.View(), "BINARY")
}

func TestNewPresetModelUnknown(t *testing.T) {
	_, err := NewPresetModel("nope")
	assert.Error(t, err)
}

func TestPrinter(t *testing.T) {
	cfg := config.GetPreset("binary")
	var buf bytes.Buffer
	p := NewPrinter(&buf, cfg.Name, 1000, 2)
	p.OnStep(dynamo.TickReport{Step: 1, Time: 0.001}, []dynamo.Body{{Mass: 1}})

	out := buf.String()
	assert.Contains(t, out, "binary")
	assert.Contains(t, out, "bodies=1")
}
