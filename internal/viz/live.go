package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	maxOctantBoxes  = 256
	gifPath         = "simulation.gif"
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a simulator once per frame and renders its bodies.
type Model struct {
	sim    *sim.Simulator
	energy sim.EnergyComputer
	name   string
	dt     float64

	canvas *Canvas
	camera *Camera

	running     bool
	follow      bool
	showOctants bool
	showHelp    bool
	stepsPerTic int

	energyHistory []float64
	err           error

	recording bool
	frames    []*image.Paletted
}

// NewModel wraps s for interactive display. scale is the world half-extent
// visible at zoom 1; energy may be nil.
func NewModel(s *sim.Simulator, energy sim.EnergyComputer, name string, dt, scale float64) Model {
	return Model{
		sim:           s,
		energy:        energy,
		name:          name,
		dt:            dt,
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(scale),
		running:       true,
		follow:        true,
		stepsPerTic:   1,
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording {
				m.saveGIF()
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running && m.err == nil
		case "n":
			if !m.running && m.err == nil {
				m.step()
			}
		case "]":
			m.stepsPerTic = min(m.stepsPerTic*2, 64)
		case "[":
			m.stepsPerTic = max(m.stepsPerTic/2, 1)
		case "o":
			m.showOctants = !m.showOctants
		case "f":
			m.follow = !m.follow
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerTic && m.err == nil; i++ {
				m.step()
			}
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if _, err := m.sim.Step(m.dt); err != nil {
		m.err = err
		m.running = false
		slog.Error("live step failed", "component", "viz", "error", err)
		return
	}
	if m.energy != nil {
		m.energyHistory = append(m.energyHistory, m.energy.TotalEnergy(m.sim.Store().Bodies()))
		if len(m.energyHistory) > historyCapacity {
			m.energyHistory = m.energyHistory[1:]
		}
	}
}

func (m *Model) draw() {
	bodies := m.sim.Store().Bodies()
	if m.follow {
		if com, mass := metrics.CenterOfMass(bodies); mass > 0 {
			m.camera.Target = com
		}
	}

	m.canvas.Clear()
	if m.showOctants {
		if tb, ok := treeOf(m.sim.Backend()); ok {
			RenderOctants(m.canvas, tb.Tree(), m.camera, maxOctantBoxes)
		}
	}
	RenderBodies(m.canvas, bodies, m.camera)
}

// treeOf returns the tree backend in use, looking through the auto backend.
func treeOf(b compute.Backend) (*compute.TreeBackend, bool) {
	switch b := b.(type) {
	case *compute.TreeBackend:
		return b, true
	case *compute.AutoBackend:
		return b.Tree(), b.UsingTree()
	}
	return nil, false
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("HALTED") + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	bodies := m.sim.Store().Bodies()
	row("Time", fmt.Sprintf("%.3f", m.sim.Time()))
	row("Step", fmt.Sprintf("%d (x%d)", m.sim.StepCount(), m.stepsPerTic))
	row("Bodies", fmt.Sprintf("%d", len(bodies)))
	row("Solver", m.sim.Backend().Name())
	row("Zoom", fmt.Sprintf("%.2f", m.camera.Zoom))
	if len(m.energyHistory) > 0 {
		row("Energy", fmt.Sprintf("%.6g", m.energyHistory[len(m.energyHistory)-1]))
	}
	if star, ok := heaviest(bodies); ok {
		swatch := lipgloss.NewStyle().Foreground(StarColor(star.Mass)).Render("●")
		row("Primary", fmt.Sprintf("%s m=%.4g %.0fK", swatch, star.Mass, StarTemperature(star.Mass)))
	}
	if m.recording {
		row("Recording", fmt.Sprintf("%d frames", len(m.frames)))
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause N:Step Q:Quit\nO:Octree F:Follow ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))

	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause or resume
  N        single step while paused
  [ ]      halve or double steps per frame
  X/x Y/y  rotate camera
  + -      zoom
  F        follow centre of mass
  O        toggle octree overlay
  G        toggle GIF recording
  Q        quit
`

func (m *Model) captureFrame() {
	const charW, charH = 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, m.canvas.Width*charW, m.canvas.Height*charH), color.Palette{color.Black, color.White})

	w, h := m.canvas.Dots()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(gifPath)
	if err != nil {
		slog.Error("create gif", "component", "viz", "error", err)
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		slog.Error("encode gif", "component", "viz", "error", err)
	}
}

// RunLive runs the model in the terminal's alternate screen until the user
// quits.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
