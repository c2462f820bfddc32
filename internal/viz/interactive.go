package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/metrics"
)

var presetInfo = map[string]string{
	"binary":    "equal-mass circular pair",
	"figure8":   "three-body choreography",
	"galaxy":    "disc around a heavy core",
	"cluster":   "cold collapse of a uniform ball",
	"collision": "head-on merger",
}

// menu lets the user pick a preset, then hands over to the live model.
type menu struct {
	presets []string
	cursor  int
	err     error

	live    Model
	started bool
}

func newMenu() menu {
	return menu{presets: config.ListPresets()}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.started {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(m.presets)-1)
	case "enter", " ":
		live, err := NewPresetModel(m.presets[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m.live, m.started = live, true
		return m, m.live.Init()
	}
	return m, nil
}

func (m menu) View() string {
	if m.started {
		return m.live.View()
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("GRAVSIM") + "\n")
	for i, name := range m.presets {
		line := fmt.Sprintf("%-10s %s", name, subtleStyle.Render(presetInfo[name]))
		if i == m.cursor {
			s.WriteString(selectedStyle.Render("> "+name) + line[len(name):] + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("↑↓:Select Enter:Start Q:Quit"))
	return s.String()
}

// NewPresetModel builds a live model for the named preset.
func NewPresetModel(name string) (Model, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return Model{}, fmt.Errorf("unknown preset: %s", name)
	}
	return NewConfigModel(cfg)
}

// NewConfigModel builds the simulator described by cfg and wraps it for
// live display, framing the camera on the initial bodies.
func NewConfigModel(cfg *config.Config) (Model, error) {
	s, err := experiment.Build(experiment.NewRegistry(), cfg)
	if err != nil {
		return Model{}, err
	}
	scale := FitScale(s.Store().Bodies())
	return NewModel(s, metrics.NewModel(cfg.GravityParams()), cfg.Name, cfg.Dt, scale), nil
}

func RunInteractive() error {
	_, err := tea.NewProgram(newMenu(), tea.WithAltScreen()).Run()
	return err
}
