package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(44)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))

	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// StarTemperature maps a stellar mass to a rough surface temperature in
// kelvin, 2000·m^0.2.
func StarTemperature(mass float64) float64 {
	if mass <= 0 {
		return 0
	}
	return 2000 * math.Pow(mass, 0.2)
}

// StarColor approximates the colour of a black body at the temperature
// of a star of the given mass, red through white to blue.
func StarColor(mass float64) lipgloss.Color {
	t := StarTemperature(mass) / 100

	var r, g, b float64
	if t <= 66 {
		r = 255
		g = 99.47*math.Log(t) - 161.12
	} else {
		r = 329.7 * math.Pow(t-60, -0.1332)
		g = 288.12 * math.Pow(t-60, -0.0755)
	}
	switch {
	case t >= 66:
		b = 255
	case t <= 19:
		b = 0
	default:
		b = 138.52*math.Log(t-10) - 305.04
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", clampByte(r), clampByte(g), clampByte(b)))
}

func clampByte(v float64) int {
	return int(math.Max(0, math.Min(255, v)))
}

// ProgressBar renders percent in [0, 1] as a coloured bar.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(width, filled))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent > 0.8:
		return sparkHigh.Render(bar)
	case percent > 0.4:
		return sparkMid.Render(bar)
	}
	return sparkLow.Render(bar)
}

// Sparkline renders values as one block glyph per column, sampling when
// there are more values than columns.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	step := max(len(values)/width, 1)
	var out strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / span
		idx := max(0, min(len(chars)-1, int(norm*float64(len(chars)-1))))
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			out.WriteString(sparkHigh.Render(c))
		case norm > 0.3:
			out.WriteString(sparkMid.Render(c))
		default:
			out.WriteString(sparkLow.Render(c))
		}
	}
	return out.String()
}
