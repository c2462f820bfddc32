package viz

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Printer redraws the bodies to w at most frameRate times per second. It
// implements sim.Observer.
type Printer struct {
	w         io.Writer
	name      string
	frameRate int
	lastFrame time.Time
	canvas    *Canvas
	camera    *Camera
	merges    int
}

func NewPrinter(w io.Writer, name string, frameRate int, scale float64) *Printer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &Printer{
		w:         w,
		name:      name,
		frameRate: frameRate,
		canvas:    NewCanvas(width-10, height-4),
		camera:    NewCamera(scale),
	}
}

func (p *Printer) OnStep(report dynamo.TickReport, bodies []dynamo.Body) {
	p.merges += len(report.Merges)
	if time.Since(p.lastFrame) < time.Second/time.Duration(p.frameRate) {
		return
	}
	p.lastFrame = time.Now()

	p.canvas.Clear()
	RenderBodies(p.canvas, bodies, p.camera)

	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.3f  step=%d\n", p.name, report.Time, report.Step)
	b.WriteString("  " + strings.Repeat("-", p.canvas.Width) + "\n")
	for _, row := range p.canvas.Grid {
		b.WriteString("  " + string(row) + "\n")
	}
	b.WriteString("  " + strings.Repeat("-", p.canvas.Width) + "\n")
	fmt.Fprintf(&b, "  bodies=%d merges=%d\n", len(bodies), p.merges)

	io.WriteString(p.w, b.String())
}

func (p *Printer) Start() { io.WriteString(p.w, hideCursor) }
func (p *Printer) Stop()  { io.WriteString(p.w, showCursor) }
