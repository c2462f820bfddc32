package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/viz"
)

const (
	background  = "#0a0a0a"
	planetColor = "#00ccff"
	mergeColor  = "#ff4444"
)

// SVGOptions controls the trajectory plot. Plane picks the two position
// components drawn as x and y, "xy" by default.
type SVGOptions struct {
	Width, Height int
	Plane         string
	MaxBodies     int
}

func (o SVGOptions) axes() (int, int, error) {
	switch o.Plane {
	case "", "xy":
		return 0, 1, nil
	case "xz":
		return 0, 2, nil
	case "yz":
		return 1, 2, nil
	}
	return 0, 0, fmt.Errorf("unknown plane %q (available: xy, xz, yz)", o.Plane)
}

type point struct{ x, y float64 }

type track struct {
	id     dynamo.BodyID
	kind   dynamo.Kind
	mass   float64
	points []point
}

// TrajectoriesSVG draws the path of every body across frames as one
// polyline each, with stars coloured by temperature and bodies that were
// absorbed marked where they vanished.
func TrajectoriesSVG(w io.Writer, frames []sim.Frame, merges []sim.MergeRecord, opts SVGOptions) error {
	ax, ay, err := opts.axes()
	if err != nil {
		return err
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}

	tracks := collect(frames, ax, ay)
	if len(tracks) == 0 {
		return fmt.Errorf("no bodies to draw")
	}
	if opts.MaxBodies > 0 && len(tracks) > opts.MaxBodies {
		sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].mass > tracks[j].mass })
		tracks = tracks[:opts.MaxBodies]
	}

	minX, maxX, minY, maxY := bounds(tracks)
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	span := math.Max(rangeX, rangeY) * 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	side := float64(min(opts.Width, opts.Height))
	toScreen := func(p point) (float64, float64) {
		return float64(opts.Width)/2 + (p.x-cx)/span*side,
			float64(opts.Height)/2 - (p.y-cy)/span*side
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, background)

	absorbed := make(map[dynamo.BodyID]bool, len(merges))
	for _, m := range merges {
		absorbed[m.Absorbed] = true
	}

	for _, tr := range tracks {
		colour := planetColor
		if tr.kind == dynamo.Star {
			colour = string(viz.StarColor(tr.mass))
		}

		if len(tr.points) > 1 {
			fmt.Fprintf(&sb, `<polyline fill="none" stroke="%s" stroke-width="1" stroke-opacity="0.8" points="`, colour)
			for i, p := range tr.points {
				x, y := toScreen(p)
				if i > 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			}
			sb.WriteString("\"/>\n")
		}

		x, y := toScreen(tr.points[len(tr.points)-1])
		fill := colour
		if absorbed[tr.id] {
			fill = mergeColor
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"><title>body %d</title></circle>
`, x, y, radius(tr), fill, tr.id)
	}

	sb.WriteString("</svg>\n")
	_, err = io.WriteString(w, sb.String())
	return err
}

func collect(frames []sim.Frame, ax, ay int) []*track {
	byID := make(map[dynamo.BodyID]*track)
	var order []*track
	for _, fr := range frames {
		for _, b := range fr.Bodies {
			tr, ok := byID[b.ID]
			if !ok {
				tr = &track{id: b.ID}
				byID[b.ID] = tr
				order = append(order, tr)
			}
			tr.kind, tr.mass = b.Kind, b.Mass
			tr.points = append(tr.points, point{b.Position[ax], b.Position[ay]})
		}
	}
	return order
}

func bounds(tracks []*track) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, tr := range tracks {
		for _, p := range tr.points {
			minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
			minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
		}
	}
	return
}

func radius(tr *track) float64 {
	if tr.kind == dynamo.Star {
		return 5
	}
	return 2
}
