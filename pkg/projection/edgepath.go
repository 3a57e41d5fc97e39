package projection

import (
	"fmt"
	"math"
	"sort"

	"github.com/dd0wney/etymograph/pkg/etymology"
)

// ArrowClearance is the gap left between an edge's end and the target
// node's circle so the arrowhead does not overlap it.
const ArrowClearance = 10.0

// DefaultNodeRadius matches the drawn node circle.
const DefaultNodeRadius = 30.0

type Position = etymology.Position

// Path is a drawable edge. When Curved is false Control is unused.
type Path struct {
	Start   Position
	Control Position
	End     Position
	Curved  bool
}

// EdgePath computes the edge geometry between two node centres. The path
// leaves the source circle, stops ArrowClearance short of the target
// circle and, for a non-zero curveOffset, bends by that many units
// perpendicular to the chord. Coincident centres yield a zero-length path.
func EdgePath(source, target Position, nodeRadius, curveOffset float64) Path {
	dx := target.X - source.X
	dy := target.Y - source.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return Path{Start: source, Control: source, End: source}
	}

	ux, uy := dx/dist, dy/dist
	start := Position{X: source.X + ux*nodeRadius, Y: source.Y + uy*nodeRadius}
	end := Position{
		X: target.X - ux*(nodeRadius+ArrowClearance),
		Y: target.Y - uy*(nodeRadius+ArrowClearance),
	}
	if curveOffset == 0 {
		return Path{Start: start, Control: midpoint(start, end), End: end}
	}

	// perpendicular (-uy, ux)
	mid := midpoint(start, end)
	ctrl := Position{X: mid.X - uy*curveOffset, Y: mid.Y + ux*curveOffset}
	return Path{Start: start, Control: ctrl, End: end, Curved: true}
}

// SVG renders the path as SVG path data.
func (p Path) SVG() string {
	if p.Curved {
		return fmt.Sprintf("M %s,%s Q %s,%s %s,%s",
			num(p.Start.X), num(p.Start.Y),
			num(p.Control.X), num(p.Control.Y),
			num(p.End.X), num(p.End.Y))
	}
	return fmt.Sprintf("M %s,%s L %s,%s", num(p.Start.X), num(p.Start.Y), num(p.End.X), num(p.End.Y))
}

// Length is the straight-line distance from Start to End.
func (p Path) Length() float64 {
	return math.Hypot(p.End.X-p.Start.X, p.End.Y-p.Start.Y)
}

// PointAt samples the path at t in [0,1].
func (p Path) PointAt(t float64) Position {
	if !p.Curved {
		return Position{X: p.Start.X + (p.End.X-p.Start.X)*t, Y: p.Start.Y + (p.End.Y-p.Start.Y)*t}
	}
	u := 1 - t
	return Position{
		X: u*u*p.Start.X + 2*u*t*p.Control.X + t*t*p.End.X,
		Y: u*u*p.Start.Y + 2*u*t*p.Control.Y + t*t*p.End.Y,
	}
}

// CurveOffsets spreads edges that join the same pair of nodes (in either
// direction) so they do not draw on top of each other. The first edge of
// a pair stays straight, the rest alternate sides at multiples of spacing.
func CurveOffsets(edges []etymology.GraphEdge, spacing float64) map[string]float64 {
	groups := make(map[string][]etymology.GraphEdge)
	for _, e := range edges {
		k := pairKey(e.Source, e.Target)
		groups[k] = append(groups[k], e)
	}

	offsets := make(map[string]float64, len(edges))
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		for i, e := range group {
			off := 0.0
			if i > 0 {
				step := float64((i + 1) / 2)
				if i%2 == 0 {
					step = -step
				}
				off = step * spacing
			}
			// keep the bend on the same side regardless of direction
			if e.Source > e.Target {
				off = -off
			}
			offsets[e.ID] = off
		}
	}
	return offsets
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func midpoint(a, b Position) Position {
	return Position{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}
