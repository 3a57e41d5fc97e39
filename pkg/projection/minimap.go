package projection

import "math"

// Minimap defaults.
const (
	MinimapWidth   = 150.0
	MinimapHeight  = 100.0
	MinimapPadding = 50.0
)

// Minimap is the affine map from simulation space into a fixed-size
// overview canvas. It never distorts and never enlarges.
type Minimap struct {
	Width   float64
	Height  float64
	Box     Box
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NewMinimap fits points (grown by padding) into a width x height canvas,
// centred along the axis with slack.
func NewMinimap(points []Position, width, height, padding float64) Minimap {
	box := BoundingBox(points, padding)
	m := Minimap{Width: width, Height: height, Box: box, Scale: 1}
	// a flat box is fitted along the axis it spans
	if box.Width > 0 {
		m.Scale = math.Min(m.Scale, width/box.Width)
	}
	if box.Height > 0 {
		m.Scale = math.Min(m.Scale, height/box.Height)
	}
	m.OffsetX = (width - box.Width*m.Scale) / 2
	m.OffsetY = (height - box.Height*m.Scale) / 2
	return m
}

// Project maps a simulation-space point into minimap coordinates.
func (m Minimap) Project(p Position) Position {
	return Position{
		X: (p.X-m.Box.MinX)*m.Scale + m.OffsetX,
		Y: (p.Y-m.Box.MinY)*m.Scale + m.OffsetY,
	}
}

// ViewportRect returns the part of the graph currently visible in a
// viewW x viewH viewport, expressed in minimap coordinates.
func (m Minimap) ViewportRect(t Transform, viewW, viewH float64) Rect {
	visible := t.Visible(viewW, viewH)
	origin := m.Project(Position{X: visible.MinX, Y: visible.MinY})
	return Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  visible.Width * m.Scale,
		Height: visible.Height * m.Scale,
	}
}

// Unproject maps a minimap point back to simulation space, used to
// recentre the viewport when the minimap is clicked.
func (m Minimap) Unproject(p Position) Position {
	k := m.Scale
	if k == 0 {
		k = 1
	}
	return Position{
		X: (p.X-m.OffsetX)/k + m.Box.MinX,
		Y: (p.Y-m.OffsetY)/k + m.Box.MinY,
	}
}
