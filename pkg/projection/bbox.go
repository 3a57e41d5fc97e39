package projection

import "math"

// Box is an axis-aligned rectangle in simulation space.
type Box struct {
	MinX   float64 `json:"minX"`
	MinY   float64 `json:"minY"`
	MaxX   float64 `json:"maxX"`
	MaxY   float64 `json:"maxY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the box.
func (b Box) Center() Position {
	return Position{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// BoundingBox returns the extents of points grown by padding on every
// side. No points yields the zero box.
func BoundingBox(points []Position, padding float64) Box {
	if len(points) == 0 {
		return Box{}
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	b := Box{
		MinX: minX - padding,
		MinY: minY - padding,
		MaxX: maxX + padding,
		MaxY: maxY + padding,
	}
	b.Width = b.MaxX - b.MinX
	b.Height = b.MaxY - b.MinY
	return b
}

// Rect is an axis-aligned rectangle in some screen space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}
