package projection

// Transform maps simulation space to viewport space: screen = world*Scale + Translate.
type Transform struct {
	TranslateX float64 `json:"x"`
	TranslateY float64 `json:"y"`
	Scale      float64 `json:"k"`
}

// Identity is the transform that leaves points unchanged.
var Identity = Transform{Scale: 1}

// Apply maps a simulation-space point into the viewport.
func (t Transform) Apply(p Position) Position {
	return Position{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

// Invert maps a viewport point back into simulation space. A zero scale
// is treated as 1.
func (t Transform) Invert(p Position) Position {
	k := t.Scale
	if k == 0 {
		k = 1
	}
	return Position{X: (p.X - t.TranslateX) / k, Y: (p.Y - t.TranslateY) / k}
}

// Visible returns the region of simulation space shown in a viewport of
// the given size.
func (t Transform) Visible(viewW, viewH float64) Box {
	k := t.Scale
	if k == 0 {
		k = 1
	}
	b := Box{
		MinX:   -t.TranslateX / k,
		MinY:   -t.TranslateY / k,
		Width:  viewW / k,
		Height: viewH / k,
	}
	b.MaxX = b.MinX + b.Width
	b.MaxY = b.MinY + b.Height
	return b
}

// Lerp interpolates between two transforms.
func Lerp(from, to Transform, t float64) Transform {
	return Transform{
		TranslateX: from.TranslateX + (to.TranslateX-from.TranslateX)*t,
		TranslateY: from.TranslateY + (to.TranslateY-from.TranslateY)*t,
		Scale:      from.Scale + (to.Scale-from.Scale)*t,
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
