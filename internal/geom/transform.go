package geom

// Transform maps logical canvas coordinates to screen pixels: a uniform
// scale followed by a translation. It is the only transform the canvas
// uses; rotation and skew never occur.
type Transform struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
}

// IdentityTransform returns the transform that maps canvas coordinates
// straight to screen pixels.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// ToScreen maps a logical canvas point to screen pixels.
func (t Transform) ToScreen(p Point) Point {
	return Point{
		X: p.X*t.Scale + t.OffsetX,
		Y: p.Y*t.Scale + t.OffsetY,
	}
}

// ToCanvas maps a screen pixel position back to logical canvas
// coordinates. It is the exact inverse of ToScreen.
func (t Transform) ToCanvas(p Point) Point {
	return Point{
		X: (p.X - t.OffsetX) / t.Scale,
		Y: (p.Y - t.OffsetY) / t.Scale,
	}
}

// ToScreenRect maps a logical rect to screen pixels.
func (t Transform) ToScreenRect(r Rect) Rect {
	tl := t.ToScreen(Point{r.X, r.Y})
	return Rect{
		X:      tl.X,
		Y:      tl.Y,
		Width:  r.Width * t.Scale,
		Height: r.Height * t.Scale,
	}
}
