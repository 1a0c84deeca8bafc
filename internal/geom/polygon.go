package geom

// PointInPolygon reports whether p lies inside the polygon using the
// even-odd rule: a ray cast from p toward +X crosses the boundary an odd
// number of times. The polygon closes implicitly from the last vertex
// back to the first. Fewer than three vertices never contain anything.
func PointInPolygon(p Point, poly []Point) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			crossX := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < crossX {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointSegmentDistance returns the distance from p to the segment ab.
// The projection of p onto the segment's line is clamped to the segment,
// so points beyond either end measure to the nearest endpoint. A
// degenerate segment (a == b) measures to the point a.
func PointSegmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	abLen2 := ab.Dot(ab)
	if abLen2 == 0 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / abLen2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Point{a.X + t*ab.X, a.Y + t*ab.Y}
	return p.Distance(closest)
}
