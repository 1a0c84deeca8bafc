package recognize

import (
	"math"
	"sort"

	"github.com/abaj8494/draw/internal/geom"
)

// Kind is the primitive a freehand path was matched to.
type Kind int

const (
	KindNone Kind = iota
	KindLine
	KindEllipse
	KindRectangle
	KindTriangle
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindEllipse:
		return "ellipse"
	case KindRectangle:
		return "rectangle"
	case KindTriangle:
		return "triangle"
	default:
		return "none"
	}
}

// Config holds the recognition thresholds. The defaults are tuned
// against real pen input; changing them changes which scribbles snap.
type Config struct {
	// ClosureRatio: a path is closed when the endpoint gap is below this
	// fraction of the longer bounding-box side.
	ClosureRatio float64
	// LineWobble: an open path is a line when its arc length stays below
	// this multiple of the direct endpoint distance.
	LineWobble float64
	// MinLineLength filters out taps and tiny ticks, in canvas px.
	MinLineLength float64
	// MinCircularity: closed paths with radial uniformity above this
	// become ellipses. Uniformity is 1 - stddev(r)/mean(r) over the
	// distances from the centroid.
	MinCircularity float64
	// EdgeHugRatio: a point hugs a bounding-box edge when its distance
	// to that edge is below this fraction of the longer side.
	EdgeHugRatio float64
	// MinEdgeHugShare: fraction of points that must hug an edge for a
	// rectangle match.
	MinEdgeHugShare float64
	// MinCornerPoints: how many samples must sit near a corner for a
	// rectangle match.
	MinCornerPoints int
	// MinTurnAngle: smallest turning angle, in radians, that counts as
	// a triangle corner.
	MinTurnAngle float64
	// MinTriangleShare: candidate triangle area must exceed this
	// fraction of the bounding-box area.
	MinTriangleShare float64
	// MinCornerGap: centroid-fallback corners must be at least this far
	// apart, in canvas px, when their indices are adjacent.
	MinCornerGap float64
	// EllipseSegments: polygon resolution of a recognized ellipse.
	EllipseSegments int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ClosureRatio:     0.15,
		LineWobble:       1.2,
		MinLineLength:    20,
		MinCircularity:   0.85,
		EdgeHugRatio:     0.12,
		MinEdgeHugShare:  0.75,
		MinCornerPoints:  4,
		MinTurnAngle:     0.3,
		MinTriangleShare: 0.2,
		MinCornerGap:     20,
		EllipseSegments:  36,
	}
}

// Recognize matches a freehand point sequence against the supported
// primitives using the default thresholds. See Config.Recognize.
func Recognize(pts []geom.Point) ([]geom.Point, Kind) {
	return DefaultConfig().Recognize(pts)
}

// Recognize returns the idealized replacement path for a freehand point
// sequence, or (nil, KindNone) when no primitive fits and the original
// stroke should be kept. Primitives are tried in priority order: line,
// ellipse, rectangle, triangle.
func (c Config) Recognize(pts []geom.Point) ([]geom.Point, Kind) {
	if len(pts) < 3 {
		return nil, KindNone
	}

	bounds := geom.BoundsOf(pts)
	maxSide := math.Max(bounds.Width, bounds.Height)
	pathLen := geom.PathLength(pts)
	direct := pts[0].Distance(pts[len(pts)-1])
	closed := maxSide > 0 && direct < c.ClosureRatio*maxSide

	if !closed && pathLen < c.LineWobble*direct && pathLen > c.MinLineLength {
		return []geom.Point{pts[0], pts[len(pts)-1]}, KindLine
	}

	if closed && radialUniformity(pts) > c.MinCircularity {
		return ellipsePath(bounds, c.EllipseSegments), KindEllipse
	}

	if rect, ok := c.matchRectangle(pts, bounds, maxSide); ok {
		return rect, KindRectangle
	}

	if tri, ok := c.matchTriangle(pts, bounds); ok {
		return tri, KindTriangle
	}

	return nil, KindNone
}

// radialUniformity measures how evenly the points orbit their centroid:
// 1 for a perfect circle, dropping toward 0 as the radii spread.
func radialUniformity(pts []geom.Point) float64 {
	center := geom.Centroid(pts)

	radii := make([]float64, len(pts))
	var mean float64
	for i, p := range pts {
		radii[i] = p.Distance(center)
		mean += radii[i]
	}
	mean /= float64(len(pts))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, r := range radii {
		d := r - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(radii)))

	return 1 - stddev/mean
}

// ellipsePath returns a closed polygon inscribed in bounds: segments+1
// points with the last repeating the first.
func ellipsePath(bounds geom.Rect, segments int) []geom.Point {
	cx := bounds.X + bounds.Width/2
	cy := bounds.Y + bounds.Height/2
	rx := bounds.Width / 2
	ry := bounds.Height / 2

	pts := make([]geom.Point, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		pts[i] = geom.Point{
			X: cx + rx*math.Cos(theta),
			Y: cy + ry*math.Sin(theta),
		}
	}
	// Close exactly on the first vertex; 2π does not round-trip in floats.
	pts[segments] = pts[0]
	return pts
}

// matchRectangle accepts paths that trace the bounding box: most points
// hug one of the four edges and enough of them pass through corners.
func (c Config) matchRectangle(pts []geom.Point, bounds geom.Rect, maxSide float64) ([]geom.Point, bool) {
	if maxSide == 0 {
		return nil, false
	}
	hugDist := c.EdgeHugRatio * maxSide

	left, right := bounds.X, bounds.X+bounds.Width
	top, bottom := bounds.Y, bounds.Y+bounds.Height

	hugging, nearCorner := 0, 0
	for _, p := range pts {
		dVert := math.Min(math.Abs(p.X-left), math.Abs(p.X-right))
		dHoriz := math.Min(math.Abs(p.Y-top), math.Abs(p.Y-bottom))
		if math.Min(dVert, dHoriz) < hugDist {
			hugging++
		}
		if dVert < hugDist && dHoriz < hugDist {
			nearCorner++
		}
	}

	if float64(hugging) < c.MinEdgeHugShare*float64(len(pts)) || nearCorner < c.MinCornerPoints {
		return nil, false
	}

	return []geom.Point{
		{X: left, Y: top},
		{X: right, Y: top},
		{X: right, Y: bottom},
		{X: left, Y: bottom},
		{X: left, Y: top},
	}, true
}

// matchTriangle finds three stable corners by turning angle, falling
// back to the points farthest from the centroid when the path is too
// noisy for angle detection.
func (c Config) matchTriangle(pts []geom.Point, bounds geom.Rect) ([]geom.Point, bool) {
	corners := c.cornersByTurning(pts)
	if len(corners) < 3 {
		corners = c.cornersByCentroid(pts)
	}
	if len(corners) != 3 {
		return nil, false
	}

	a, b, cc := pts[corners[0]], pts[corners[1]], pts[corners[2]]
	area := math.Abs((b.X-a.X)*(cc.Y-a.Y)-(cc.X-a.X)*(b.Y-a.Y)) / 2
	if area <= c.MinTriangleShare*bounds.Width*bounds.Height {
		return nil, false
	}

	return []geom.Point{a, b, cc, a}, true
}

// cornersByTurning ranks interior points by how sharply the path bends
// there, then greedily keeps up to three that are far enough apart along
// the path. Directions use samples two steps away to ride over jitter.
func (c Config) cornersByTurning(pts []geom.Point) []int {
	const off = 2
	n := len(pts)
	if n < 2*off+1 {
		return nil
	}

	type bend struct {
		idx   int
		angle float64
	}
	bends := make([]bend, 0, n-2*off)
	for i := off; i < n-off; i++ {
		in := pts[i].Sub(pts[i-off])
		out := pts[i+off].Sub(pts[i])
		cross := in.X*out.Y - in.Y*out.X
		angle := math.Abs(math.Atan2(cross, in.Dot(out)))
		bends = append(bends, bend{i, angle})
	}
	sort.Slice(bends, func(i, j int) bool { return bends[i].angle > bends[j].angle })

	minSep := n / 6
	var picked []int
	for _, b := range bends {
		if b.angle <= c.MinTurnAngle {
			break
		}
		ok := true
		for _, p := range picked {
			if abs(b.idx-p) < minSep {
				ok = false
				break
			}
		}
		if ok {
			picked = append(picked, b.idx)
			if len(picked) == 3 {
				break
			}
		}
	}

	sort.Ints(picked)
	return picked
}

// cornersByCentroid keeps the three points farthest from the centroid.
// Corners must be apart both along the path and in space: on a closed
// path the first and last samples coincide, and index separation alone
// would pick the same corner twice.
func (c Config) cornersByCentroid(pts []geom.Point) []int {
	n := len(pts)
	center := geom.Centroid(pts)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return pts[order[i]].Distance(center) > pts[order[j]].Distance(center)
	})

	minSep := n / 6
	var picked []int
	for _, idx := range order {
		ok := true
		for _, p := range picked {
			if abs(idx-p) < minSep || pts[idx].Distance(pts[p]) <= c.MinCornerGap {
				ok = false
				break
			}
		}
		if ok {
			picked = append(picked, idx)
			if len(picked) == 3 {
				break
			}
		}
	}

	if len(picked) != 3 {
		return nil
	}
	sort.Ints(picked)
	return picked
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
