package recognize

import (
	"math"
	"testing"

	"github.com/abaj8494/draw/internal/geom"
)

// samplePolyline walks the vertices emitting perEdge samples per edge
// (start included, end excluded) plus the final vertex.
func samplePolyline(verts []geom.Point, perEdge int) []geom.Point {
	var pts []geom.Point
	for i := 0; i < len(verts)-1; i++ {
		a, b := verts[i], verts[i+1]
		for k := 0; k < perEdge; k++ {
			t := float64(k) / float64(perEdge)
			pts = append(pts, geom.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)})
		}
	}
	return append(pts, verts[len(verts)-1])
}

func TestRecognizeLine(t *testing.T) {
	pts := make([]geom.Point, 10)
	for i := range pts {
		jitter := 0.4 * math.Sin(float64(i))
		pts[i] = geom.Point{X: float64(i) * 100.0 / 9.0, Y: jitter}
	}
	pts[0] = geom.Point{X: 0, Y: 0}
	pts[9] = geom.Point{X: 100, Y: 0}

	got, kind := Recognize(pts)
	if kind != KindLine {
		t.Fatalf("kind = %v, want line", kind)
	}
	want := []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("line = %v, want %v", got, want)
	}
}

func TestRecognizeRectangle(t *testing.T) {
	pts := samplePolyline([]geom.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 60}, {X: 0, Y: 60}, {X: 0, Y: 0},
	}, 10)

	got, kind := Recognize(pts)
	if kind != KindRectangle {
		t.Fatalf("kind = %v, want rectangle", kind)
	}
	want := []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 60}, {X: 0, Y: 60}, {X: 0, Y: 0}}
	if len(got) != 5 {
		t.Fatalf("rectangle has %d points, want 5", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("corner %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRecognizeEllipse(t *testing.T) {
	const n = 24
	pts := make([]geom.Point, n)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / n
		pts[i] = geom.Point{X: 50 + 50*math.Cos(theta), Y: 50 + 50*math.Sin(theta)}
	}

	got, kind := Recognize(pts)
	if kind != KindEllipse {
		t.Fatalf("kind = %v, want ellipse", kind)
	}
	if len(got) != 37 {
		t.Fatalf("ellipse has %d points, want 37", len(got))
	}
	if got[0] != got[len(got)-1] {
		t.Errorf("ellipse not closed: first %v, last %v", got[0], got[len(got)-1])
	}
	for i, p := range got {
		r := p.Distance(geom.Point{X: 50, Y: 50})
		if math.Abs(r-50) > 1e-9 {
			t.Fatalf("point %d at radius %v, want 50", i, r)
		}
	}
}

func TestRecognizeTriangle(t *testing.T) {
	// Starts mid-edge so all three vertices are interior samples.
	pts := samplePolyline([]geom.Point{
		{X: 50, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 80}, {X: 0, Y: 0}, {X: 50, Y: 0},
	}, 8)

	got, kind := Recognize(pts)
	if kind != KindTriangle {
		t.Fatalf("kind = %v, want triangle", kind)
	}
	if len(got) != 4 {
		t.Fatalf("triangle has %d points, want 4", len(got))
	}
	if got[0] != got[3] {
		t.Errorf("triangle not closed: first %v, last %v", got[0], got[3])
	}

	wantCorners := []geom.Point{{X: 100, Y: 0}, {X: 50, Y: 80}, {X: 0, Y: 0}}
	for i, want := range wantCorners {
		if got[i].Distance(want) > 12 {
			t.Errorf("corner %d = %v, want near %v", i, got[i], want)
		}
	}
}

func TestRecognizeTriangleFromVertexStart(t *testing.T) {
	// Starting at a vertex hides that corner at the path ends, forcing
	// the centroid fallback.
	pts := samplePolyline([]geom.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 80}, {X: 0, Y: 0},
	}, 11)

	got, kind := Recognize(pts)
	if kind != KindTriangle {
		t.Fatalf("kind = %v, want triangle", kind)
	}
	if len(got) != 4 || got[0] != got[3] {
		t.Fatalf("triangle path = %v", got)
	}
}

func TestRecognizeRejectsTinyTick(t *testing.T) {
	pts := []geom.Point{
		{X: 0, Y: 0}, {X: 3.75, Y: 0.4}, {X: 7.5, Y: -0.3}, {X: 11.25, Y: 0.4}, {X: 15, Y: 0},
	}
	if got, kind := Recognize(pts); kind != KindNone || got != nil {
		t.Errorf("tiny tick recognized as %v (%v), want none", kind, got)
	}
}

func TestRecognizeRejectsShortInput(t *testing.T) {
	if got, kind := Recognize([]geom.Point{{X: 0, Y: 0}, {X: 50, Y: 50}}); kind != KindNone || got != nil {
		t.Errorf("two points recognized as %v (%v), want none", kind, got)
	}
}

func TestConfigOverride(t *testing.T) {
	// With the line length floor lowered, the same tiny tick becomes a line.
	cfg := DefaultConfig()
	cfg.MinLineLength = 5

	pts := []geom.Point{
		{X: 0, Y: 0}, {X: 3.75, Y: 0.4}, {X: 7.5, Y: -0.3}, {X: 11.25, Y: 0.4}, {X: 15, Y: 0},
	}
	if _, kind := cfg.Recognize(pts); kind != KindLine {
		t.Errorf("kind = %v, want line with lowered threshold", kind)
	}
}
