package board

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/abaj8494/draw/internal/geom"
)

func TestDocumentRoundTrip(t *testing.T) {
	doc := NewDocument()
	doc.Background = BackgroundGrid
	doc.Transform = geom.Transform{OffsetX: -120, OffsetY: 44.5, Scale: 1.75}
	doc.Append(&Freehand{
		Tool:    ToolPen,
		Points:  []geom.Point{{X: 1, Y: 2}, {X: 3.5, Y: -4}},
		Color:   "#1d1d1f",
		Size:    3,
		Opacity: 1,
	})
	doc.Append(&Shape{
		Points:  []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}},
		Color:   "#e03131",
		Size:    2,
		Opacity: 0.9,
	})
	doc.Append(&Image{Source: "img_abc123", X: 0, Y: 50, Width: 200, Height: 100, Opacity: 1})

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Document
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(&got, doc) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", &got, doc)
	}
}

func TestDocumentUnmarshalDefaults(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{"strokes":[],"background":"","offsetX":0,"offsetY":0,"scale":0}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Transform.Scale != 1 {
		t.Errorf("scale = %v, want 1", doc.Transform.Scale)
	}
}

func TestUnmarshalStrokeUnknownType(t *testing.T) {
	_, err := UnmarshalStroke([]byte(`{"type":"sticker","x":1}`))
	if err == nil {
		t.Fatal("expected error for unknown stroke type")
	}
}

func TestTranslate(t *testing.T) {
	f := &Freehand{Tool: ToolPencil, Points: []geom.Point{{X: 1, Y: 1}, {X: 4, Y: 5}}, Color: "#000", Size: 2, Opacity: 1}
	f.Translate(10, -2)
	want := []geom.Point{{X: 11, Y: -1}, {X: 14, Y: 3}}
	if !reflect.DeepEqual(f.Points, want) {
		t.Errorf("freehand points = %v, want %v", f.Points, want)
	}

	im := &Image{Source: "img_x", X: 5, Y: 5, Width: 40, Height: 30, Opacity: 1}
	im.Translate(-5, 15)
	if im.X != 0 || im.Y != 20 {
		t.Errorf("image origin = (%v, %v), want (0, 20)", im.X, im.Y)
	}
	if im.Width != 40 || im.Height != 30 {
		t.Errorf("image size changed: %vx%v", im.Width, im.Height)
	}
}

func TestBounds(t *testing.T) {
	f := &Freehand{Points: []geom.Point{{X: 3, Y: 7}, {X: -2, Y: 4}, {X: 6, Y: -1}}}
	want := geom.Rect{X: -2, Y: -1, Width: 8, Height: 8}
	if got := f.Bounds(); got != want {
		t.Errorf("freehand bounds = %v, want %v", got, want)
	}

	im := &Image{X: 10, Y: 20, Width: 30, Height: 40}
	wantIm := geom.Rect{X: 10, Y: 20, Width: 30, Height: 40}
	if got := im.Bounds(); got != wantIm {
		t.Errorf("image bounds = %v, want %v", got, wantIm)
	}
}

func TestDocumentInsertRemove(t *testing.T) {
	doc := NewDocument()
	a := &Freehand{Points: []geom.Point{{X: 0, Y: 0}}}
	b := &Freehand{Points: []geom.Point{{X: 1, Y: 1}}}
	c := &Freehand{Points: []geom.Point{{X: 2, Y: 2}}}

	doc.Append(a)
	doc.Append(c)
	doc.Insert(1, b)

	if doc.Len() != 3 || doc.Strokes[1] != Stroke(b) {
		t.Fatalf("insert misplaced: %v", doc.Strokes)
	}

	if got := doc.Remove(1); got != Stroke(b) {
		t.Errorf("Remove(1) = %v, want b", got)
	}
	if got := doc.Remove(99); got != nil {
		t.Errorf("Remove out of range = %v, want nil", got)
	}
	if doc.Len() != 2 {
		t.Errorf("len = %d, want 2", doc.Len())
	}

	// Clamped insert appends rather than panicking.
	doc.Insert(99, b)
	if doc.Strokes[doc.Len()-1] != Stroke(b) {
		t.Errorf("clamped insert did not append")
	}
}

func TestBuilderCommit(t *testing.T) {
	b := NewBuilder(ToolPen, "#1971c2", 3, 1)
	b.Append(geom.Point{X: 1, Y: 2})
	b.Append(geom.Point{X: 3, Y: 4})

	f := b.Commit()
	if f == nil {
		t.Fatal("commit returned nil for non-empty stroke")
	}
	if f.Tool != ToolPen || len(f.Points) != 2 || f.Color != "#1971c2" {
		t.Errorf("committed stroke = %+v", f)
	}
}

func TestBuilderEmptyCommit(t *testing.T) {
	b := NewBuilder(ToolPencil, "#000000", 2, 1)
	if f := b.Commit(); f != nil {
		t.Errorf("empty commit = %+v, want nil", f)
	}
}

func TestBuilderSinglePointCommit(t *testing.T) {
	b := NewBuilder(ToolPencil, "#000000", 2, 1)
	b.Append(geom.Point{X: 5, Y: 5})
	f := b.Commit()
	if f == nil || len(f.Points) != 1 {
		t.Fatalf("single tap should commit a one-point stroke, got %+v", f)
	}
}

func TestBuilderClamping(t *testing.T) {
	b := NewBuilder(ToolHighlighter, "#ffd43b", -4, 1.8)
	b.Append(geom.Point{})
	f := b.Commit()
	if f.Size != 1 {
		t.Errorf("size = %v, want clamped to 1", f.Size)
	}
	if f.Opacity != 1 {
		t.Errorf("opacity = %v, want clamped to 1", f.Opacity)
	}
}

func TestBackgroundFallback(t *testing.T) {
	if got := Background("nope").Backdrop(); got != DefaultBackground.Backdrop() {
		t.Errorf("unknown background = %+v, want default", got)
	}
	grid := BackgroundGrid.Backdrop()
	if !grid.Grid || grid.GridSpacing <= 0 {
		t.Errorf("grid preset missing grid settings: %+v", grid)
	}
}
