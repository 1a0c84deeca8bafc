package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/geom"
)

// Renderer rasterizes documents with the painter's algorithm: backdrop
// first, then strokes bottom to top.
type Renderer struct {
	images *ImageCache
}

// New creates a renderer. images may be nil, in which case image strokes
// are skipped.
func New(images *ImageCache) *Renderer {
	return &Renderer{images: images}
}

// Render rasterizes doc into a width×height image under the document's
// own view transform.
func (r *Renderer) Render(doc *board.Document, width, height int) *image.RGBA {
	return r.RenderWith(doc, width, height, doc.Transform)
}

// RenderWith rasterizes doc under an explicit transform, as exports do
// when framing content instead of the live view.
func (r *Renderer) RenderWith(doc *board.Document, width, height int, t geom.Transform) *image.RGBA {
	dc := gg.NewContext(width, height)
	r.Draw(dc, doc, t)
	return rgbaOf(dc)
}

// Draw renders doc into an existing context under t, for callers that
// composite further layers (the laser trail, selection chrome) on top.
func (r *Renderer) Draw(dc *gg.Context, doc *board.Document, t geom.Transform) {
	backdrop := doc.Background.Backdrop()
	setColor(dc, backdrop.Fill, 1)
	dc.Clear()
	if backdrop.Grid {
		drawGrid(dc, t, backdrop)
	}

	dst := rgbaOf(dc)
	var scratch *gg.Context
	for _, stroke := range doc.Strokes {
		switch s := stroke.(type) {
		case *board.Freehand:
			if s.Tool == board.ToolHighlighter {
				// Highlights multiply onto the layers below them, so
				// overlaps darken instead of occluding. Each stroke is
				// drawn on a transparent scratch layer and composited.
				if scratch == nil {
					scratch = gg.NewContext(dc.Width(), dc.Height())
				} else {
					wipe(scratch)
				}
				drawPath(scratch, t, s.Points, s.Color, s.Size, s.Opacity, false)
				multiplyOver(dst, rgbaOf(scratch))
				continue
			}
			drawPath(dc, t, s.Points, s.Color, s.Size, s.Opacity, s.Tool == board.ToolPen)
		case *board.Shape:
			drawPath(dc, t, s.Points, s.Color, s.Size, s.Opacity, false)
		case *board.Image:
			r.drawImage(dst, t, s)
		}
	}
}

// drawGrid draws canvas-aligned grid lines. Each line lands on a
// half-pixel boundary so a 1px stroke covers exactly one pixel column.
func drawGrid(dc *gg.Context, t geom.Transform, bd board.Backdrop) {
	step := bd.GridSpacing * t.Scale
	if step < 4 {
		// Finer than legible; a sub-4px grid reads as a solid tint.
		return
	}
	setColor(dc, bd.GridColor, 1)
	dc.SetLineWidth(1)

	w, h := float64(dc.Width()), float64(dc.Height())
	startX := math.Mod(t.OffsetX, step)
	if startX < 0 {
		startX += step
	}
	for x := startX; x < w; x += step {
		sx := math.Floor(x) + 0.5
		dc.DrawLine(sx, 0, sx, h)
		dc.Stroke()
	}
	startY := math.Mod(t.OffsetY, step)
	if startY < 0 {
		startY += step
	}
	for y := startY; y < h; y += step {
		sy := math.Floor(y) + 0.5
		dc.DrawLine(0, sy, w, sy)
		dc.Stroke()
	}
}

// drawPath strokes pts under t. Pen strokes smooth through successive
// midpoints; other tools connect samples with straight segments. A
// single sample draws as a dot of the brush diameter.
func drawPath(dc *gg.Context, t geom.Transform, pts []geom.Point, hex string, size, opacity float64, smooth bool) {
	if len(pts) == 0 {
		return
	}
	setColor(dc, hex, opacity)

	if len(pts) == 1 {
		p := t.ToScreen(pts[0])
		dc.DrawCircle(p.X, p.Y, size*t.Scale/2)
		dc.Fill()
		return
	}

	dc.SetLineWidth(size * t.Scale)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	first := t.ToScreen(pts[0])
	dc.MoveTo(first.X, first.Y)
	if smooth && len(pts) > 2 {
		for i := 1; i < len(pts)-1; i++ {
			ctrl := t.ToScreen(pts[i])
			mid := t.ToScreen(pts[i].Midpoint(pts[i+1]))
			dc.QuadraticTo(ctrl.X, ctrl.Y, mid.X, mid.Y)
		}
		last := t.ToScreen(pts[len(pts)-1])
		dc.LineTo(last.X, last.Y)
	} else {
		for _, p := range pts[1:] {
			sp := t.ToScreen(p)
			dc.LineTo(sp.X, sp.Y)
		}
	}
	dc.Stroke()
}

// drawImage scales the referenced bitmap into its logical box. Bitmaps
// that have not finished decoding are skipped; the cache's ready
// callback repaints once they land.
func (r *Renderer) drawImage(dst *image.RGBA, t geom.Transform, s *board.Image) {
	if r.images == nil {
		return
	}
	src, ok := r.images.Get(s.Source)
	if !ok {
		return
	}

	box := t.ToScreenRect(geom.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
	ir := image.Rect(
		int(math.Round(box.X)), int(math.Round(box.Y)),
		int(math.Round(box.X+box.Width)), int(math.Round(box.Y+box.Height)),
	)
	if ir.Empty() || !ir.Overlaps(dst.Bounds()) {
		return
	}

	if s.Opacity >= 1 {
		xdraw.ApproxBiLinear.Scale(dst, ir, src, src.Bounds(), xdraw.Over, nil)
		return
	}
	tmp := image.NewRGBA(ir)
	xdraw.ApproxBiLinear.Scale(tmp, ir, src, src.Bounds(), xdraw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: uint8(clampUnit(s.Opacity)*255 + 0.5)})
	draw.DrawMask(dst, ir, tmp, ir.Min, mask, image.Point{}, draw.Over)
}

// Laser trail styling. The trail is a screen-space affordance, so its
// width does not follow the zoom.
const (
	laserColor = "#ff3b30"
	laserWidth = 4.0
)

// DrawLaser overlays the laser pointer trail. Segments fade with age:
// the newest end draws at full strength, the oldest blends away.
func DrawLaser(dc *gg.Context, t geom.Transform, pts []geom.Point, ages []float64) {
	if len(pts) == 0 || len(ages) != len(pts) {
		return
	}
	base, _ := colorful.Hex(laserColor)

	if len(pts) == 1 {
		p := t.ToScreen(pts[0])
		dc.SetRGBA(base.R, base.G, base.B, 1-ages[0])
		dc.DrawCircle(p.X, p.Y, laserWidth/2)
		dc.Fill()
		return
	}

	dc.SetLineWidth(laserWidth)
	dc.SetLineCap(gg.LineCapRound)
	for i := 0; i < len(pts)-1; i++ {
		a := t.ToScreen(pts[i])
		b := t.ToScreen(pts[i+1])
		age := ages[i]
		if ages[i+1] > age {
			age = ages[i+1]
		}
		dc.SetRGBA(base.R, base.G, base.B, 1-age)
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}
}

// ContentBounds returns the union of all stroke bounds, and false for a
// document with no strokes.
func ContentBounds(doc *board.Document) (geom.Rect, bool) {
	if doc.Len() == 0 {
		return geom.Rect{}, false
	}
	b := doc.Strokes[0].Bounds()
	for _, s := range doc.Strokes[1:] {
		b = b.Union(s.Bounds())
	}
	return b, true
}

// FitTransform frames the document's content centered inside a
// width×height surface with margin on every side, scaling to fill. An
// empty document keeps its own view transform.
func FitTransform(doc *board.Document, width, height int, margin float64) geom.Transform {
	content, ok := ContentBounds(doc)
	if !ok {
		return doc.Transform
	}
	availW := float64(width) - 2*margin
	availH := float64(height) - 2*margin
	if availW <= 0 || availH <= 0 {
		return doc.Transform
	}

	cw, ch := content.Width, content.Height
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	scale := math.Min(availW/cw, availH/ch)
	return geom.Transform{
		OffsetX: margin + (availW-cw*scale)/2 - content.X*scale,
		OffsetY: margin + (availH-ch*scale)/2 - content.Y*scale,
		Scale:   scale,
	}
}

// setColor sets the context color from a hex string, black for strings
// that do not parse.
func setColor(dc *gg.Context, hex string, opacity float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{}
	}
	dc.SetRGBA(c.R, c.G, c.B, clampUnit(opacity))
}

// multiplyOver composites src onto dst with a multiply blend. dst must
// be opaque, which the backdrop fill guarantees.
func multiplyOver(dst, src *image.RGBA) {
	b := dst.Bounds().Intersect(src.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		di := dst.PixOffset(b.Min.X, y)
		si := src.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, di, si = x+1, di+4, si+4 {
			sa := uint32(src.Pix[si+3])
			if sa == 0 {
				continue
			}
			for k := 0; k < 3; k++ {
				d := uint32(dst.Pix[di+k])
				s := uint32(src.Pix[si+k]) * 255 / sa
				if s > 255 {
					s = 255
				}
				m := d * s / 255
				dst.Pix[di+k] = uint8((d*(255-sa) + m*sa) / 255)
			}
		}
	}
}

// wipe resets a scratch layer to fully transparent.
func wipe(dc *gg.Context) {
	im := rgbaOf(dc)
	for i := range im.Pix {
		im.Pix[i] = 0
	}
	dc.ClearPath()
}

// rgbaOf returns the context's backing store. gg contexts are always
// RGBA-backed.
func rgbaOf(dc *gg.Context) *image.RGBA {
	return dc.Image().(*image.RGBA)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
