package export

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/geom"
)

// SVG writes a standalone vector rendition of doc under t. Bitmaps
// already decoded in the image cache embed as PNG data URIs; the rest
// reference their source.
func (e *Exporter) SVG(w io.Writer, doc *board.Document, width, height int, t geom.Transform) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("export svg: bad dimensions %dx%d", width, height)
	}
	sw := &svgWriter{w: w, exp: e}
	sw.printf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, height, width, height)

	backdrop := doc.Background.Backdrop()
	sw.printf(`<rect width="100%%" height="100%%" fill="%s"/>`+"\n", safeColor(backdrop.Fill))
	if backdrop.Grid {
		sw.grid(t, width, height, backdrop)
	}

	for _, stroke := range doc.Strokes {
		switch s := stroke.(type) {
		case *board.Freehand:
			sw.path(t, s.Points, s.Color, s.Size, s.Opacity,
				s.Tool == board.ToolPen, s.Tool == board.ToolHighlighter)
		case *board.Shape:
			sw.path(t, s.Points, s.Color, s.Size, s.Opacity, false, false)
		case *board.Image:
			sw.image(t, s)
		}
	}

	sw.printf("</svg>\n")
	return sw.err
}

// svgWriter emits elements until the first write error and then goes
// quiet, so SVG can report a single error at the end.
type svgWriter struct {
	w   io.Writer
	exp *Exporter
	err error
}

func (sw *svgWriter) printf(format string, args ...interface{}) {
	if sw.err != nil {
		return
	}
	_, sw.err = fmt.Fprintf(sw.w, format, args...)
}

// grid mirrors the raster renderer's grid: canvas-aligned lines snapped
// to half-pixel boundaries.
func (sw *svgWriter) grid(t geom.Transform, width, height int, bd board.Backdrop) {
	step := bd.GridSpacing * t.Scale
	if step < 4 {
		return
	}
	stroke := safeColor(bd.GridColor)
	w, h := float64(width), float64(height)

	startX := math.Mod(t.OffsetX, step)
	if startX < 0 {
		startX += step
	}
	for x := startX; x < w; x += step {
		sx := math.Floor(x) + 0.5
		sw.printf(`<line x1="%v" y1="0" x2="%v" y2="%v" stroke="%s" stroke-width="1"/>`+"\n",
			dec(sx), dec(sx), dec(h), stroke)
	}
	startY := math.Mod(t.OffsetY, step)
	if startY < 0 {
		startY += step
	}
	for y := startY; y < h; y += step {
		sy := math.Floor(y) + 0.5
		sw.printf(`<line x1="0" y1="%v" x2="%v" y2="%v" stroke="%s" stroke-width="1"/>`+"\n",
			dec(sy), dec(w), dec(sy), stroke)
	}
}

func (sw *svgWriter) path(t geom.Transform, pts []geom.Point, hex string, size, opacity float64, smooth, multiply bool) {
	if len(pts) == 0 {
		return
	}
	stroke := safeColor(hex)
	width := size * t.Scale
	opacity = clamp01(opacity)
	blend := ""
	if multiply {
		blend = ` style="mix-blend-mode:multiply"`
	}

	if len(pts) == 1 {
		p := t.ToScreen(pts[0])
		sw.printf(`<circle cx="%v" cy="%v" r="%v" fill="%s" fill-opacity="%v"%s/>`+"\n",
			dec(p.X), dec(p.Y), dec(width/2), stroke, dec(opacity), blend)
		return
	}

	var d strings.Builder
	first := t.ToScreen(pts[0])
	fmt.Fprintf(&d, "M%v %v", dec(first.X), dec(first.Y))
	if smooth && len(pts) > 2 {
		for i := 1; i < len(pts)-1; i++ {
			ctrl := t.ToScreen(pts[i])
			mid := t.ToScreen(pts[i].Midpoint(pts[i+1]))
			fmt.Fprintf(&d, "Q%v %v %v %v", dec(ctrl.X), dec(ctrl.Y), dec(mid.X), dec(mid.Y))
		}
		last := t.ToScreen(pts[len(pts)-1])
		fmt.Fprintf(&d, "L%v %v", dec(last.X), dec(last.Y))
	} else {
		for _, p := range pts[1:] {
			sp := t.ToScreen(p)
			fmt.Fprintf(&d, "L%v %v", dec(sp.X), dec(sp.Y))
		}
	}

	sw.printf(`<path d="%s" fill="none" stroke="%s" stroke-width="%v" stroke-opacity="%v" stroke-linecap="round" stroke-linejoin="round"%s/>`+"\n",
		d.String(), stroke, dec(width), dec(opacity), blend)
}

func (sw *svgWriter) image(t geom.Transform, s *board.Image) {
	box := t.ToScreenRect(geom.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
	opacity := clamp01(s.Opacity)

	var src image.Image
	if sw.exp.images != nil {
		if img, ok := sw.exp.images.Get(s.Source); ok {
			src = img
		}
	}
	if src == nil {
		sw.printf(`<image x="%v" y="%v" width="%v" height="%v" preserveAspectRatio="none" opacity="%v" xlink:href="%s"/>`+"\n",
			dec(box.X), dec(box.Y), dec(box.Width), dec(box.Height), dec(opacity), escapeAttr(s.Source))
		return
	}

	sw.printf(`<image x="%v" y="%v" width="%v" height="%v" preserveAspectRatio="none" opacity="%v" xlink:href="data:image/png;base64,`,
		dec(box.X), dec(box.Y), dec(box.Width), dec(box.Height), dec(opacity))
	if sw.err != nil {
		return
	}
	enc := base64.NewEncoder(base64.StdEncoding, sw.w)
	if err := png.Encode(enc, src); err != nil {
		sw.err = fmt.Errorf("embed image %s: %w", s.Source, err)
		return
	}
	if err := enc.Close(); err != nil {
		sw.err = err
		return
	}
	sw.printf(`"/>` + "\n")
}

// dec rounds a coordinate to two decimals for compact attribute output.
func dec(v float64) float64 {
	v = math.Round(v*100) / 100
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}

// safeColor normalizes a user color string to #rrggbb, black when it
// does not parse, keeping attribute output well-formed.
func safeColor(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "#000000"
	}
	return c.Hex()
}

// escapeAttr escapes s for a double-quoted XML attribute.
func escapeAttr(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
