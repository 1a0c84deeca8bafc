package export

import (
	"fmt"
	"image/png"
	"io"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/geom"
	"github.com/abaj8494/draw/internal/render"
)

// Exporter writes documents to interchange formats. The raster formats
// go through the renderer; SVG re-derives vector paths with the same
// transform math.
type Exporter struct {
	renderer *render.Renderer
	images   *render.ImageCache
}

// New creates an exporter. images may be nil, in which case SVG output
// references image sources instead of embedding them.
func New(renderer *render.Renderer, images *render.ImageCache) *Exporter {
	return &Exporter{renderer: renderer, images: images}
}

// PNG rasterizes doc under t and writes it PNG-encoded.
func (e *Exporter) PNG(w io.Writer, doc *board.Document, width, height int, t geom.Transform) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("export png: bad dimensions %dx%d", width, height)
	}
	img := e.renderer.RenderWith(doc, width, height, t)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
