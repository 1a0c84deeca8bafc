package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/geom"
)

// A screen pixel maps to one CSS pixel worth of page.
const mmPerPx = 25.4 / 96

// PDF writes a single page wrapping the rasterization of doc, sized so
// the raster fills it edge to edge.
func (e *Exporter) PDF(w io.Writer, doc *board.Document, width, height int, t geom.Transform) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("export pdf: bad dimensions %dx%d", width, height)
	}
	img := e.renderer.RenderWith(doc, width, height, t)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode page raster: %w", err)
	}

	pageW := float64(width) * mmPerPx
	pageH := float64(height) * mmPerPx

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.AddPage()
	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("board", opt, &buf)
	pdf.ImageOptions("board", 0, 0, pageW, pageH, false, opt, 0, "")
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
