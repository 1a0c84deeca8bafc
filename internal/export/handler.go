package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/abaj8494/draw/internal/auth"
	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/boards"
	"github.com/abaj8494/draw/internal/render"
)

const maxRequestSize = 50 << 20 // 50MB

const (
	defaultWidth  = 1920
	defaultHeight = 1080
	maxDimension  = 4096
	defaultMargin = 24.0
)

// BoardDocuments resolves a board to its freshest document, checking
// that the caller may see it.
type BoardDocuments interface {
	CurrentDocument(ctx context.Context, boardID, userID string) (json.RawMessage, error)
}

// Handler serves the export endpoints.
type Handler struct {
	exporter *Exporter
	images   *render.ImageCache
	docs     BoardDocuments
}

func NewHandler(exporter *Exporter, images *render.ImageCache, docs BoardDocuments) *Handler {
	return &Handler{exporter: exporter, images: images, docs: docs}
}

type exportRequest struct {
	Document json.RawMessage `json:"document"`
	Format   string          `json:"format"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Fit      bool            `json:"fit"`
	Margin   float64         `json:"margin"`
	Name     string          `json:"name"`
}

// ExportDocument handles POST /export: the client ships the document
// JSON and gets the rendered file back.
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Document) == 0 {
		http.Error(w, "missing document", http.StatusBadRequest)
		return
	}

	doc := board.NewDocument()
	if err := json.Unmarshal(req.Document, doc); err != nil {
		http.Error(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.render(w, doc, req.Format, req.Name, req.Width, req.Height, req.Fit, req.Margin)
}

// ExportBoard handles GET /boards/{boardId}/export for authenticated
// owners, exporting the open room when the board is being edited.
func (h *Handler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	data, err := h.docs.CurrentDocument(r.Context(), boardID, userID)
	if err != nil {
		switch {
		case errors.Is(err, boards.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, boards.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			slog.Error("resolve board document", "error", err, "board", boardID)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	doc := board.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		slog.Error("decode board document", "error", err, "board", boardID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("width"))
	height, _ := strconv.Atoi(q.Get("height"))
	fit := true
	if v, err := strconv.ParseBool(q.Get("fit")); err == nil {
		fit = v
	}
	margin, err := strconv.ParseFloat(q.Get("margin"), 64)
	if err != nil {
		margin = defaultMargin
	}

	h.render(w, doc, q.Get("format"), boardID, width, height, fit, margin)
}

func (h *Handler) render(w http.ResponseWriter, doc *board.Document, format, name string, width, height int, fit bool, margin float64) {
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "svg" && format != "pdf" {
		http.Error(w, "invalid format: must be png, svg, or pdf", http.StatusBadRequest)
		return
	}

	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if width > maxDimension || height > maxDimension {
		http.Error(w, fmt.Sprintf("dimensions too large (max %d)", maxDimension), http.StatusBadRequest)
		return
	}

	t := doc.Transform
	if fit {
		if margin < 0 {
			margin = defaultMargin
		}
		t = render.FitTransform(doc, width, height, margin)
	}

	h.warmImages(doc)

	slog.Info("export started", "format", format, "width", width, "height", height)

	var buf bytes.Buffer
	var err error
	var contentType string
	switch format {
	case "png":
		contentType = "image/png"
		err = h.exporter.PNG(&buf, doc, width, height, t)
	case "svg":
		contentType = "image/svg+xml"
		err = h.exporter.SVG(&buf, doc, width, height, t)
	case "pdf":
		contentType = "application/pdf"
		err = h.exporter.PDF(&buf, doc, width, height, t)
	}
	if err != nil {
		slog.Error("export failed", "format", format, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", sanitizeName(name), format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())

	slog.Info("export complete", "format", format, "bytes", buf.Len())
}

// warmImages fetches referenced bitmaps up front so the synchronous
// render does not skip them.
func (h *Handler) warmImages(doc *board.Document) {
	if h.images == nil {
		return
	}
	for _, s := range doc.Strokes {
		if img, ok := s.(*board.Image); ok {
			h.images.Ensure(img.Source)
		}
	}
}

func sanitizeName(name string) string {
	if name == "" {
		name = "board"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
