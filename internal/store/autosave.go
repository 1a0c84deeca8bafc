package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Autosaver mirrors the working document to a local file between named
// saves, so a crash does not lose work. Saves are best-effort: failures
// are logged and swallowed, never surfaced to the drawing session.
type Autosaver struct {
	dir string
}

func NewAutosaver(dir string) (*Autosaver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create autosave dir: %w", err)
	}
	return &Autosaver{dir: dir}, nil
}

// Save writes doc as the autosave for id, atomically via a temp file.
func (a *Autosaver) Save(id string, doc json.RawMessage) {
	path := a.path(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		slog.Warn("autosave write failed", "board", id, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		slog.Warn("autosave rename failed", "board", id, "error", err)
	}
}

// Load returns the autosaved document for id, or nil when there is
// none.
func (a *Autosaver) Load(id string) (json.RawMessage, error) {
	data, err := os.ReadFile(a.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read autosave: %w", err)
	}
	return data, nil
}

// Discard removes the autosave for id, once a named save has landed.
func (a *Autosaver) Discard(id string) {
	if err := os.Remove(a.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("autosave discard failed", "board", id, "error", err)
	}
}

// path keeps ids filesystem-safe regardless of where they came from.
func (a *Autosaver) path(id string) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, id)
	return filepath.Join(a.dir, safe+".json")
}
