package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryBoardLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.CreateBoard(ctx, Board{ID: "board_a", Name: "sketches", OwnerID: "user_1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	b, err := s.GetBoard(ctx, "board_a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Name != "sketches" || b.OwnerID != "user_1" {
		t.Errorf("board = %+v", b)
	}
	if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
		t.Error("timestamps not set on create")
	}

	if err := s.RenameBoard(ctx, "board_a", "diagrams"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	b, _ = s.GetBoard(ctx, "board_a")
	if b.Name != "diagrams" {
		t.Errorf("name after rename = %q", b.Name)
	}

	if err := s.DeleteBoard(ctx, "board_a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetBoard(ctx, "board_a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.GetBoard(ctx, "board_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get = %v", err)
	}
	if err := s.RenameBoard(ctx, "board_missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename = %v", err)
	}
	if err := s.DeleteBoard(ctx, "board_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete = %v", err)
	}
	if _, err := s.SaveSnapshot(ctx, "save_1", "board_missing", json.RawMessage(`{}`)); !errors.Is(err, ErrNotFound) {
		t.Errorf("save snapshot = %v", err)
	}
	if _, _, err := s.LatestSnapshot(ctx, "board_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("latest snapshot = %v", err)
	}
}

func TestMemoryListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	s.CreateBoard(ctx, Board{ID: "board_a", Name: "first", OwnerID: "user_1"})
	s.CreateBoard(ctx, Board{ID: "board_b", Name: "second", OwnerID: "user_1"})
	s.CreateBoard(ctx, Board{ID: "board_c", Name: "other", OwnerID: "user_2"})

	// Touch the older board so it sorts first.
	s.mu.Lock()
	a := s.boards["board_a"]
	a.UpdatedAt = a.UpdatedAt.Add(time.Hour)
	s.boards["board_a"] = a
	s.mu.Unlock()

	boards, err := s.ListBoards(ctx, "user_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("list returned %d boards, want 2", len(boards))
	}
	if boards[0].ID != "board_a" || boards[1].ID != "board_b" {
		t.Errorf("order = %s, %s", boards[0].ID, boards[1].ID)
	}
}

func TestMemorySnapshotVersions(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	s.CreateBoard(ctx, Board{ID: "board_a", Name: "b", OwnerID: "user_1"})

	for i := 1; i <= 3; i++ {
		v, err := s.SaveSnapshot(ctx, "save_x", "board_a", json.RawMessage(`{"n":`+string(rune('0'+i))+`}`))
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if v != int64(i) {
			t.Errorf("version = %d, want %d", v, i)
		}
	}

	doc, v, err := s.LatestSnapshot(ctx, "board_a")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if v != 3 || string(doc) != `{"n":3}` {
		t.Errorf("latest = v%d %s", v, doc)
	}
}

func TestMemorySnapshotPruning(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	s.CreateBoard(ctx, Board{ID: "board_a", Name: "b", OwnerID: "user_1"})

	for i := 0; i < keepVersions+5; i++ {
		if _, err := s.SaveSnapshot(ctx, "save_x", "board_a", json.RawMessage(`{}`)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	s.mu.Lock()
	kept := len(s.snapshots["board_a"])
	s.mu.Unlock()
	if kept != keepVersions {
		t.Errorf("kept %d snapshots, want %d", kept, keepVersions)
	}

	_, v, err := s.LatestSnapshot(ctx, "board_a")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if v != int64(keepVersions+5) {
		t.Errorf("latest version = %d, want %d", v, keepVersions+5)
	}
}

func TestAutosaverRoundTrip(t *testing.T) {
	a, err := NewAutosaver(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	doc := json.RawMessage(`{"strokes":[],"background":"white","offsetX":0,"offsetY":0,"scale":1}`)
	a.Save("board_a", doc)

	got, err := a.Load("board_a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("loaded %s", got)
	}

	a.Discard("board_a")
	got, err = a.Load("board_a")
	if err != nil {
		t.Fatalf("load after discard: %v", err)
	}
	if got != nil {
		t.Errorf("autosave survived discard: %s", got)
	}
}

func TestAutosaverAbsent(t *testing.T) {
	a, err := NewAutosaver(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := a.Load("board_never_saved")
	if err != nil || got != nil {
		t.Errorf("load absent = (%s, %v), want (nil, nil)", got, err)
	}
	// Discarding an absent autosave is a quiet no-op.
	a.Discard("board_never_saved")
}

func TestAutosaverSanitizesIDs(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAutosaver(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	a.Save("../escape", json.RawMessage(`{}`))

	if _, err := os.Stat(filepath.Join(dir, "---escape.json")); err != nil {
		t.Errorf("sanitized autosave not in dir: %v", err)
	}
	got, err := a.Load("../escape")
	if err != nil || string(got) != `{}` {
		t.Errorf("load sanitized = (%s, %v)", got, err)
	}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	u := User{ID: "user_1", Email: "ada@example.com", PasswordHash: "hash", DisplayName: "Ada"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, User{ID: "user_2", Email: "ada@example.com"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email error = %v, want ErrConflict", err)
	}

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "user_1" || got.DisplayName != "Ada" {
		t.Errorf("user = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set on create")
	}

	if _, err := s.GetUserByID(ctx, "user_404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user error = %v, want ErrNotFound", err)
	}
}
