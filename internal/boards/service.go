package boards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/store"
	"github.com/abaj8494/draw/internal/typeid"
)

var (
	ErrNotFound      = errors.New("board not found")
	ErrForbidden     = errors.New("forbidden")
	ErrNothingToSave = errors.New("nothing to save")
)

// LiveBoards exposes the documents of boards currently open in the
// collaboration hub, so a named save captures in-flight edits.
type LiveBoards interface {
	Document(boardID string) (json.RawMessage, bool)
}

type Service struct {
	store    store.Store
	autosave *store.Autosaver
	live     LiveBoards
}

func NewService(st store.Store, autosave *store.Autosaver, live LiveBoards) *Service {
	return &Service{store: st, autosave: autosave, live: live}
}

type Board struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type SaveResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Board, error) {
	boardID := typeid.NewBoardID()

	if err := s.store.CreateBoard(ctx, store.Board{ID: boardID, Name: name, OwnerID: ownerID}); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}

	// Seed an empty document so the first load always succeeds.
	docJSON, err := json.Marshal(board.NewDocument())
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}
	if _, err := s.store.SaveSnapshot(ctx, typeid.NewSnapshotID(), boardID, docJSON); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return toBoard(b), nil
}

func (s *Service) Get(ctx context.Context, boardID, userID string) (*Board, error) {
	b, err := s.authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	return toBoard(b), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Board, error) {
	stored, err := s.store.ListBoards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}

	boards := make([]Board, len(stored))
	for i, b := range stored {
		boards[i] = *toBoard(b)
	}
	return boards, nil
}

func (s *Service) Rename(ctx context.Context, boardID, userID, name string) (*Board, error) {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	if err := s.store.RenameBoard(ctx, boardID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rename board: %w", err)
	}
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return toBoard(b), nil
}

func (s *Service) Delete(ctx context.Context, boardID, userID string) error {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete board: %w", err)
	}
	if s.autosave != nil {
		s.autosave.Discard(boardID)
	}
	return nil
}

// Save writes a named snapshot. The document comes from the request
// when given, otherwise from the open room, otherwise from the latest
// autosave. A non-empty name renames the board as part of the save.
func (s *Service) Save(ctx context.Context, boardID, userID, name string, doc json.RawMessage) (*SaveResult, error) {
	b, err := s.authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	if name != "" && name != b.Name {
		if err := s.store.RenameBoard(ctx, boardID, name); err != nil {
			return nil, fmt.Errorf("rename board: %w", err)
		}
		b.Name = name
	}

	if doc == nil && s.live != nil {
		if live, ok := s.live.Document(boardID); ok {
			doc = live
		}
	}
	if doc == nil && s.autosave != nil {
		saved, err := s.autosave.Load(boardID)
		if err != nil {
			return nil, fmt.Errorf("load autosave: %w", err)
		}
		doc = saved
	}
	if doc == nil {
		return nil, ErrNothingToSave
	}

	version, err := s.store.SaveSnapshot(ctx, typeid.NewSnapshotID(), boardID, doc)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	// The named save supersedes any crash-recovery copy.
	if s.autosave != nil {
		s.autosave.Discard(boardID)
	}

	return &SaveResult{ID: boardID, Name: b.Name, Version: version}, nil
}

// Document returns the latest named snapshot. Unsaved live edits are
// reachable over the websocket, not here.
func (s *Service) Document(ctx context.Context, boardID, userID string) (json.RawMessage, error) {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}

	doc, _, err := s.store.LatestSnapshot(ctx, boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return doc, nil
}

// CurrentDocument returns the freshest document available: the open
// room when the board is being edited, otherwise the latest snapshot.
func (s *Service) CurrentDocument(ctx context.Context, boardID, userID string) (json.RawMessage, error) {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	if s.live != nil {
		if doc, ok := s.live.Document(boardID); ok {
			return doc, nil
		}
	}
	doc, _, err := s.store.LatestSnapshot(ctx, boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return doc, nil
}

// Autosave returns the latest crash-recovery copy, or nil when none
// exists.
func (s *Service) Autosave(ctx context.Context, boardID, userID string) (json.RawMessage, error) {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	if s.autosave == nil {
		return nil, nil
	}
	doc, err := s.autosave.Load(boardID)
	if err != nil {
		return nil, fmt.Errorf("load autosave: %w", err)
	}
	return doc, nil
}

func (s *Service) authorize(ctx context.Context, boardID, userID string) (store.Board, error) {
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Board{}, ErrNotFound
		}
		return store.Board{}, fmt.Errorf("get board: %w", err)
	}
	if b.OwnerID != userID {
		return store.Board{}, ErrForbidden
	}
	return b, nil
}

func toBoard(b store.Board) *Board {
	return &Board{
		ID:        b.ID,
		Name:      b.Name,
		OwnerID:   b.OwnerID,
		CreatedAt: b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: b.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
