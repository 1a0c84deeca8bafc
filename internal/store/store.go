package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned for lookups of users, boards or snapshots
// that do not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing row,
// such as a duplicate email.
var ErrConflict = errors.New("already exists")

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the store layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Board is a saved board's metadata row. Document content lives in
// versioned snapshots.
type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists users, boards and document snapshots.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	CreateBoard(ctx context.Context, b Board) error
	GetBoard(ctx context.Context, id string) (Board, error)
	ListBoards(ctx context.Context, ownerID string) ([]Board, error)
	RenameBoard(ctx context.Context, id, name string) error
	DeleteBoard(ctx context.Context, id string) error

	// SaveSnapshot appends a new document version and returns it.
	SaveSnapshot(ctx context.Context, snapshotID, boardID string, doc json.RawMessage) (int64, error)
	// LatestSnapshot returns the newest document version for a board.
	LatestSnapshot(ctx context.Context, boardID string) (json.RawMessage, int64, error)
}
