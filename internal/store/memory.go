package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store for running without a database. Data
// vanishes on restart; the autosaver still covers crash recovery.
type Memory struct {
	mu        sync.Mutex
	users     map[string]User
	boards    map[string]Board
	snapshots map[string][]memorySnapshot
}

type memorySnapshot struct {
	version int64
	doc     json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]User),
		boards:    make(map[string]Board),
		snapshots: make(map[string][]memorySnapshot),
	}
}

func (s *Memory) CreateUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return nil
}

func (s *Memory) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Memory) GetUserByID(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *Memory) CreateBoard(ctx context.Context, b Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	s.boards[b.ID] = b
	return nil
}

func (s *Memory) GetBoard(ctx context.Context, id string) (Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	if !ok {
		return Board{}, ErrNotFound
	}
	return b, nil
}

func (s *Memory) ListBoards(ctx context.Context, ownerID string) ([]Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var boards []Board
	for _, b := range s.boards {
		if b.OwnerID == ownerID {
			boards = append(boards, b)
		}
	}
	sort.Slice(boards, func(i, j int) bool {
		return boards[i].UpdatedAt.After(boards[j].UpdatedAt)
	})
	return boards, nil
}

func (s *Memory) RenameBoard(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	if !ok {
		return ErrNotFound
	}
	b.Name = name
	b.UpdatedAt = time.Now().UTC()
	s.boards[id] = b
	return nil
}

func (s *Memory) DeleteBoard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[id]; !ok {
		return ErrNotFound
	}
	delete(s.boards, id)
	delete(s.snapshots, id)
	return nil
}

func (s *Memory) SaveSnapshot(ctx context.Context, snapshotID, boardID string, doc json.RawMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok {
		return 0, ErrNotFound
	}

	snaps := s.snapshots[boardID]
	var version int64 = 1
	if len(snaps) > 0 {
		version = snaps[len(snaps)-1].version + 1
	}
	snaps = append(snaps, memorySnapshot{
		version: version,
		doc:     append(json.RawMessage(nil), doc...),
	})
	if len(snaps) > keepVersions {
		snaps = snaps[len(snaps)-keepVersions:]
	}
	s.snapshots[boardID] = snaps

	b.UpdatedAt = time.Now().UTC()
	s.boards[boardID] = b
	return version, nil
}

func (s *Memory) LatestSnapshot(ctx context.Context, boardID string) (json.RawMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps := s.snapshots[boardID]
	if len(snaps) == 0 {
		return nil, 0, ErrNotFound
	}
	last := snaps[len(snaps)-1]
	return append(json.RawMessage(nil), last.doc...), last.version, nil
}
