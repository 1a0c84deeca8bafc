package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/engine"
)

// BoardState owns the authoritative drawing session for one room. All
// mutation goes through Apply under the lock, so the engine itself
// stays single-owner.
type BoardState struct {
	mu        sync.Mutex
	boardID   string
	session   *engine.Session
	serverSeq int64
}

// NewBoardState wraps doc in a fresh session. A nil doc starts an
// empty board.
func NewBoardState(boardID string, doc *board.Document) *BoardState {
	s := engine.NewSession()
	s.LoadDocument(doc)
	return &BoardState{boardID: boardID, session: s}
}

// Apply runs one operation and returns the server sequence it was
// assigned. Operations the engine treats as a no-op (undo on an empty
// history, erase with stale indices) still advance the sequence, so
// every replica applies the same stream. Only malformed operations
// fail.
func (bs *BoardState) Apply(op Operation) (int64, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if err := bs.applyLocked(op); err != nil {
		return 0, err
	}
	bs.serverSeq++
	return bs.serverSeq, nil
}

func (bs *BoardState) applyLocked(op Operation) error {
	switch op.Type {
	case OpStrokeAdd:
		stroke, err := board.UnmarshalStroke(op.Stroke)
		if err != nil {
			return fmt.Errorf("invalid stroke: %w", err)
		}
		bs.session.Add(stroke)
	case OpStrokeErase:
		bs.session.DeleteStrokes(op.Indices)
	case OpTranslate:
		bs.session.Translate(op.Indices, op.DX, op.DY)
	case OpUndo:
		bs.session.Undo()
	case OpRedo:
		bs.session.Redo()
	case OpClear:
		bs.session.Clear()
	case OpBackground:
		bs.session.SetBackground(board.Background(op.Background))
	case OpViewUpdate:
		t := bs.session.Transform()
		ox, oy, sc := t.OffsetX, t.OffsetY, t.Scale
		if op.OffsetX != nil {
			ox = *op.OffsetX
		}
		if op.OffsetY != nil {
			oy = *op.OffsetY
		}
		if op.Scale != nil {
			sc = *op.Scale
		}
		bs.session.SetView(ox, oy, sc)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
	return nil
}

// DocumentJSON marshals the current document along with the sequence
// the snapshot corresponds to.
func (bs *BoardState) DocumentJSON() (json.RawMessage, int64, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	data, err := json.Marshal(bs.session.Document())
	if err != nil {
		return nil, 0, fmt.Errorf("marshal document: %w", err)
	}
	return data, bs.serverSeq, nil
}

// Dirty reports whether the board changed since the last MarkClean.
func (bs *BoardState) Dirty() bool {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.session.Dirty()
}

func (bs *BoardState) MarkClean() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.session.MarkClean()
}
