/*
undo.go - Bounded single-step undo across entity types

PURPOSE:
  Records the last N mutations as old/new document pairs. Undo pops
  exactly one entry and restores the old value through the same storage
  path the original mutation used — or fails cleanly:

    - empty stack                  -> ErrNothingToUndo
    - storage moved past the entry -> ErrUndoConflict (nothing applied)

CONFLICT DETECTION:
  Each entry captures the exact bytes written by the mutation. Undo only
  applies when the target document still holds those bytes verbatim;
  json.Marshal is deterministic (struct order, sorted map keys), so an
  untouched document compares byte-equal.

BOUNDS:
  The stack keeps the most recent N entries; the oldest drops silently
  on overflow. Recording is best-effort — a failed record logs a warning
  but never fails the mutation it describes.
*/
package budget

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hearthledger/budget-engine/ledger"
)

// DefaultUndoDepth bounds the stack when no depth is configured.
const DefaultUndoDepth = 20

// UndoEntry is one recorded mutation. OldValue nil means the mutation
// created the document (undo deletes it); NewValue nil means it deleted
// the document (undo recreates it).
type UndoEntry struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	StorageKey string          `json:"storage_key"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// UndoLog persists the stack as one collection document.
type UndoLog struct {
	store ledger.Store
	depth int
	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

func NewUndoLog(store ledger.Store, depth int, log *slog.Logger) *UndoLog {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	if log == nil {
		log = slog.Default()
	}
	return &UndoLog{
		store: store,
		depth: depth,
		log:   log.With("component", "undo"),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Record pushes a mutation. Best-effort: the mutation already succeeded,
// so a failed record is logged, not surfaced.
func (u *UndoLog) Record(ctx context.Context, entityType, entityID, key string, oldValue, newValue []byte) {
	entry := UndoEntry{
		ID:         u.newID(),
		EntityType: entityType,
		EntityID:   entityID,
		StorageKey: key,
		OldValue:   append(json.RawMessage(nil), oldValue...),
		NewValue:   append(json.RawMessage(nil), newValue...),
		Timestamp:  u.now(),
	}
	_, err := ledger.UpdateCollectionDoc(ctx, u.store, ledger.KeyUndo, func(entries []UndoEntry) ([]UndoEntry, error) {
		entries = append(entries, entry)
		if len(entries) > u.depth {
			entries = entries[len(entries)-u.depth:]
		}
		return entries, nil
	})
	if err != nil {
		u.log.Warn("failed to record undo entry", "entity_type", entityType, "entity_id", entityID, "err", err)
	}
}

// Undo pops the most recent entry and restores its old value. The pop
// only commits when the restore succeeds, so a conflict leaves both the
// stack and the target untouched.
func (u *UndoLog) Undo(ctx context.Context) (*UndoEntry, error) {
	var popped *UndoEntry
	_, err := ledger.UpdateCollectionDoc(ctx, u.store, ledger.KeyUndo, func(entries []UndoEntry) ([]UndoEntry, error) {
		if len(entries) == 0 {
			return nil, ledger.ErrNothingToUndo
		}
		entry := entries[len(entries)-1]
		if err := u.apply(ctx, entry); err != nil {
			return nil, err
		}
		popped = &entry
		return entries[:len(entries)-1], nil
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

// apply restores entry.OldValue on the target key, verifying the
// document still holds exactly what the mutation wrote.
func (u *UndoLog) apply(ctx context.Context, entry UndoEntry) error {
	return u.store.Update(ctx, entry.StorageKey, func(cur []byte) ([]byte, error) {
		switch {
		case len(entry.NewValue) == 0:
			// The recorded mutation deleted the document.
			if cur != nil {
				return nil, ledger.ErrUndoConflict
			}
		case cur == nil:
			// e.g. the month was deleted since — fail, don't recreate.
			return nil, ledger.ErrUndoConflict
		case !bytes.Equal(cur, entry.NewValue):
			return nil, ledger.ErrUndoConflict
		}
		if len(entry.OldValue) == 0 {
			return nil, nil // mutation created it; undo deletes
		}
		return append([]byte(nil), entry.OldValue...), nil
	})
}

// Entries returns the stack, oldest first.
func (u *UndoLog) Entries(ctx context.Context) ([]UndoEntry, error) {
	return ledger.ReadCollectionDoc[UndoEntry](ctx, u.store, ledger.KeyUndo)
}

// Clear empties the stack.
func (u *UndoLog) Clear(ctx context.Context) error {
	_, err := ledger.UpdateCollectionDoc(ctx, u.store, ledger.KeyUndo, func([]UndoEntry) ([]UndoEntry, error) {
		return []UndoEntry{}, nil
	})
	return err
}
