/*
store.go - Persistence interface for month documents and collections

PURPOSE:
  Defines the interface between the engine and storage. The unit of
  persistence is a whole JSON document: one per month ("months/2025-01")
  and one per entity collection ("bills", "sources", ...). Different
  implementations can use flat files or memory.

CONCURRENCY CONTRACT (the important part):
  For a given key, at most one write is in flight at a time. A second
  writer targeting the same key while one is pending WAITS (queued, not
  rejected) before its own read-modify-write cycle begins. This is the
  fix for the read-compute-write race inherent to whole-file storage:
  request A's "read old, compute new, write" can never be clobbered by
  an interleaved B on the same key.

  - Reads may proceed concurrently with each other.
  - Update(key, fn) runs fn inside the key's critical section; every
    handler mutating a document goes through Update. No handler may
    read-modify-write a document by its own separate I/O.
  - Different keys never block each other.

FAILURE CONTRACT:
  A failed write leaves the prior on-disk content unmodified (no partial
  write) and surfaces the failure; it is never silently dropped.

IMPLEMENTATIONS:
  - store/jsonfile: production flat-file storage
  - ledger/store:   in-memory, for tests and dev

SEE ALSO:
  - store/jsonfile/jsonfile.go
  - budget/service.go: all month mutations run through UpdateMonthDoc
*/
package ledger

import (
	"context"
	"encoding/json"
)

// Collection document keys. One JSON document per entity collection.
const (
	KeyBills      = "bills"
	KeyIncomes    = "incomes"
	KeyCategories = "categories"
	KeySources    = "sources"
	KeyUndo       = "undo"
)

// MonthKeyPrefix namespaces month documents apart from collections.
const MonthKeyPrefix = "months/"

// MonthKey returns the storage key for a month document.
func MonthKey(m Month) string { return MonthKeyPrefix + m.String() }

// UpdateFunc transforms a document inside its key's critical section.
// cur is nil when the document does not exist. Returning nil content
// deletes the document; returning an error aborts with no change.
type UpdateFunc func(cur []byte) ([]byte, error)

// Store persists whole JSON documents keyed by string.
type Store interface {
	// Read returns the document, or ok=false when it does not exist.
	Read(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Write replaces the document, serialized against other writers on
	// the same key.
	Write(ctx context.Context, key string, data []byte) error

	// Update runs fn inside the key's critical section: read, transform,
	// atomically replace. This is the ONLY safe way to mutate a document
	// based on its current content.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Delete removes the document. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys under a prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// =============================================================================
// TYPED HELPERS - month documents
// =============================================================================

// ReadMonthDoc loads and decodes a month document.
func ReadMonthDoc(ctx context.Context, s Store, m Month) (*MonthLedger, error) {
	data, ok, err := s.Read(ctx, MonthKey(m))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMonthNotFound
	}
	var ml MonthLedger
	if err := json.Unmarshal(data, &ml); err != nil {
		return nil, &StorageError{Op: "decode", Key: MonthKey(m), Err: err}
	}
	return &ml, nil
}

// WriteMonthDoc encodes and replaces a month document.
func WriteMonthDoc(ctx context.Context, s Store, ml *MonthLedger) error {
	data, err := json.Marshal(ml)
	if err != nil {
		return &StorageError{Op: "encode", Key: MonthKey(ml.Month), Err: err}
	}
	return s.Write(ctx, MonthKey(ml.Month), data)
}

// UpdateMonthDoc runs a typed read-modify-write on a month document
// inside its critical section. fn receives nil when the month does not
// exist; returning (nil, nil) deletes the document. The written ledger
// is returned for response shaping.
func UpdateMonthDoc(ctx context.Context, s Store, m Month, fn func(cur *MonthLedger) (*MonthLedger, error)) (*MonthLedger, error) {
	var result *MonthLedger
	key := MonthKey(m)
	err := s.Update(ctx, key, func(cur []byte) ([]byte, error) {
		var ml *MonthLedger
		if cur != nil {
			ml = &MonthLedger{}
			if err := json.Unmarshal(cur, ml); err != nil {
				return nil, &StorageError{Op: "decode", Key: key, Err: err}
			}
		}
		next, err := fn(ml)
		if err != nil {
			return nil, err
		}
		result = next
		if next == nil {
			return nil, nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return nil, &StorageError{Op: "encode", Key: key, Err: err}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListMonthDocs returns every stored month, sorted ascending.
func ListMonthDocs(ctx context.Context, s Store) ([]Month, error) {
	keys, err := s.List(ctx, MonthKeyPrefix)
	if err != nil {
		return nil, err
	}
	months := make([]Month, 0, len(keys))
	for _, k := range keys {
		m, err := ParseMonth(k[len(MonthKeyPrefix):])
		if err != nil {
			continue // foreign file in the months directory
		}
		months = append(months, m)
	}
	return months, nil
}

// =============================================================================
// TYPED HELPERS - entity collections
// =============================================================================

// ReadCollectionDoc loads a collection document. A missing document is
// an empty collection, not an error.
func ReadCollectionDoc[T any](ctx context.Context, s Store, key string) ([]T, error) {
	data, ok, err := s.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &StorageError{Op: "decode", Key: key, Err: err}
	}
	return items, nil
}

// UpdateCollectionDoc runs a typed read-modify-write on a collection
// inside its critical section and returns the written items.
func UpdateCollectionDoc[T any](ctx context.Context, s Store, key string, fn func(items []T) ([]T, error)) ([]T, error) {
	var result []T
	err := s.Update(ctx, key, func(cur []byte) ([]byte, error) {
		var items []T
		if cur != nil {
			if err := json.Unmarshal(cur, &items); err != nil {
				return nil, &StorageError{Op: "decode", Key: key, Err: err}
			}
		}
		next, err := fn(items)
		if err != nil {
			return nil, err
		}
		result = next
		data, err := json.Marshal(next)
		if err != nil {
			return nil, &StorageError{Op: "encode", Key: key, Err: err}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
