/*
Package jsonfile is the production Store: one JSON file per document.

LAYOUT:
  <dir>/bills.json            entity collections
  <dir>/sources.json
  <dir>/undo.json
  <dir>/months/2025-01.json   one file per month

WHY FILES:
  The persisted contract is a whole JSON document per month and per
  collection — human-readable, trivially backed up, no schema beyond
  application code. The price is that read-modify-write spans separate
  I/O calls, which is where concurrent requests on the same month can
  interleave. This store closes that window:

  SERIALIZATION:
    Each key has a lock. Update() holds it across the whole
    read-transform-replace cycle, so a second writer queues behind the
    first instead of clobbering it. Reads share an RLock and proceed
    concurrently. Keys never block each other.

  ATOMIC REPLACEMENT:
    Writes go to a temp file in the same directory, fsync, then rename
    over the target. A failed write leaves the previous content intact —
    a torn or partial document is never observable.

SEE ALSO:
  - ledger/store.go: the Store interface and its contract
  - ledger/store/memory.go: in-memory implementation for tests
*/
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hearthledger/budget-engine/ledger"
)

// Store persists documents as JSON files under a data directory.
type Store struct {
	dir string
	log *slog.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.RWMutex
}

var _ ledger.Store = (*Store)(nil)

// New creates the data directory (and months/ below it) if needed.
func New(dir string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Join(dir, "months"), 0o755); err != nil {
		return nil, &ledger.StorageError{Op: "init", Key: dir, Err: err}
	}
	return &Store{
		dir:   dir,
		log:   log.With("component", "jsonfile"),
		locks: make(map[string]*sync.RWMutex),
	}, nil
}

// keyLock returns the per-key lock. sync.Mutex/RWMutex park waiters in
// a queue, which matches the "queued, not rejected" contract.
func (s *Store) keyLock(key string) *sync.RWMutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[key] = l
	}
	return l
}

// path maps a key to its file, rejecting anything that could escape the
// data directory.
func (s *Store) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", &ledger.StorageError{Op: "resolve", Key: key, Err: errors.New("invalid key")}
	}
	parts := strings.Split(key, "/")
	for _, p := range parts {
		if p == "" {
			return "", &ledger.StorageError{Op: "resolve", Key: key, Err: errors.New("invalid key")}
		}
	}
	return filepath.Join(s.dir, filepath.Join(parts...)+".json"), nil
}

func (s *Store) Read(_ context.Context, key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	l := s.keyLock(key)
	l.RLock()
	defer l.RUnlock()

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Error("read failed", "key", key, "err", err)
		return nil, false, &ledger.StorageError{Op: "read", Key: key, Err: err}
	}
	return data, true, nil
}

func (s *Store) Write(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	return s.replace(key, p, data)
}

func (s *Store) Update(_ context.Context, key string, fn ledger.UpdateFunc) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	cur, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		cur = nil
	} else if err != nil {
		s.log.Error("read failed", "key", key, "err", err)
		return &ledger.StorageError{Op: "read", Key: key, Err: err}
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}
	if next == nil {
		return s.removeLocked(key, p)
	}
	return s.replace(key, p, next)
}

func (s *Store) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	return s.removeLocked(key, p)
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	collect := func(dir, keyPrefix string) error {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return &ledger.StorageError{Op: "list", Key: keyPrefix, Err: err}
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			keys = append(keys, keyPrefix+strings.TrimSuffix(name, ".json"))
		}
		return nil
	}
	if err := collect(s.dir, ""); err != nil {
		return nil, err
	}
	if err := collect(filepath.Join(s.dir, "months"), ledger.MonthKeyPrefix); err != nil {
		return nil, err
	}

	filtered := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			filtered = append(filtered, k)
		}
	}
	sort.Strings(filtered)
	return filtered, nil
}

// replace writes data atomically: temp file, fsync, rename. The target
// keeps its previous content on any failure.
func (s *Store) replace(key, p string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		s.log.Error("write failed", "key", key, "stage", "temp", "err", err)
		return &ledger.StorageError{Op: "write", Key: key, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(stage string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		s.log.Error("write failed", "key", key, "stage", stage, "err", err)
		return &ledger.StorageError{Op: "write", Key: key, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		s.log.Error("write failed", "key", key, "stage", "rename", "err", err)
		return &ledger.StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (s *Store) removeLocked(key, p string) error {
	err := os.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Error("delete failed", "key", key, "err", err)
		return &ledger.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// String identifies the store in startup logs.
func (s *Store) String() string { return fmt.Sprintf("jsonfile(%s)", s.dir) }
