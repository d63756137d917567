// Package store provides an in-memory Store implementation for tests
// and development. It honors the same per-key serialization contract as
// the production flat-file store.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hearthledger/budget-engine/ledger"
)

// Memory is an in-memory document store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

var _ ledger.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string][]byte),
		locks: make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing writers on a key. Waiters queue
// on the mutex, which is exactly the contract: queued, not rejected.
func (m *Memory) keyLock(key string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

func (m *Memory) Write(ctx context.Context, key string, data []byte) error {
	l := m.keyLock(key)
	l.Lock()
	defer l.Unlock()
	m.put(key, data)
	return nil
}

func (m *Memory) Update(ctx context.Context, key string, fn ledger.UpdateFunc) error {
	l := m.keyLock(key)
	l.Lock()
	defer l.Unlock()

	cur, _, _ := m.Read(ctx, key)
	next, err := fn(cur)
	if err != nil {
		return err
	}
	if next == nil {
		m.remove(key)
		return nil
	}
	m.put(key, next)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	l := m.keyLock(key)
	l.Lock()
	defer l.Unlock()
	m.remove(key)
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) put(key string, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.docs[key] = cp
	m.mu.Unlock()
}

func (m *Memory) remove(key string) {
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()
}
