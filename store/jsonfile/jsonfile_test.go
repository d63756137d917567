package jsonfile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthledger/budget-engine/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return st
}

func TestReadWriteRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, ok, err := st.Read(ctx, "sources")
	require.NoError(t, err)
	assert.False(t, ok)

	doc := []byte(`[{"id":"src-1","name":"Checking"}]`)
	require.NoError(t, st.Write(ctx, "sources", doc))

	got, ok, err := st.Read(ctx, "sources")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc, got)

	// Keys with a slash land under a subdirectory.
	require.NoError(t, st.Write(ctx, "months/2025-01", []byte(`{"month":"2025-01"}`)))
	_, err = os.Stat(filepath.Join(st.dir, "months", "2025-01.json"))
	require.NoError(t, err)
}

func TestUpdate_ReadModifyWrite(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// fn sees nil for a missing document.
	err := st.Update(ctx, "undo", func(cur []byte) ([]byte, error) {
		assert.Nil(t, cur)
		return []byte(`[1]`), nil
	})
	require.NoError(t, err)

	err = st.Update(ctx, "undo", func(cur []byte) ([]byte, error) {
		assert.Equal(t, []byte(`[1]`), cur)
		return []byte(`[1,2]`), nil
	})
	require.NoError(t, err)

	// Returning an error aborts with nothing changed.
	wantErr := ledger.ErrUndoConflict
	err = st.Update(ctx, "undo", func([]byte) ([]byte, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)
	got, ok, err := st.Read(ctx, "undo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`[1,2]`), got)

	// Returning nil content deletes the document.
	err = st.Update(ctx, "undo", func([]byte) ([]byte, error) { return nil, nil })
	require.NoError(t, err)
	_, ok, err = st.Read(ctx, "undo")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Delete(ctx, "never-written"))

	require.NoError(t, st.Write(ctx, "bills", []byte(`[]`)))
	require.NoError(t, st.Delete(ctx, "bills"))
	_, ok, err := st.Read(ctx, "bills")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList_PrefixAndSorting(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"months/2025-03", "months/2024-12", "months/2025-01", "sources", "bills"} {
		require.NoError(t, st.Write(ctx, key, []byte(`{}`)))
	}

	months, err := st.List(ctx, ledger.MonthKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"months/2024-12", "months/2025-01", "months/2025-03"}, months)

	all, err := st.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"bills", "months/2024-12", "months/2025-01", "months/2025-03", "sources"}, all)
}

func TestInvalidKeysRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "/abs", "months//2025-01", "a/../b"} {
		err := st.Write(ctx, key, []byte(`{}`))
		require.Error(t, err, "key %q", key)
		assert.True(t, ledger.IsStorage(err), "key %q", key)
	}
}

func TestUpdate_ConcurrentWritersAllLand(t *testing.T) {
	// The per-key critical section makes read-modify-write safe: 50
	// concurrent increments through Update must all be preserved.
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Write(ctx, "counter", []byte(`0`)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
				var n int
				if err := json.Unmarshal(cur, &n); err != nil {
					return nil, err
				}
				return json.Marshal(n + 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, ok, err := st.Read(ctx, "counter")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "50", string(got))
}

func TestWrite_ReplacesAtomically(t *testing.T) {
	// No temp files linger after a successful replace.
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "sources", []byte(`["old"]`)))
	require.NoError(t, st.Write(ctx, "sources", []byte(`["new"]`)))

	entries, err := os.ReadDir(st.dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	assert.Equal(t, []string{"sources.json"}, names)

	got, _, err := st.Read(ctx, "sources")
	require.NoError(t, err)
	assert.Equal(t, `["new"]`, string(got))
}
