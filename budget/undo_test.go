package budget

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthledger/budget-engine/ledger"
	"github.com/hearthledger/budget-engine/ledger/store"
)

func TestUndo_EmptyStack(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Undo().Undo(context.Background())
	require.ErrorIs(t, err, ledger.ErrNothingToUndo)
}

func TestUndo_RevertsMutationsInReverseOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreateTemplate(t, svc, monthlyBillInput("Electric", 15000, 15))
	ml, err := svc.GenerateMonth(ctx, january)
	require.NoError(t, err)
	_, err = svc.CloseOccurrence(ctx, january, ml.Bills[0].ID, ml.Bills[0].Occurrences[0].ID, CloseOptions{})
	require.NoError(t, err)

	// Undo 1: the close. The occurrence is open again.
	entry, err := svc.Undo().Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "month", entry.EntityType)
	ml, err = svc.GetMonth(ctx, january)
	require.NoError(t, err)
	assert.False(t, ml.Bills[0].IsClosed)
	assert.Equal(t, ledger.Cents(15000), ml.Bills[0].Remaining)

	// Undo 2: the generation. The month document disappears.
	_, err = svc.Undo().Undo(ctx)
	require.NoError(t, err)
	_, err = svc.GetMonth(ctx, january)
	require.ErrorIs(t, err, ledger.ErrMonthNotFound)

	// Undo 3: the template creation. The collection is empty again.
	entry, err = svc.Undo().Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "template", entry.EntityType)
	templates, err := svc.ListTemplates(ctx, ledger.RoleBill)
	require.NoError(t, err)
	assert.Empty(t, templates)

	_, err = svc.Undo().Undo(ctx)
	require.ErrorIs(t, err, ledger.ErrNothingToUndo)
}

func TestUndo_RestoresDeletedMonth(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreateTemplate(t, svc, monthlyBillInput("Rent", 150000, 1))
	_, err := svc.GenerateMonth(ctx, january)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMonth(ctx, january))

	_, err = svc.Undo().Undo(ctx)
	require.NoError(t, err)

	ml, err := svc.GetMonth(ctx, january)
	require.NoError(t, err)
	require.Len(t, ml.Bills, 1)
	assert.Equal(t, "Rent", ml.Bills[0].Name)
}

func TestUndo_ConflictWhenStorageMovedPast(t *testing.T) {
	// Undo restores verbatim or not at all: once the document no longer
	// holds exactly what the recorded mutation wrote, undo must refuse
	// and leave both the stack and the document untouched.
	svc := newTestService(t)
	ctx := context.Background()

	mustCreateTemplate(t, svc, monthlyBillInput("Electric", 15000, 15))
	ml, err := svc.GenerateMonth(ctx, january)
	require.NoError(t, err)
	_, err = svc.CloseOccurrence(ctx, january, ml.Bills[0].ID, ml.Bills[0].Occurrences[0].ID, CloseOptions{})
	require.NoError(t, err)

	before, err := svc.Undo().Entries(ctx)
	require.NoError(t, err)

	// Out-of-band write, bypassing the service and its undo recording.
	tampered := ledger.NewMonthLedger(january, testClock)
	require.NoError(t, ledger.WriteMonthDoc(ctx, svc.store, tampered))

	_, err = svc.Undo().Undo(ctx)
	require.ErrorIs(t, err, ledger.ErrUndoConflict)
	assert.True(t, ledger.IsConflict(err))

	// Nothing popped, nothing applied.
	after, err := svc.Undo().Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	got, err := svc.GetMonth(ctx, january)
	require.NoError(t, err)
	assert.Empty(t, got.Bills)
}

func TestUndo_ConflictWhenDocumentDeleted(t *testing.T) {
	// A month deleted out-of-band cannot be "un-closed"; recreating it
	// from a stale snapshot would invent state.
	svc := newTestService(t)
	ctx := context.Background()

	mustCreateTemplate(t, svc, monthlyBillInput("Electric", 15000, 15))
	ml, err := svc.GenerateMonth(ctx, january)
	require.NoError(t, err)
	_, err = svc.CloseOccurrence(ctx, january, ml.Bills[0].ID, ml.Bills[0].Occurrences[0].ID, CloseOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.store.Delete(ctx, ledger.MonthKey(january)))

	_, err = svc.Undo().Undo(ctx)
	require.ErrorIs(t, err, ledger.ErrUndoConflict)
}

func TestUndo_DepthBoundDropsOldestSilently(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemory()
	svc := NewService(st, NewUndoLog(st, 3, log), log)
	svc.now = func() time.Time { return testClock }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	ctx := context.Background()

	_, err := svc.GenerateMonth(ctx, january)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = svc.AddVariableExpense(ctx, january, AddVariableExpenseInput{
			Name:   fmt.Sprintf("Expense %d", i+1),
			Amount: ledger.Cents(100 * (i + 1)),
		})
		require.NoError(t, err)
	}

	entries, err := svc.Undo().Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Oldest first; the generation and the first expense fell off.
	assert.Equal(t, "month", entries[0].EntityType)

	// The survivors still undo cleanly, newest first.
	for i := 0; i < 3; i++ {
		_, err = svc.Undo().Undo(ctx)
		require.NoError(t, err)
	}
	ml, err := svc.GetMonth(ctx, january)
	require.NoError(t, err)
	require.Len(t, ml.VariableExpenses, 1)
	assert.Equal(t, "Expense 1", ml.VariableExpenses[0].Name)

	_, err = svc.Undo().Undo(ctx)
	require.ErrorIs(t, err, ledger.ErrNothingToUndo)
}

func TestUndo_Clear(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	mustCreateTemplate(t, svc, monthlyBillInput("Rent", 150000, 1))

	require.NoError(t, svc.Undo().Clear(ctx))
	entries, err := svc.Undo().Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = svc.Undo().Undo(ctx)
	require.ErrorIs(t, err, ledger.ErrNothingToUndo)
}
