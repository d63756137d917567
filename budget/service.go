/*
service.go - Month lifecycle service

PURPOSE:
  Owns the per-month ledger documents: generation, reads, the detailed
  read model, the read-only lock, and deletion. Every mutation runs as a
  read-modify-write inside the store's per-key critical section, checks
  the read-only gate first, recomputes the stored summary, and records
  an undo entry.

DEPENDENCY INJECTION:
  One Service is constructed at process start and shared by every
  handler, so the storage layer's per-key locking state is actually
  shared and effective. Handlers never instantiate their own.

MUTATION SHAPE:
  All occurrence-level operations (payments.go) and sync (sync.go) go
  through mutateMonth below; no code path reads and writes a month with
  separate I/O calls.
*/
package budget

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hearthledger/budget-engine/ledger"
)

// Service is the budgeting domain facade.
type Service struct {
	store ledger.Store
	undo  *UndoLog
	log   *slog.Logger

	// Overridable for tests.
	now   func() time.Time
	newID func() string
}

// NewService wires the service. undo may be nil to disable recording.
func NewService(store ledger.Store, undo *UndoLog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store: store,
		undo:  undo,
		log:   log.With("component", "budget"),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Undo exposes the undo log (for the API layer).
func (s *Service) Undo() *UndoLog { return s.undo }

// today resolves the local calendar date. Local, not UTC: default close
// dates must match the user's wall calendar.
func (s *Service) today() ledger.Date { return ledger.DateOf(s.now()) }

// =============================================================================
// MONTH LIFECYCLE
// =============================================================================

// GenerateMonth materializes a fresh ledger for the month: one instance
// per active template that lands in it, plus a synthesized payoff bill
// per pay-off-monthly source. Fails with ErrMonthExists when the month
// is already present — regeneration would destroy occurrence state; use
// SyncMonth to pick up new templates.
func (s *Service) GenerateMonth(ctx context.Context, month ledger.Month) (*ledger.MonthLedger, error) {
	templates, err := s.activeTemplates(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	var created *ledger.MonthLedger
	_, err = ledger.UpdateMonthDoc(ctx, s.store, month, func(cur *ledger.MonthLedger) (*ledger.MonthLedger, error) {
		if cur != nil {
			return nil, ledger.ErrMonthExists
		}
		ml := ledger.NewMonthLedger(month, s.now())
		for i := range templates {
			tpl := &templates[i]
			occs := ledger.GenerateOccurrences(tpl, month)
			if len(occs) == 0 {
				continue // e.g. semi-annual off-month
			}
			ml.AddInstance(ledger.NewInstance(tpl, occs, s.newID))
		}
		for _, src := range sources {
			if inst := s.payoffInstance(src, month); inst != nil {
				ml.AddInstance(inst)
			}
		}
		ml.RecomputeSummary()
		created = ml
		return ml, nil
	})
	if err != nil {
		return nil, err
	}
	s.recordMonth(ctx, month, nil, created)
	s.log.Info("generated month", "month", month.String(),
		"bills", len(created.Bills), "incomes", len(created.Incomes))
	return created, nil
}

// payoffInstance synthesizes the virtual bill that pays a credit source
// off in full, seeded from the source's current balance and due on the
// last day of the month. Nothing owed means no bill.
func (s *Service) payoffInstance(src PaymentSource, month ledger.Month) *ledger.Instance {
	if !src.Active || !src.PayOffMonthly || src.Balance <= 0 {
		return nil
	}
	inst := &ledger.Instance{
		ID:             s.newID(),
		Role:           ledger.RoleBill,
		Name:           src.Name + " payoff",
		Period:         ledger.PeriodMonthly,
		IsPayoff:       true,
		PayoffSourceID: src.ID,
		Occurrences: []ledger.Occurrence{{
			ID:             s.newID(),
			Sequence:       1,
			ExpectedDate:   month.Last(),
			ExpectedAmount: src.Balance,
		}},
	}
	inst.Recompute()
	return inst
}

// GetMonth returns the stored ledger or ErrMonthNotFound. Reads never
// auto-create: creating a month changes historical data shape and must
// stay an explicit, user-visible action.
func (s *Service) GetMonth(ctx context.Context, month ledger.Month) (*ledger.MonthLedger, error) {
	return ledger.ReadMonthDoc(ctx, s.store, month)
}

// ListMonths returns every stored month, ascending.
func (s *Service) ListMonths(ctx context.Context) ([]ledger.Month, error) {
	return ledger.ListMonthDocs(ctx, s.store)
}

// GetDetailedMonth returns the category-section read model with the
// leftover breakdown. Pure projection of the stored document plus the
// reference collections; "today" only drives overdue flags.
func (s *Service) GetDetailedMonth(ctx context.Context, month ledger.Month) (*ledger.DetailedMonth, error) {
	ml, err := ledger.ReadMonthDoc(ctx, s.store, month)
	if err != nil {
		return nil, err
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.BuildDetailedMonth(ml, CategoryRefs(categories), LeftoverFlags(sources), s.today()), nil
}

// LockMonth sets the read-only flag; every mutation checks it first.
func (s *Service) LockMonth(ctx context.Context, month ledger.Month) (*ledger.MonthLedger, error) {
	return s.setReadOnly(ctx, month, true)
}

// UnlockMonth clears the read-only flag.
func (s *Service) UnlockMonth(ctx context.Context, month ledger.Month) (*ledger.MonthLedger, error) {
	return s.setReadOnly(ctx, month, false)
}

func (s *Service) setReadOnly(ctx context.Context, month ledger.Month, readOnly bool) (*ledger.MonthLedger, error) {
	var oldRaw []byte
	result, err := ledger.UpdateMonthDoc(ctx, s.store, month, func(cur *ledger.MonthLedger) (*ledger.MonthLedger, error) {
		if cur == nil {
			return nil, ledger.ErrMonthNotFound
		}
		oldRaw, _ = json.Marshal(cur)
		cur.ReadOnly = readOnly
		cur.Touch(s.now())
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	s.recordMonth(ctx, month, oldRaw, result)
	return result, nil
}

// DeleteMonth removes the whole month document. Rejected while locked.
func (s *Service) DeleteMonth(ctx context.Context, month ledger.Month) error {
	var oldRaw []byte
	_, err := ledger.UpdateMonthDoc(ctx, s.store, month, func(cur *ledger.MonthLedger) (*ledger.MonthLedger, error) {
		if cur == nil {
			return nil, ledger.ErrMonthNotFound
		}
		if cur.ReadOnly {
			return nil, ledger.ErrMonthReadOnly
		}
		oldRaw, _ = json.Marshal(cur)
		return nil, nil // delete
	})
	if err != nil {
		return err
	}
	if s.undo != nil {
		s.undo.Record(ctx, "month", month.String(), ledger.MonthKey(month), oldRaw, nil)
	}
	s.log.Info("deleted month", "month", month.String())
	return nil
}

// =============================================================================
// SHARED MUTATION PATH
// =============================================================================

// mutateMonth is the single write path for occurrence-level operations:
// read-only gate, mutation, summary recompute, timestamp, undo record.
// mutate runs inside the key's critical section; an error aborts with
// nothing persisted.
func (s *Service) mutateMonth(ctx context.Context, month ledger.Month, mutate func(*ledger.MonthLedger) error) (*ledger.MonthLedger, error) {
	var oldRaw []byte
	result, err := ledger.UpdateMonthDoc(ctx, s.store, month, func(cur *ledger.MonthLedger) (*ledger.MonthLedger, error) {
		if cur == nil {
			return nil, ledger.ErrMonthNotFound
		}
		if cur.ReadOnly {
			return nil, ledger.ErrMonthReadOnly
		}
		oldRaw, _ = json.Marshal(cur)
		if err := mutate(cur); err != nil {
			return nil, err
		}
		cur.RecomputeSummary()
		cur.Touch(s.now())
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	s.recordMonth(ctx, month, oldRaw, result)
	return result, nil
}

// recordMonth captures an undo entry for a month write.
func (s *Service) recordMonth(ctx context.Context, month ledger.Month, oldRaw []byte, written *ledger.MonthLedger) {
	if s.undo == nil || written == nil {
		return
	}
	newRaw, err := json.Marshal(written)
	if err != nil {
		return
	}
	s.undo.Record(ctx, "month", month.String(), ledger.MonthKey(month), oldRaw, newRaw)
}

// activeTemplates loads both roles' active templates.
func (s *Service) activeTemplates(ctx context.Context) ([]ledger.Template, error) {
	var out []ledger.Template
	for _, key := range []string{ledger.KeyBills, ledger.KeyIncomes} {
		templates, err := ledger.ReadCollectionDoc[ledger.Template](ctx, s.store, key)
		if err != nil {
			return nil, err
		}
		for _, t := range templates {
			if t.Active {
				out = append(out, t)
			}
		}
	}
	return out, nil
}
