/*
backup.go - Whole-dataset export and import

PURPOSE:
  Export gathers every document into one portable snapshot; import
  replaces the dataset from one. The snapshot deliberately excludes the
  undo stack — restoring old undo entries against restored documents
  would make every one of them a conflict.

  Month documents are independent keys, so export reads them in
  parallel; each read still goes through the store's per-key lock.
*/
package budget

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hearthledger/budget-engine/ledger"
)

// Backup is the portable snapshot of the whole dataset.
type Backup struct {
	ExportedAt time.Time            `json:"exported_at"`
	Bills      []ledger.Template    `json:"bills"`
	Incomes    []ledger.Template    `json:"incomes"`
	Categories []Category           `json:"categories"`
	Sources    []PaymentSource      `json:"sources"`
	Months     []ledger.MonthLedger `json:"months"`
}

// Export reads every collection and month into a snapshot.
func (s *Service) Export(ctx context.Context) (*Backup, error) {
	b := &Backup{ExportedAt: s.now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b.Bills, err = ledger.ReadCollectionDoc[ledger.Template](ctx, s.store, ledger.KeyBills)
		return err
	})
	g.Go(func() error {
		var err error
		b.Incomes, err = ledger.ReadCollectionDoc[ledger.Template](ctx, s.store, ledger.KeyIncomes)
		return err
	})
	g.Go(func() error {
		var err error
		b.Categories, err = s.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		b.Sources, err = s.ListSources(ctx)
		return err
	})

	months, err := s.ListMonths(ctx)
	if err != nil {
		return nil, err
	}
	b.Months = make([]ledger.MonthLedger, len(months))
	for i, m := range months {
		i, m := i, m
		g.Go(func() error {
			ml, err := ledger.ReadMonthDoc(ctx, s.store, m)
			if err != nil {
				return err
			}
			b.Months[i] = *ml
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

// Import replaces the dataset with the snapshot's contents. Months not
// present in the snapshot are removed, and the undo stack is cleared —
// its recorded before/after bytes describe documents that no longer
// exist.
func (s *Service) Import(ctx context.Context, b *Backup) error {
	if b == nil {
		return ledger.Validationf("backup", "required")
	}
	for i := range b.Months {
		if b.Months[i].Month.IsZero() {
			return ledger.Validationf("months", "entry %d has no month", i)
		}
	}

	if _, err := ledger.UpdateCollectionDoc(ctx, s.store, ledger.KeyBills, func([]ledger.Template) ([]ledger.Template, error) {
		return b.Bills, nil
	}); err != nil {
		return err
	}
	if _, err := ledger.UpdateCollectionDoc(ctx, s.store, ledger.KeyIncomes, func([]ledger.Template) ([]ledger.Template, error) {
		return b.Incomes, nil
	}); err != nil {
		return err
	}
	if _, err := ledger.UpdateCollectionDoc(ctx, s.store, ledger.KeyCategories, func([]Category) ([]Category, error) {
		return b.Categories, nil
	}); err != nil {
		return err
	}
	if _, err := ledger.UpdateCollectionDoc(ctx, s.store, ledger.KeySources, func([]PaymentSource) ([]PaymentSource, error) {
		return b.Sources, nil
	}); err != nil {
		return err
	}

	existing, err := s.ListMonths(ctx)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(b.Months))
	for i := range b.Months {
		ml := b.Months[i]
		keep[ml.Month.String()] = true
		ml.RecomputeSummary()
		if err := ledger.WriteMonthDoc(ctx, s.store, &ml); err != nil {
			return err
		}
	}
	for _, m := range existing {
		if !keep[m.String()] {
			if err := s.store.Delete(ctx, ledger.MonthKey(m)); err != nil {
				return err
			}
		}
	}

	if s.undo != nil {
		if err := s.undo.Clear(ctx); err != nil {
			return err
		}
	}
	s.log.Info("imported backup", "months", len(b.Months),
		"bills", len(b.Bills), "incomes", len(b.Incomes))
	return nil
}
