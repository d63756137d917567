/*
sync.go - Month reconciliation

PURPOSE:
  SyncMonth brings an existing month up to date with templates created
  after the month was generated, WITHOUT touching anything already
  there. The rules:

    - Only templates with no instance in the month are candidates.
    - Tombstoned templates (user deleted the instance) never come back,
      and neither do deleted payoff bills (tombstoned by source id).
    - Templates whose schedule lands zero occurrences are skipped.
    - Existing instances, occurrence states, balances: untouched.

  Running sync twice in a row is a no-op the second time; the first
  run's instances satisfy the presence check.
*/
package budget

import (
	"context"

	"github.com/hearthledger/budget-engine/ledger"
)

// SyncResult reports what a sync run added.
type SyncResult struct {
	Month ledger.Month `json:"month"`
	// AddedTemplateIDs lists templates that gained an instance.
	AddedTemplateIDs []string `json:"added_template_ids"`
	// AddedPayoffSourceIDs lists sources that gained a payoff bill.
	AddedPayoffSourceIDs []string `json:"added_payoff_source_ids"`
	Ledger               *ledger.MonthLedger `json:"ledger"`
}

// SyncMonth adds instances for templates the month has never seen.
// Also synthesizes payoff bills for pay-off-monthly sources that gained
// the flag after generation. Fails on a locked month like any mutation.
func (s *Service) SyncMonth(ctx context.Context, month ledger.Month) (*SyncResult, error) {
	templates, err := s.activeTemplates(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{Month: month, AddedTemplateIDs: []string{}, AddedPayoffSourceIDs: []string{}}
	ml, err := s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		for i := range templates {
			tpl := &templates[i]
			if ml.HasTemplate(tpl.ID) || ml.IsTombstoned(tpl.ID) {
				continue
			}
			occs := ledger.GenerateOccurrences(tpl, month)
			if len(occs) == 0 {
				continue
			}
			ml.AddInstance(ledger.NewInstance(tpl, occs, s.newID))
			res.AddedTemplateIDs = append(res.AddedTemplateIDs, tpl.ID)
		}
		for _, src := range sources {
			if hasPayoffFor(ml, src.ID) || ml.IsPayoffTombstoned(src.ID) {
				continue
			}
			if inst := s.payoffInstance(src, month); inst != nil {
				ml.AddInstance(inst)
				res.AddedPayoffSourceIDs = append(res.AddedPayoffSourceIDs, src.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Ledger = ml
	if len(res.AddedTemplateIDs)+len(res.AddedPayoffSourceIDs) > 0 {
		s.log.Info("synced month", "month", month.String(),
			"added_templates", len(res.AddedTemplateIDs),
			"added_payoffs", len(res.AddedPayoffSourceIDs))
	}
	return res, nil
}

// hasPayoffFor reports whether the month already carries a payoff bill
// for the source, open or closed.
func hasPayoffFor(ml *ledger.MonthLedger, sourceID string) bool {
	for i := range ml.Bills {
		if ml.Bills[i].IsPayoff && ml.Bills[i].PayoffSourceID == sourceID {
			return true
		}
	}
	return false
}
