/*
payments.go - Occurrence-level operations (the payment state machine)

PURPOSE:
  Service wrappers around the instance state machine. Every operation
  here is a whole-month read-modify-write through mutateMonth: read-only
  gate first, transition, aggregate recompute, atomic persist, undo
  record. A failure at any step persists nothing.

DEFAULT CLOSE DATE:
  Closing without an explicit date uses the LOCAL calendar date. A bill
  closed at 23:30 in a western timezone belongs to that local day, not
  to tomorrow's UTC date.
*/
package budget

import (
	"context"

	"github.com/hearthledger/budget-engine/ledger"
)

// CloseOptions carries the optional fields of a close request.
type CloseOptions struct {
	// ClosedDate overrides the default of local "today".
	ClosedDate *ledger.Date
	// PaymentSourceID overrides the source actually used, when it
	// differs from the planned one.
	PaymentSourceID string
}

// CloseOccurrence settles one occurrence: Open -> Closed.
func (s *Service) CloseOccurrence(ctx context.Context, month ledger.Month, instanceID, occurrenceID string, opts CloseOptions) (*ledger.MonthLedger, error) {
	closedDate := s.today()
	if opts.ClosedDate != nil && !opts.ClosedDate.IsZero() {
		closedDate = *opts.ClosedDate
	}
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		inst, err := ml.FindInstance(instanceID)
		if err != nil {
			return err
		}
		return inst.CloseOccurrence(occurrenceID, closedDate, opts.PaymentSourceID)
	})
}

// ReopenOccurrence reverses a close: Closed -> Open. The closed date is
// cleared; the payment source is kept unless the user edits it.
func (s *Service) ReopenOccurrence(ctx context.Context, month ledger.Month, instanceID, occurrenceID string) (*ledger.MonthLedger, error) {
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		inst, err := ml.FindInstance(instanceID)
		if err != nil {
			return err
		}
		return inst.ReopenOccurrence(occurrenceID)
	})
}

// UpdateOccurrenceAmount edits an occurrence's expected amount (legal in
// either state). Negative amounts are rejected.
func (s *Service) UpdateOccurrenceAmount(ctx context.Context, month ledger.Month, instanceID, occurrenceID string, amount ledger.Cents) (*ledger.MonthLedger, error) {
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		inst, err := ml.FindInstance(instanceID)
		if err != nil {
			return err
		}
		return inst.UpdateOccurrenceAmount(occurrenceID, amount)
	})
}

// AddOccurrenceInput describes a user-added occurrence.
type AddOccurrenceInput struct {
	ExpectedDate    ledger.Date  `json:"expected_date"`
	ExpectedAmount  ledger.Cents `json:"expected_amount"`
	PaymentSourceID string       `json:"payment_source_id,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

// AddAdhocOccurrence appends an ad-hoc occurrence with the next
// sequence number. The instance need not originate from a template.
func (s *Service) AddAdhocOccurrence(ctx context.Context, month ledger.Month, instanceID string, in AddOccurrenceInput) (*ledger.MonthLedger, error) {
	if in.ExpectedDate.IsZero() {
		return nil, ledger.Validationf("expected_date", "required")
	}
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		inst, err := ml.FindInstance(instanceID)
		if err != nil {
			return err
		}
		return inst.AddAdhocOccurrence(ledger.Occurrence{
			ID:              s.newID(),
			ExpectedDate:    in.ExpectedDate,
			ExpectedAmount:  in.ExpectedAmount,
			PaymentSourceID: in.PaymentSourceID,
			Notes:           in.Notes,
		})
	})
}

// RemoveOccurrence deletes an occurrence; remaining sequences renumber
// to stay contiguous.
func (s *Service) RemoveOccurrence(ctx context.Context, month ledger.Month, instanceID, occurrenceID string) (*ledger.MonthLedger, error) {
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		inst, err := ml.FindInstance(instanceID)
		if err != nil {
			return err
		}
		return inst.RemoveOccurrence(occurrenceID)
	})
}

// CloseInstance is the "close the whole thing" shortcut: every open
// occurrence closes with the same date, and instance-level is_closed
// follows from occurrence state as always.
func (s *Service) CloseInstance(ctx context.Context, month ledger.Month, instanceID string, opts CloseOptions) (*ledger.MonthLedger, error) {
	closedDate := s.today()
	if opts.ClosedDate != nil && !opts.ClosedDate.IsZero() {
		closedDate = *opts.ClosedDate
	}
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		inst, err := ml.FindInstance(instanceID)
		if err != nil {
			return err
		}
		inst.CloseAll(closedDate)
		return nil
	})
}

// RemoveInstance deletes an instance from the month. Template-origin
// instances leave a tombstone so sync never resurrects them.
func (s *Service) RemoveInstance(ctx context.Context, month ledger.Month, instanceID string) (*ledger.MonthLedger, error) {
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		return ml.RemoveInstance(instanceID)
	})
}

// AddAdhocInstanceInput describes a one-off instance for this month
// only (no template). It holds only ad-hoc occurrences.
type AddAdhocInstanceInput struct {
	Role            ledger.Role         `json:"role"`
	Name            string              `json:"name"`
	CategoryID      string              `json:"category_id,omitempty"`
	PaymentSourceID string              `json:"payment_source_id,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	Occurrences     []AddOccurrenceInput `json:"occurrences"`
}

// AddAdhocInstance creates a one-off instance with its occurrences.
func (s *Service) AddAdhocInstance(ctx context.Context, month ledger.Month, in AddAdhocInstanceInput) (*ledger.MonthLedger, error) {
	if in.Name == "" {
		return nil, ledger.Validationf("name", "required")
	}
	if !in.Role.Valid() {
		return nil, ledger.Validationf("role", "must be %q or %q", ledger.RoleBill, ledger.RoleIncome)
	}
	if len(in.Occurrences) == 0 {
		return nil, ledger.Validationf("occurrences", "at least one required")
	}
	for _, o := range in.Occurrences {
		if o.ExpectedDate.IsZero() {
			return nil, ledger.Validationf("expected_date", "required")
		}
		if o.ExpectedAmount.IsNegative() {
			return nil, ledger.Validationf("expected_amount", "must not be negative")
		}
	}
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		inst := &ledger.Instance{
			ID:              s.newID(),
			Role:            in.Role,
			Name:            in.Name,
			Period:          ledger.PeriodMonthly,
			CategoryID:      in.CategoryID,
			PaymentSourceID: in.PaymentSourceID,
			Notes:           in.Notes,
			IsAdhoc:         true,
		}
		for _, o := range in.Occurrences {
			if err := inst.AddAdhocOccurrence(ledger.Occurrence{
				ID:              s.newID(),
				ExpectedDate:    o.ExpectedDate,
				ExpectedAmount:  o.ExpectedAmount,
				PaymentSourceID: o.PaymentSourceID,
				Notes:           o.Notes,
			}); err != nil {
				return err
			}
		}
		ml.AddInstance(inst)
		return nil
	})
}

// AddVariableExpenseInput describes an ad-hoc spend entry.
type AddVariableExpenseInput struct {
	Name            string       `json:"name"`
	Amount          ledger.Cents `json:"amount"`
	Date            ledger.Date  `json:"date"`
	CategoryID      string       `json:"category_id,omitempty"`
	PaymentSourceID string       `json:"payment_source_id,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

// AddVariableExpense records an ad-hoc spend for the month.
func (s *Service) AddVariableExpense(ctx context.Context, month ledger.Month, in AddVariableExpenseInput) (*ledger.MonthLedger, error) {
	if in.Name == "" {
		return nil, ledger.Validationf("name", "required")
	}
	if in.Amount.IsNegative() {
		return nil, ledger.Validationf("amount", "must not be negative")
	}
	if in.Date.IsZero() {
		in.Date = s.today()
	}
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		ml.VariableExpenses = append(ml.VariableExpenses, ledger.VariableExpense{
			ID:              s.newID(),
			Name:            in.Name,
			Amount:          in.Amount,
			Date:            in.Date,
			CategoryID:      in.CategoryID,
			PaymentSourceID: in.PaymentSourceID,
			Notes:           in.Notes,
		})
		return nil
	})
}

// RemoveVariableExpense deletes an ad-hoc spend entry.
func (s *Service) RemoveVariableExpense(ctx context.Context, month ledger.Month, expenseID string) (*ledger.MonthLedger, error) {
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		return ml.RemoveVariableExpense(expenseID)
	})
}

// SetBankBalance records the month's balance snapshot for one source.
// A recorded zero is a value; only absence makes the leftover invalid.
func (s *Service) SetBankBalance(ctx context.Context, month ledger.Month, sourceID string, balance ledger.Cents) (*ledger.MonthLedger, error) {
	if _, err := s.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return s.mutateMonth(ctx, month, func(ml *ledger.MonthLedger) error {
		if ml.BankBalances == nil {
			ml.BankBalances = map[string]ledger.Cents{}
		}
		ml.BankBalances[sourceID] = balance
		return nil
	})
}
