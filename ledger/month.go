/*
month.go - The per-month ledger aggregate

PURPOSE:
  MonthLedger is the persisted unit: one JSON document per calendar
  month, holding bill instances, income instances, ad-hoc variable
  expenses, the bank-balance snapshot, tombstones for sync, and a
  stored summary. Every mutation rewrites the whole document inside the
  store's per-key critical section.

READ-ONLY FLAG:
  ReadOnly is an explicit user lock. Every mutating service operation
  checks it first and fails with ErrMonthReadOnly — a hard gate.

TOMBSTONES:
  RemovedTemplateIDs records templates whose instance the user deleted
  from this month. Sync skips them, so a deleted instance never
  resurrects while its template lives on. Presence-check alone cannot
  distinguish "user deleted" from "never generated".

  Payoff bills are synthesized per source, not per template, so they
  get their own tombstone set: RemovedPayoffSourceIDs, keyed by the
  payment source the bill pays down. Same rule, second origin.
*/
package ledger

import "time"

// VariableExpense is an ad-hoc spend entry for the month. It is an
// actual (already paid at entry), so it counts toward category actuals
// and never toward remaining or leftover.
type VariableExpense struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Amount          Cents  `json:"amount"`
	Date            Date   `json:"date"`
	CategoryID      string `json:"category_id,omitempty"`
	PaymentSourceID string `json:"payment_source_id,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// RoleSummary aggregates one role's instances.
type RoleSummary struct {
	Expected  Cents `json:"expected"`
	Settled   Cents `json:"settled"`
	Remaining Cents `json:"remaining"`
	Instances int   `json:"instances"`
	Closed    int   `json:"closed"`
}

// Summary is the stored month roll-up. Convenience only: it is
// recomputed from instances on every write and never trusted as
// independent state.
type Summary struct {
	Bills            RoleSummary `json:"bills"`
	Incomes          RoleSummary `json:"incomes"`
	VariableExpenses Cents       `json:"variable_expenses"`
}

// MonthLedger is one month's persisted state.
type MonthLedger struct {
	Month              Month             `json:"month"`
	Bills              []Instance        `json:"bills"`
	Incomes            []Instance        `json:"incomes"`
	VariableExpenses   []VariableExpense `json:"variable_expenses,omitempty"`
	BankBalances       map[string]Cents  `json:"bank_balances,omitempty"`
	Summary            Summary           `json:"summary"`
	RemovedTemplateIDs []string          `json:"removed_template_ids,omitempty"`
	// RemovedPayoffSourceIDs tombstones deleted payoff bills by the
	// source they paid down, since those carry no template id.
	RemovedPayoffSourceIDs []string `json:"removed_payoff_source_ids,omitempty"`
	ReadOnly           bool              `json:"read_only"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// NewMonthLedger returns an empty ledger for the month.
func NewMonthLedger(month Month, now time.Time) *MonthLedger {
	return &MonthLedger{
		Month:        month,
		Bills:        []Instance{},
		Incomes:      []Instance{},
		BankBalances: map[string]Cents{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// instancesFor returns the slice holding the role's instances.
func (ml *MonthLedger) instancesFor(role Role) *[]Instance {
	if role == RoleIncome {
		return &ml.Incomes
	}
	return &ml.Bills
}

// AddInstance appends to the role's ordered list.
func (ml *MonthLedger) AddInstance(inst *Instance) {
	list := ml.instancesFor(inst.Role)
	*list = append(*list, *inst)
}

// FindInstance locates an instance by id across both roles.
func (ml *MonthLedger) FindInstance(instanceID string) (*Instance, error) {
	for _, list := range []*[]Instance{&ml.Bills, &ml.Incomes} {
		for i := range *list {
			if (*list)[i].ID == instanceID {
				return &(*list)[i], nil
			}
		}
	}
	return nil, ErrInstanceNotFound
}

// RemoveInstance deletes an instance. Template-origin and payoff
// instances each leave a tombstone so sync never resurrects them.
func (ml *MonthLedger) RemoveInstance(instanceID string) error {
	for _, list := range []*[]Instance{&ml.Bills, &ml.Incomes} {
		for i := range *list {
			if (*list)[i].ID != instanceID {
				continue
			}
			if tid := (*list)[i].TemplateID; tid != "" {
				ml.RemovedTemplateIDs = addTombstone(ml.RemovedTemplateIDs, tid)
			}
			if (*list)[i].IsPayoff {
				if sid := (*list)[i].PayoffSourceID; sid != "" {
					ml.RemovedPayoffSourceIDs = addTombstone(ml.RemovedPayoffSourceIDs, sid)
				}
			}
			*list = append((*list)[:i], (*list)[i+1:]...)
			return nil
		}
	}
	return ErrInstanceNotFound
}

func addTombstone(set []string, id string) []string {
	for _, have := range set {
		if have == id {
			return set
		}
	}
	return append(set, id)
}

// HasTemplate reports whether an instance for the template exists.
func (ml *MonthLedger) HasTemplate(templateID string) bool {
	for _, list := range [][]Instance{ml.Bills, ml.Incomes} {
		for i := range list {
			if list[i].TemplateID == templateID {
				return true
			}
		}
	}
	return false
}

// IsTombstoned reports whether the user deleted this template's instance
// from the month.
func (ml *MonthLedger) IsTombstoned(templateID string) bool {
	for _, id := range ml.RemovedTemplateIDs {
		if id == templateID {
			return true
		}
	}
	return false
}

// IsPayoffTombstoned reports whether the user deleted this source's
// payoff bill from the month.
func (ml *MonthLedger) IsPayoffTombstoned(sourceID string) bool {
	for _, id := range ml.RemovedPayoffSourceIDs {
		if id == sourceID {
			return true
		}
	}
	return false
}

// FindVariableExpense locates an ad-hoc expense entry by id.
func (ml *MonthLedger) FindVariableExpense(id string) (*VariableExpense, error) {
	for i := range ml.VariableExpenses {
		if ml.VariableExpenses[i].ID == id {
			return &ml.VariableExpenses[i], nil
		}
	}
	return nil, ErrInstanceNotFound
}

// RemoveVariableExpense deletes an ad-hoc expense entry.
func (ml *MonthLedger) RemoveVariableExpense(id string) error {
	for i := range ml.VariableExpenses {
		if ml.VariableExpenses[i].ID == id {
			ml.VariableExpenses = append(ml.VariableExpenses[:i], ml.VariableExpenses[i+1:]...)
			return nil
		}
	}
	return ErrInstanceNotFound
}

// RecomputeSummary re-derives the stored roll-up from instance state.
// Runs on every write path; the stored value is display convenience.
func (ml *MonthLedger) RecomputeSummary() {
	ml.Summary = Summary{
		Bills:   summarize(ml.Bills),
		Incomes: summarize(ml.Incomes),
	}
	for _, ve := range ml.VariableExpenses {
		ml.Summary.VariableExpenses += ve.Amount
	}
}

func summarize(list []Instance) RoleSummary {
	var s RoleSummary
	s.Instances = len(list)
	for i := range list {
		s.Expected += list[i].ExpectedAmount
		s.Settled += list[i].TotalSettled
		s.Remaining += list[i].Remaining
		if list[i].IsClosed {
			s.Closed++
		}
	}
	return s
}

// Touch stamps the mutation time.
func (ml *MonthLedger) Touch(now time.Time) { ml.UpdatedAt = now }
