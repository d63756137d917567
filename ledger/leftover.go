/*
leftover.go - Cash-flow projection for a month

PURPOSE:
  Answers "after everything lands, what is left?" from three inputs:
  the bank-balance snapshot, the income still expected, and the expenses
  still owed (payoff bills included).

    leftover = bankBalances + remainingIncome - remainingExpenses

VALIDITY RULE:
  The number is only trustworthy when every required source has a
  recorded balance. Required = every non-excluded payment source the
  month references. Any gap forces IsValid=false with the offending ids
  listed — a leftover with missing inputs must never be presented as
  trustworthy.

PURITY:
  ComputeLeftover is a pure projection: same ledger + same source flags
  in, same breakdown out. No clock, no hidden state. The time-varying
  overdue flags live in the detailed-month read model, not here.
*/
package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// BalanceSource carries the per-source flags the projection needs.
// The full payment-source entity lives in the budget package; the engine
// only cares about identity and exclusion.
type BalanceSource struct {
	ID                  string
	ExcludeFromLeftover bool
}

// LeftoverBreakdown is the month's cash-flow projection. Wire names
// follow the historical summary document.
type LeftoverBreakdown struct {
	BankBalances      Cents    `json:"bankBalances"`
	RemainingIncome   Cents    `json:"remainingIncome"`
	RemainingExpenses Cents    `json:"remainingExpenses"`
	Leftover          Cents    `json:"leftover"`
	IsValid           bool     `json:"isValid"`
	MissingBalances   []string `json:"missingBalances,omitempty"`
	ErrorMessage      string   `json:"errorMessage,omitempty"`
}

// ComputeLeftover derives the month's cash-flow projection.
func ComputeLeftover(ml *MonthLedger, sources []BalanceSource) LeftoverBreakdown {
	excluded := make(map[string]bool, len(sources))
	for _, s := range sources {
		if s.ExcludeFromLeftover {
			excluded[s.ID] = true
		}
	}

	var b LeftoverBreakdown
	for id, balance := range ml.BankBalances {
		if !excluded[id] {
			b.BankBalances += balance
		}
	}
	for i := range ml.Incomes {
		if !ml.Incomes[i].IsClosed {
			b.RemainingIncome += ml.Incomes[i].Remaining
		}
	}
	for i := range ml.Bills {
		if !ml.Bills[i].IsClosed {
			b.RemainingExpenses += ml.Bills[i].Remaining
		}
	}
	b.Leftover = b.BankBalances + b.RemainingIncome - b.RemainingExpenses

	b.MissingBalances = missingBalances(ml, excluded)
	b.IsValid = len(b.MissingBalances) == 0
	if !b.IsValid {
		b.ErrorMessage = fmt.Sprintf("missing balance for payment source(s): %s",
			strings.Join(b.MissingBalances, ", "))
	}
	return b
}

// missingBalances returns the non-excluded sources the month references
// that have no snapshot entry. A recorded zero counts as recorded.
func missingBalances(ml *MonthLedger, excluded map[string]bool) []string {
	required := map[string]bool{}
	note := func(id string) {
		if id != "" && !excluded[id] {
			required[id] = true
		}
	}
	for _, list := range [][]Instance{ml.Bills, ml.Incomes} {
		for i := range list {
			note(list[i].PaymentSourceID)
			note(list[i].PayoffSourceID)
			for _, o := range list[i].Occurrences {
				note(o.PaymentSourceID)
			}
		}
	}

	var missing []string
	for id := range required {
		if _, ok := ml.BankBalances[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
