/*
Package budget implements the budgeting domain on top of the ledger
engine: month lifecycle, payment operations, reconciliation, template
and reference-data CRUD, the undo log, and backup.

The engine (ledger package) knows nothing about payment sources,
categories, or storage keys beyond the document contract; this package
owns those and wires every mutation through the store's per-key
critical sections.
*/
package budget

import (
	"time"

	"github.com/hearthledger/budget-engine/ledger"
)

// =============================================================================
// PAYMENT SOURCE
// =============================================================================

// SourceKind distinguishes cash accounts from revolving credit.
type SourceKind string

const (
	SourceBank   SourceKind = "bank"
	SourceCredit SourceKind = "credit"
)

// PaymentSource is an account money moves through. Balance is the
// CURRENT balance; the per-month snapshot lives on the month document.
type PaymentSource struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Kind    SourceKind   `json:"kind"`
	Balance ledger.Cents `json:"balance"`

	// ExcludeFromLeftover keeps this source out of the cash-flow
	// projection (e.g. a credit card whose balance is debt, not cash).
	ExcludeFromLeftover bool `json:"exclude_from_leftover,omitempty"`

	// PayOffMonthly makes month generation synthesize a payoff bill
	// seeded from this source's balance.
	PayOffMonthly bool `json:"pay_off_monthly,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// LeftoverFlags projects sources into the engine's input shape.
func LeftoverFlags(sources []PaymentSource) []ledger.BalanceSource {
	out := make([]ledger.BalanceSource, 0, len(sources))
	for _, s := range sources {
		out = append(out, ledger.BalanceSource{ID: s.ID, ExcludeFromLeftover: s.ExcludeFromLeftover})
	}
	return out
}

// =============================================================================
// CATEGORY
// =============================================================================

// Category is display grouping for instances and expenses.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind,omitempty"` // bill | income | expense
	SortOrder int       `json:"sort_order,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// CategoryRefs projects categories into the engine's read-model input.
func CategoryRefs(categories []Category) []ledger.CategoryRef {
	out := make([]ledger.CategoryRef, 0, len(categories))
	for _, c := range categories {
		out = append(out, ledger.CategoryRef{ID: c.ID, Name: c.Name, SortOrder: c.SortOrder})
	}
	return out
}

// templateKey maps a role to its collection document.
func templateKey(role ledger.Role) string {
	if role == ledger.RoleIncome {
		return ledger.KeyIncomes
	}
	return ledger.KeyBills
}
