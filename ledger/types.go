/*
Package ledger provides the core monthly-ledger engine.

PURPOSE:
  This package contains domain-agnostic types and algorithms for a
  month-keyed budget ledger. Bills and incomes share one Instance shape
  differentiated by a Role discriminant, so the occurrence state machine,
  aggregate recomputation, and leftover projection are implemented once.

KEY CONCEPTS IN THIS FILE (types.go):
  - Cents: Integer minor-currency units (no floating point, ever)
  - Role: bill | income — the single discriminant between the two paths
  - BillingPeriod: How a recurring template repeats across months
  - Anchor: Day-of-month or nth-weekday anchoring for monthly templates

DESIGN PRINCIPLES:
  1. Derived state is recomputed, never trusted: remaining, is_closed and
     category subtotals are projections of occurrence state.
  2. Integer arithmetic only for money. Fractional statistics live in the
     insights package, not here.
  3. The whole month document is the unit of mutation.

SEE ALSO:
  - schedule.go: Occurrence generation from templates
  - instance.go: The unified bill/income instance and its state machine
  - leftover.go: Cash-flow projection
*/
package ledger

// =============================================================================
// CENTS - Money as integer minor units
// =============================================================================

// Cents is a monetary amount in minor currency units (e.g. 1234 = $12.34).
// All ledger arithmetic is integer arithmetic; there is no float anywhere
// on the money path.
type Cents int64

func (c Cents) IsNegative() bool { return c < 0 }
func (c Cents) IsZero() bool     { return c == 0 }

// ClampFloor returns c, or zero when c is negative. Used for the
// "remaining is never negative" invariant.
func (c Cents) ClampFloor() Cents {
	if c < 0 {
		return 0
	}
	return c
}

// =============================================================================
// ROLE - The bill/income discriminant
// =============================================================================

// Role distinguishes the two structurally identical instance kinds.
// The engine treats them uniformly; only labels and the serialized name
// of the settled-total field differ.
type Role string

const (
	RoleBill   Role = "bill"
	RoleIncome Role = "income"
)

func (r Role) Valid() bool { return r == RoleBill || r == RoleIncome }

// =============================================================================
// BILLING PERIOD
// =============================================================================

// BillingPeriod defines how occurrences of a template repeat.
type BillingPeriod string

const (
	PeriodMonthly      BillingPeriod = "monthly"
	PeriodBiWeekly     BillingPeriod = "bi_weekly"
	PeriodWeekly       BillingPeriod = "weekly"
	PeriodSemiAnnually BillingPeriod = "semi_annually"
)

func (p BillingPeriod) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodBiWeekly, PeriodWeekly, PeriodSemiAnnually:
		return true
	}
	return false
}

// RequiresStartDate reports whether templates of this period must carry a
// start date. Non-monthly occurrences are derived by fixed-interval
// addition from the start date, so without one there is nothing to
// expand from.
func (p BillingPeriod) RequiresStartDate() bool {
	return p != PeriodMonthly
}

// StrideDays returns the fixed day interval for stride-based periods,
// or 0 for periods that are not day-stride based.
func (p BillingPeriod) StrideDays() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodBiWeekly:
		return 14
	}
	return 0
}

// TypicalOccurrences is the usual per-month occurrence count for the
// period. A month whose generated count exceeds this is an
// "extra occurrence month" (e.g. three bi-weekly paychecks).
func (p BillingPeriod) TypicalOccurrences() int {
	switch p {
	case PeriodWeekly:
		return 4
	case PeriodBiWeekly:
		return 2
	default:
		return 1
	}
}

// =============================================================================
// ANCHOR - Monthly anchoring schemes
// =============================================================================

// Anchor describes where in a month a monthly template lands.
// Exactly one scheme is set: either DayOfMonth, or the
// RecurrenceWeek/RecurrenceDay pair.
//
//   - DayOfMonth 1..31; 31 always means "last day of the month".
//   - RecurrenceWeek 1..5 with RecurrenceDay 0..6 (Sunday=0) selects the
//     nth such weekday; week 5 means "the last one", not literally the
//     fifth.
type Anchor struct {
	DayOfMonth     *int `json:"day_of_month,omitempty"`
	RecurrenceWeek *int `json:"recurrence_week,omitempty"`
	RecurrenceDay  *int `json:"recurrence_day,omitempty"`
}

// HasDayOfMonth reports whether the day-of-month scheme is set.
func (a Anchor) HasDayOfMonth() bool { return a.DayOfMonth != nil }

// HasWeekday reports whether the nth-weekday scheme is fully set.
func (a Anchor) HasWeekday() bool {
	return a.RecurrenceWeek != nil && a.RecurrenceDay != nil
}

// IsZero reports whether no scheme is set at all.
func (a Anchor) IsZero() bool {
	return a.DayOfMonth == nil && a.RecurrenceWeek == nil && a.RecurrenceDay == nil
}
