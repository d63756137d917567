/*
template.go - Recurring templates (bill and income definitions)

PURPOSE:
  A Template describes a recurring bill or income: how much, how often,
  and where in the calendar it lands. Templates are the read-only input
  to month generation and sync; occurrence state never lives here.

VALIDATION CONTRACT:
  Templates are validated at CRUD time, not at generation time. The
  occurrence generator (schedule.go) may assume a valid template. In
  particular, a non-monthly template without a start date is rejected at
  the door — by the time it reaches the generator that condition cannot
  occur.

START DATE IMMUTABILITY:
  For bi_weekly/weekly/semi_annually templates every occurrence is derived
  by fixed-interval addition from StartDate. Shifting it would silently
  rewrite historical occurrence dates, so updates must keep it fixed once
  set (enforced by the template service).
*/
package ledger

import "time"

// Template is a recurring bill or income definition. One shape for both
// roles; Role is the only discriminant.
type Template struct {
	ID              string        `json:"id"`
	Role            Role          `json:"role"`
	Name            string        `json:"name"`
	Amount          Cents         `json:"amount"`
	Period          BillingPeriod `json:"billing_period"`
	Anchor          Anchor        `json:"anchor"`
	StartDate       *Date         `json:"start_date,omitempty"`
	PaymentSourceID string        `json:"payment_source_id,omitempty"`
	CategoryID      string        `json:"category_id,omitempty"`
	Active          bool          `json:"active"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at,omitempty"`
}

// Validate checks the template invariants. Field names in errors match
// the JSON wire names so the UI can attach them to inputs.
func (t *Template) Validate() error {
	if t.Name == "" {
		return Validationf("name", "required")
	}
	if !t.Role.Valid() {
		return Validationf("role", "must be %q or %q", RoleBill, RoleIncome)
	}
	if t.Amount.IsNegative() {
		return Validationf("amount", "must not be negative")
	}
	if !t.Period.Valid() {
		return Validationf("billing_period", "unknown period %q", string(t.Period))
	}

	if t.Period == PeriodMonthly {
		return t.validateMonthlyAnchor()
	}

	// Stride-based periods anchor on StartDate, never on Anchor.
	if t.StartDate == nil || t.StartDate.IsZero() {
		return Validationf("start_date", "required for %s templates", string(t.Period))
	}
	if !t.Anchor.IsZero() {
		return Validationf("anchor", "not allowed for %s templates", string(t.Period))
	}
	return nil
}

// validateMonthlyAnchor enforces "exactly one anchoring scheme".
func (t *Template) validateMonthlyAnchor() error {
	a := t.Anchor
	switch {
	case a.HasDayOfMonth() && (a.RecurrenceWeek != nil || a.RecurrenceDay != nil):
		return Validationf("anchor", "day_of_month and recurrence anchors are mutually exclusive")
	case a.HasDayOfMonth():
		if d := *a.DayOfMonth; d < 1 || d > 31 {
			return Validationf("anchor.day_of_month", "must be 1-31, got %d", d)
		}
		return nil
	case a.HasWeekday():
		if w := *a.RecurrenceWeek; w < 1 || w > 5 {
			return Validationf("anchor.recurrence_week", "must be 1-5, got %d", w)
		}
		if d := *a.RecurrenceDay; d < 0 || d > 6 {
			return Validationf("anchor.recurrence_day", "must be 0-6, got %d", d)
		}
		return nil
	case a.RecurrenceWeek != nil || a.RecurrenceDay != nil:
		return Validationf("anchor", "recurrence_week and recurrence_day must be set together")
	default:
		return Validationf("anchor", "monthly templates need day_of_month or a recurrence pair")
	}
}
