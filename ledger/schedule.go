/*
schedule.go - Occurrence generation from recurring templates

PURPOSE:
  Pure functions that expand a recurring template into the dated
  occurrences expected inside one target month. This is the billing-period
  math at the heart of month generation and sync.

PERIOD SEMANTICS:
  monthly + day_of_month:   one occurrence at min(day, last day of month).
                            Day 31 always means "last day", so a bill
                            anchored on the 31st lands on Feb 28.
  monthly + nth weekday:    the w-th weekday r of the month; w=5 selects
                            the LAST such weekday even when only 4 exist.
  weekly / bi_weekly:       7/14-day strides from StartDate; every stride
                            date inside the month is emitted, UNCAPPED.
                            Three bi-weekly paychecks in one month is the
                            normal "extra occurrence month" case, surfaced
                            as a derived flag on the instance — never
                            suppressed here.
  semi_annually:            6-month strides from StartDate with day
                            clamping; usually zero or one per month.

AMOUNTS:
  Every occurrence starts at the template amount. The template amount
  already means "per occurrence" — it is never divided or multiplied.
  The amount-per-month dashboard estimate is a separate statistic
  (see insights package).

INPUT CONTRACT:
  Templates are validated at CRUD time (template.go). The generator
  assumes valid input and does not re-validate.
*/
package ledger

import "time"

// GeneratedOccurrence is one expected occurrence produced by expansion.
// Sequence is 1-based and contiguous within the month.
type GeneratedOccurrence struct {
	Sequence       int
	ExpectedDate   Date
	ExpectedAmount Cents
}

// GenerateOccurrences expands tpl into its expected occurrences within
// month, ordered by date. The result may be empty (semi-annual
// off-months, or a start date after the month).
func GenerateOccurrences(tpl *Template, month Month) []GeneratedOccurrence {
	var dates []Date
	switch tpl.Period {
	case PeriodMonthly:
		dates = monthlyDates(tpl, month)
	case PeriodWeekly, PeriodBiWeekly:
		dates = strideDates(tpl, month, tpl.Period.StrideDays())
	case PeriodSemiAnnually:
		dates = semiAnnualDates(tpl, month)
	}

	occs := make([]GeneratedOccurrence, 0, len(dates))
	for i, d := range dates {
		occs = append(occs, GeneratedOccurrence{
			Sequence:       i + 1,
			ExpectedDate:   d,
			ExpectedAmount: tpl.Amount,
		})
	}
	return occs
}

// IsExtraOccurrenceMonth reports whether count exceeds the typical
// per-month occurrence count for the period. Derived, never enforced.
func IsExtraOccurrenceMonth(period BillingPeriod, count int) bool {
	return count > period.TypicalOccurrences()
}

func monthlyDates(tpl *Template, month Month) []Date {
	var d Date
	switch {
	case tpl.Anchor.HasDayOfMonth():
		d = month.ClampDay(*tpl.Anchor.DayOfMonth)
	case tpl.Anchor.HasWeekday():
		d = month.NthWeekday(*tpl.Anchor.RecurrenceWeek, time.Weekday(*tpl.Anchor.RecurrenceDay))
	default:
		return nil
	}
	// A monthly template may still carry a start date ("begins in June");
	// earlier months get nothing.
	if tpl.StartDate != nil && !tpl.StartDate.IsZero() && d.Before(*tpl.StartDate) {
		return nil
	}
	return []Date{d}
}

// strideDates walks fixed day strides from StartDate and keeps the dates
// inside the month. The walk starts at the first stride >= the month's
// first day rather than iterating from StartDate, so far-future months
// stay O(1).
func strideDates(tpl *Template, month Month, stride int) []Date {
	start := *tpl.StartDate
	first, last := month.First(), month.Last()
	if start.After(last) {
		return nil
	}

	cur := start
	if first.After(start) {
		gap := first.DaysSince(start)
		steps := gap / stride
		if gap%stride != 0 {
			steps++
		}
		cur = start.AddDays(steps * stride)
	}

	var dates []Date
	for cur.BeforeOrEqual(last) {
		dates = append(dates, cur)
		cur = cur.AddDays(stride)
	}
	return dates
}

// semiAnnualDates emits the 6-month-stride dates landing in the month.
// Day-of-month is clamped per stride (Aug 31 -> Feb 28), so the stride
// count is derived from the month distance, not from date arithmetic.
func semiAnnualDates(tpl *Template, month Month) []Date {
	start := *tpl.StartDate
	startMonth := MonthOfDate(start)
	monthsApart := (month.Year()-startMonth.Year())*12 + int(month.Month()-startMonth.Month())
	if monthsApart < 0 || monthsApart%6 != 0 {
		return nil
	}
	return []Date{start.AddMonthsClamped(monthsApart)}
}
