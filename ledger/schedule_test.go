package ledger_test

import (
	"testing"
	"time"

	"github.com/hearthledger/budget-engine/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func intp(v int) *int { return &v }

func datep(y int, m time.Month, d int) *ledger.Date {
	dt := ledger.NewDate(y, m, d)
	return &dt
}

func monthlyTemplate(day int) *ledger.Template {
	return &ledger.Template{
		ID:     "tpl-1",
		Role:   ledger.RoleBill,
		Name:   "Rent",
		Amount: 150000,
		Period: ledger.PeriodMonthly,
		Anchor: ledger.Anchor{DayOfMonth: intp(day)},
		Active: true,
	}
}

func strideTemplate(period ledger.BillingPeriod, start *ledger.Date) *ledger.Template {
	return &ledger.Template{
		ID:        "tpl-2",
		Role:      ledger.RoleIncome,
		Name:      "Paycheck",
		Amount:    200000,
		Period:    period,
		StartDate: start,
		Active:    true,
	}
}

func expectDates(t *testing.T, occs []ledger.GeneratedOccurrence, want ...string) {
	t.Helper()
	if len(occs) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(occs))
	}
	for i, w := range want {
		if got := occs[i].ExpectedDate.String(); got != w {
			t.Errorf("occurrence %d: expected date %s, got %s", i+1, w, got)
		}
		if occs[i].Sequence != i+1 {
			t.Errorf("occurrence %d: expected sequence %d, got %d", i+1, i+1, occs[i].Sequence)
		}
	}
}

// =============================================================================
// MONTHLY ANCHORING
// =============================================================================

func TestGenerate_Monthly_DayOfMonth(t *testing.T) {
	// GIVEN: Monthly bill anchored on the 15th
	// WHEN: Generating January 2025
	// THEN: One occurrence on 2025-01-15 at the template amount

	occs := ledger.GenerateOccurrences(monthlyTemplate(15), ledger.MonthOf(2025, time.January))
	expectDates(t, occs, "2025-01-15")
	if occs[0].ExpectedAmount != 150000 {
		t.Errorf("expected amount 150000, got %d", occs[0].ExpectedAmount)
	}
}

func TestGenerate_Monthly_Day31_ClampsToMonthEnd(t *testing.T) {
	// GIVEN: Monthly bill anchored on day 31
	// WHEN: Generating February and April 2025
	// THEN: Lands on the last day (Feb 28, Apr 30), never skipped

	tpl := monthlyTemplate(31)
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.February)), "2025-02-28")
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.April)), "2025-04-30")
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.January)), "2025-01-31")
}

func TestGenerate_Monthly_NthWeekday(t *testing.T) {
	// GIVEN: Monthly income on the 2nd Friday
	// WHEN: Generating January 2025 (first Friday is Jan 3)
	// THEN: One occurrence on Jan 10

	tpl := monthlyTemplate(0)
	tpl.Anchor = ledger.Anchor{RecurrenceWeek: intp(2), RecurrenceDay: intp(5)}
	occs := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.January))
	expectDates(t, occs, "2025-01-10")
}

func TestGenerate_Monthly_Week5_MeansLastWeekday(t *testing.T) {
	// GIVEN: Anchor "5th Friday" in months with only four Fridays
	// WHEN: Generating February 2025 (Fridays: 7, 14, 21, 28)
	// THEN: Selects the LAST Friday, Feb 28

	tpl := monthlyTemplate(0)
	tpl.Anchor = ledger.Anchor{RecurrenceWeek: intp(5), RecurrenceDay: intp(5)}
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.February)), "2025-02-28")
	// January 2025 actually has five Fridays; the fifth is Jan 31.
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.January)), "2025-01-31")
}

func TestGenerate_Monthly_StartDateSkipsEarlierMonths(t *testing.T) {
	// GIVEN: Monthly bill that begins in June 2025
	// WHEN: Generating May and June
	// THEN: May gets nothing, June gets its occurrence

	tpl := monthlyTemplate(10)
	tpl.StartDate = datep(2025, time.June, 1)
	if occs := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.May)); len(occs) != 0 {
		t.Fatalf("expected no occurrences before start date, got %d", len(occs))
	}
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.June)), "2025-06-10")
}

// =============================================================================
// STRIDE PERIODS (WEEKLY / BI-WEEKLY)
// =============================================================================

func TestGenerate_BiWeekly_ExtraOccurrenceMonth(t *testing.T) {
	// GIVEN: Bi-weekly paycheck starting Thursday 2025-01-02
	// WHEN: Generating January 2025
	// THEN: Three occurrences (2, 16, 30) — the classic three-paycheck month

	tpl := strideTemplate(ledger.PeriodBiWeekly, datep(2025, time.January, 2))
	occs := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.January))
	expectDates(t, occs, "2025-01-02", "2025-01-16", "2025-01-30")

	if !ledger.IsExtraOccurrenceMonth(ledger.PeriodBiWeekly, len(occs)) {
		t.Error("three bi-weekly occurrences should flag an extra-occurrence month")
	}
}

func TestGenerate_BiWeekly_FarFutureMonthStaysAligned(t *testing.T) {
	// GIVEN: The same 2025-01-02 paycheck
	// WHEN: Generating March 2025 (skipping February entirely)
	// THEN: Stride alignment holds: 13th and 27th, not drifted

	tpl := strideTemplate(ledger.PeriodBiWeekly, datep(2025, time.January, 2))
	occs := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.March))
	expectDates(t, occs, "2025-03-13", "2025-03-27")

	if ledger.IsExtraOccurrenceMonth(ledger.PeriodBiWeekly, len(occs)) {
		t.Error("two bi-weekly occurrences is the typical count, not extra")
	}
}

func TestGenerate_Weekly_FourAndFiveOccurrenceMonths(t *testing.T) {
	// GIVEN: Weekly bill starting Monday 2025-01-06
	// WHEN: Generating January (4 Mondays from the 6th) and March (5 Mondays)
	// THEN: Counts follow the calendar; March flags extra

	tpl := strideTemplate(ledger.PeriodWeekly, datep(2025, time.January, 6))
	jan := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.January))
	expectDates(t, jan, "2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27")

	mar := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.March))
	expectDates(t, mar, "2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24", "2025-03-31")
	if !ledger.IsExtraOccurrenceMonth(ledger.PeriodWeekly, len(mar)) {
		t.Error("five weekly occurrences should flag an extra-occurrence month")
	}
}

func TestGenerate_Stride_MonthBeforeStartDateIsEmpty(t *testing.T) {
	// GIVEN: Bi-weekly template starting in March
	// WHEN: Generating January
	// THEN: Nothing

	tpl := strideTemplate(ledger.PeriodBiWeekly, datep(2025, time.March, 5))
	if occs := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.January)); len(occs) != 0 {
		t.Fatalf("expected no occurrences before start date, got %d", len(occs))
	}
}

// =============================================================================
// SEMI-ANNUAL
// =============================================================================

func TestGenerate_SemiAnnual_OnAndOffMonths(t *testing.T) {
	// GIVEN: Semi-annual bill starting 2025-01-15
	// WHEN: Generating Jan, Feb, and Jul 2025
	// THEN: Jan and Jul hit, Feb is an off-month

	tpl := strideTemplate(ledger.PeriodSemiAnnually, datep(2025, time.January, 15))
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.January)), "2025-01-15")
	if occs := ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.February)); len(occs) != 0 {
		t.Fatalf("expected off-month to be empty, got %d occurrences", len(occs))
	}
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.July)), "2025-07-15")
}

func TestGenerate_SemiAnnual_DayClampsAcrossStrides(t *testing.T) {
	// GIVEN: Semi-annual bill starting 2024-08-31
	// WHEN: Generating February 2025 (six months later, 28 days)
	// THEN: Clamped to Feb 28, and back on the 31st in August

	tpl := strideTemplate(ledger.PeriodSemiAnnually, datep(2024, time.August, 31))
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.February)), "2025-02-28")
	expectDates(t, ledger.GenerateOccurrences(tpl, ledger.MonthOf(2025, time.August)), "2025-08-31")
}

// =============================================================================
// TEMPLATE VALIDATION
// =============================================================================

func TestTemplateValidate_AnchorSchemes(t *testing.T) {
	// Exactly one anchoring scheme for monthly; none for stride periods.

	both := monthlyTemplate(15)
	both.Anchor.RecurrenceWeek = intp(2)
	both.Anchor.RecurrenceDay = intp(5)
	if err := both.Validate(); err == nil {
		t.Error("both anchor schemes at once should fail validation")
	}

	half := monthlyTemplate(0)
	half.Anchor = ledger.Anchor{RecurrenceWeek: intp(2)}
	if err := half.Validate(); err == nil {
		t.Error("recurrence_week without recurrence_day should fail validation")
	}

	noStart := strideTemplate(ledger.PeriodBiWeekly, nil)
	if err := noStart.Validate(); err == nil {
		t.Error("stride template without start_date should fail validation")
	}

	anchored := strideTemplate(ledger.PeriodWeekly, datep(2025, time.January, 6))
	anchored.Anchor.DayOfMonth = intp(15)
	if err := anchored.Validate(); err == nil {
		t.Error("stride template with an anchor should fail validation")
	}

	if err := monthlyTemplate(15).Validate(); err != nil {
		t.Errorf("valid monthly template rejected: %v", err)
	}
}
