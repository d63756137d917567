package ledger_test

import (
	"testing"
	"time"

	"github.com/hearthledger/budget-engine/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func leftoverMonth() *ledger.MonthLedger {
	ml := ledger.NewMonthLedger(ledger.MonthOf(2025, time.January), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	rent := billInstance(150000)
	rent.ID = "inst-rent"
	rent.PaymentSourceID = "src-checking"
	rent.Occurrences[0].PaymentSourceID = "src-checking"
	ml.AddInstance(rent)

	pay := billInstance(200000, 200000)
	pay.ID = "inst-pay"
	pay.Role = ledger.RoleIncome
	pay.PaymentSourceID = "src-checking"
	ml.AddInstance(pay)

	ml.RecomputeSummary()
	return ml
}

// =============================================================================
// FORMULA
// =============================================================================

func TestLeftover_Formula(t *testing.T) {
	// GIVEN: Balance 100000, remaining income 400000, remaining bills 150000
	// WHEN: Computing the leftover
	// THEN: 100000 + 400000 - 150000 = 350000, valid

	ml := leftoverMonth()
	ml.BankBalances["src-checking"] = 100000

	b := ledger.ComputeLeftover(ml, []ledger.BalanceSource{{ID: "src-checking"}})
	if b.Leftover != 350000 {
		t.Errorf("leftover: expected 350000, got %d", b.Leftover)
	}
	if !b.IsValid || len(b.MissingBalances) != 0 {
		t.Errorf("expected valid breakdown, got valid=%v missing=%v", b.IsValid, b.MissingBalances)
	}
}

func TestLeftover_ClosedInstancesDropOut(t *testing.T) {
	// A fully closed bill contributes nothing to remaining expenses.

	ml := leftoverMonth()
	ml.BankBalances["src-checking"] = 100000
	ml.Bills[0].CloseAll(ledger.NewDate(2025, time.January, 10))
	ml.RecomputeSummary()

	b := ledger.ComputeLeftover(ml, []ledger.BalanceSource{{ID: "src-checking"}})
	if b.RemainingExpenses != 0 {
		t.Errorf("remaining expenses after close: expected 0, got %d", b.RemainingExpenses)
	}
	if b.Leftover != 500000 {
		t.Errorf("leftover: expected 500000, got %d", b.Leftover)
	}
}

// =============================================================================
// VALIDITY
// =============================================================================

func TestLeftover_MissingBalanceInvalidates(t *testing.T) {
	// GIVEN: The month references src-checking but records no balance
	// WHEN: Computing the leftover
	// THEN: IsValid=false, the id listed, an error message set

	ml := leftoverMonth()
	b := ledger.ComputeLeftover(ml, []ledger.BalanceSource{{ID: "src-checking"}})
	if b.IsValid {
		t.Error("missing balance must invalidate the breakdown")
	}
	if len(b.MissingBalances) != 1 || b.MissingBalances[0] != "src-checking" {
		t.Errorf("missing list: %v", b.MissingBalances)
	}
	if b.ErrorMessage == "" {
		t.Error("expected an error message")
	}
}

func TestLeftover_RecordedZeroIsAValue(t *testing.T) {
	// A zero balance is recorded data, not a gap.

	ml := leftoverMonth()
	ml.BankBalances["src-checking"] = 0
	b := ledger.ComputeLeftover(ml, []ledger.BalanceSource{{ID: "src-checking"}})
	if !b.IsValid {
		t.Errorf("recorded zero should be valid, missing=%v", b.MissingBalances)
	}
}

func TestLeftover_ExcludedSourceNeverRequired(t *testing.T) {
	// GIVEN: A credit source flagged exclude_from_leftover, referenced and
	//        even carrying a recorded balance
	// WHEN: Computing the leftover
	// THEN: Not required, and its balance does not count

	ml := leftoverMonth()
	ml.BankBalances["src-checking"] = 100000
	ml.BankBalances["src-credit"] = 999999
	ml.Bills[0].Occurrences[0].PaymentSourceID = "src-credit"

	b := ledger.ComputeLeftover(ml, []ledger.BalanceSource{
		{ID: "src-checking"},
		{ID: "src-credit", ExcludeFromLeftover: true},
	})
	if !b.IsValid {
		t.Errorf("excluded source must not be required, missing=%v", b.MissingBalances)
	}
	if b.BankBalances != 100000 {
		t.Errorf("excluded balance must not count: got %d", b.BankBalances)
	}
}

func TestLeftover_PayoffSourceIsRequired(t *testing.T) {
	// Payoff bills reference their source via payoff_source_id.

	ml := leftoverMonth()
	ml.BankBalances["src-checking"] = 100000
	payoff := billInstance(30000)
	payoff.ID = "inst-payoff"
	payoff.IsPayoff = true
	payoff.PayoffSourceID = "src-visa"
	ml.AddInstance(payoff)

	b := ledger.ComputeLeftover(ml, []ledger.BalanceSource{{ID: "src-checking"}, {ID: "src-visa"}})
	if b.IsValid {
		t.Error("unrecorded payoff source must invalidate the breakdown")
	}
	if len(b.MissingBalances) != 1 || b.MissingBalances[0] != "src-visa" {
		t.Errorf("missing list: %v", b.MissingBalances)
	}
}

// =============================================================================
// DETAILED MONTH PROJECTION
// =============================================================================

func TestDetailedMonth_SectionsAndSubtotals(t *testing.T) {
	// GIVEN: A categorized bill (closed, 1500 settled), an uncategorized
	//        income, and a categorized variable expense of 2000
	// WHEN: Building the detailed view
	// THEN: Sections sort by sort_order with Uncategorized last; subtotal
	//       actual = settled instances + expenses

	ml := ledger.NewMonthLedger(ledger.MonthOf(2025, time.January), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	bill := billInstance(1500)
	bill.ID = "inst-a"
	bill.CategoryID = "cat-housing"
	bill.CloseAll(ledger.NewDate(2025, time.January, 10))
	ml.AddInstance(bill)

	income := billInstance(9000)
	income.ID = "inst-b"
	income.Role = ledger.RoleIncome
	ml.AddInstance(income)

	ml.VariableExpenses = append(ml.VariableExpenses, ledger.VariableExpense{
		ID: "ve-1", Name: "Repairs", Amount: 2000,
		Date: ledger.NewDate(2025, time.January, 12), CategoryID: "cat-housing",
	})
	ml.RecomputeSummary()

	dm := ledger.BuildDetailedMonth(ml,
		[]ledger.CategoryRef{{ID: "cat-housing", Name: "Housing", SortOrder: 1}},
		nil, ledger.NewDate(2025, time.January, 20))

	if len(dm.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(dm.Sections))
	}
	housing := dm.Sections[0]
	if housing.CategoryName != "Housing" {
		t.Fatalf("expected Housing first, got %q", housing.CategoryName)
	}
	if housing.Subtotal.Expected != 1500 || housing.Subtotal.Actual != 3500 {
		t.Errorf("housing subtotal: expected {1500 3500}, got {%d %d}",
			housing.Subtotal.Expected, housing.Subtotal.Actual)
	}
	if dm.Sections[1].CategoryName != "Uncategorized" {
		t.Errorf("expected Uncategorized bucket last, got %q", dm.Sections[1].CategoryName)
	}
}

func TestDetailedMonth_OverdueFlags(t *testing.T) {
	// GIVEN: An open occurrence expected Jan 5 and today = Jan 12
	// WHEN: Building the detailed view
	// THEN: The item is overdue by 7 days; closed occurrences never age

	ml := ledger.NewMonthLedger(ledger.MonthOf(2025, time.January), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	bill := billInstance(5000) // expected date 2025-01-05
	bill.ID = "inst-a"
	ml.AddInstance(bill)
	ml.RecomputeSummary()

	dm := ledger.BuildDetailedMonth(ml, nil, nil, ledger.NewDate(2025, time.January, 12))
	item := dm.Sections[0].Items[0]
	if !item.IsOverdue || item.DaysOverdue != 7 {
		t.Errorf("expected overdue by 7 days, got overdue=%v days=%d", item.IsOverdue, item.DaysOverdue)
	}

	ml.Bills[0].CloseAll(ledger.NewDate(2025, time.January, 13))
	dm = ledger.BuildDetailedMonth(ml, nil, nil, ledger.NewDate(2025, time.January, 20))
	if dm.Sections[0].Items[0].IsOverdue {
		t.Error("closed occurrences must not be overdue")
	}
}
