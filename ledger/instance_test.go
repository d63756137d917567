package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hearthledger/budget-engine/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func billInstance(amounts ...ledger.Cents) *ledger.Instance {
	inst := &ledger.Instance{
		ID:   "inst-1",
		Role: ledger.RoleBill,
		Name: "Utilities",
	}
	for i, a := range amounts {
		inst.Occurrences = append(inst.Occurrences, ledger.Occurrence{
			ID:             "occ-" + string(rune('a'+i)),
			Sequence:       i + 1,
			ExpectedDate:   ledger.NewDate(2025, time.January, 5+i*7),
			ExpectedAmount: a,
		})
	}
	inst.Recompute()
	return inst
}

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestInstance_CloseAndReopen(t *testing.T) {
	// GIVEN: A bill with two occurrences of 5000 each
	// WHEN: Closing one, then reopening it
	// THEN: Aggregates track occurrence state exactly

	inst := billInstance(5000, 5000)
	closed := ledger.NewDate(2025, time.January, 10)

	if err := inst.CloseOccurrence("occ-a", closed, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
	if inst.TotalSettled != 5000 || inst.Remaining != 5000 || inst.IsClosed {
		t.Errorf("after one close: settled=%d remaining=%d closed=%v", inst.TotalSettled, inst.Remaining, inst.IsClosed)
	}

	if err := inst.CloseOccurrence("occ-b", closed, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !inst.IsClosed || inst.Remaining != 0 {
		t.Errorf("after both closed: remaining=%d closed=%v", inst.Remaining, inst.IsClosed)
	}

	if err := inst.ReopenOccurrence("occ-b"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if inst.IsClosed || inst.TotalSettled != 5000 {
		t.Errorf("after reopen: settled=%d closed=%v", inst.TotalSettled, inst.IsClosed)
	}
	if inst.Occurrences[1].ClosedDate != nil {
		t.Error("reopen should clear the closed date")
	}
}

func TestInstance_CloseRecordsDateAndSource(t *testing.T) {
	// GIVEN: An occurrence seeded with the planned source
	// WHEN: Closing with an override source
	// THEN: Source overrides; empty override keeps the existing one

	inst := billInstance(5000, 5000)
	inst.Occurrences[0].PaymentSourceID = "src-checking"
	inst.Occurrences[1].PaymentSourceID = "src-checking"
	closed := ledger.NewDate(2025, time.January, 12)

	if err := inst.CloseOccurrence("occ-a", closed, "src-credit"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if inst.Occurrences[0].PaymentSourceID != "src-credit" {
		t.Errorf("expected override source, got %q", inst.Occurrences[0].PaymentSourceID)
	}

	if err := inst.CloseOccurrence("occ-b", closed, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
	if inst.Occurrences[1].PaymentSourceID != "src-checking" {
		t.Errorf("empty override should keep planned source, got %q", inst.Occurrences[1].PaymentSourceID)
	}
	if inst.Occurrences[0].ClosedDate == nil || !inst.Occurrences[0].ClosedDate.Equal(closed) {
		t.Error("closed date not recorded")
	}
}

func TestInstance_UpdateAmount(t *testing.T) {
	// Editing expected amounts is legal in either state; negatives rejected.

	inst := billInstance(5000)
	if err := inst.UpdateOccurrenceAmount("occ-a", 7500); err != nil {
		t.Fatalf("update: %v", err)
	}
	if inst.ExpectedAmount != 7500 || inst.Remaining != 7500 {
		t.Errorf("expected=%d remaining=%d", inst.ExpectedAmount, inst.Remaining)
	}

	if err := inst.UpdateOccurrenceAmount("occ-a", -1); err == nil {
		t.Error("negative amount should be rejected")
	}

	// Closed occurrence: amount edit changes settled too (close means
	// "expected was fully settled").
	inst.CloseOccurrence("occ-a", ledger.NewDate(2025, time.January, 10), "")
	if err := inst.UpdateOccurrenceAmount("occ-a", 8000); err != nil {
		t.Fatalf("update closed: %v", err)
	}
	if inst.TotalSettled != 8000 {
		t.Errorf("settled should follow the closed occurrence's amount, got %d", inst.TotalSettled)
	}
}

func TestInstance_AddAndRemoveOccurrences(t *testing.T) {
	// Ad-hoc occurrences take the next sequence; removal renumbers.

	inst := billInstance(5000, 5000)
	err := inst.AddAdhocOccurrence(ledger.Occurrence{
		ID:             "occ-extra",
		ExpectedDate:   ledger.NewDate(2025, time.January, 25),
		ExpectedAmount: 2500,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := inst.Occurrences[2].Sequence; got != 3 {
		t.Errorf("expected sequence 3, got %d", got)
	}
	if !inst.Occurrences[2].IsAdhoc {
		t.Error("added occurrence should be flagged ad-hoc")
	}
	if inst.ExpectedAmount != 12500 {
		t.Errorf("expected total 12500, got %d", inst.ExpectedAmount)
	}

	if err := inst.RemoveOccurrence("occ-a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for i, occ := range inst.Occurrences {
		if occ.Sequence != i+1 {
			t.Errorf("occurrence %d: sequence %d not contiguous", i, occ.Sequence)
		}
	}
	if inst.ExpectedAmount != 7500 {
		t.Errorf("expected total 7500 after removal, got %d", inst.ExpectedAmount)
	}
}

func TestInstance_RemainingNeverNegative(t *testing.T) {
	// Shrinking an open occurrence below the settled total clamps at zero.

	inst := billInstance(5000, 5000)
	inst.CloseOccurrence("occ-a", ledger.NewDate(2025, time.January, 10), "")
	if err := inst.UpdateOccurrenceAmount("occ-b", 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if inst.Remaining != 0 {
		t.Errorf("remaining should clamp at zero, got %d", inst.Remaining)
	}
}

func TestInstance_EmptyInstanceIsNotClosed(t *testing.T) {
	inst := billInstance()
	if inst.IsClosed {
		t.Error("instance with no occurrences must not report closed")
	}
}

// =============================================================================
// SERIALIZATION - role-specific settled field
// =============================================================================

func TestInstance_SettledFieldNameFollowsRole(t *testing.T) {
	// Bills persist total_paid, incomes total_received — and a settled
	// total of zero still serializes.

	bill := billInstance(5000)
	data, err := json.Marshal(bill)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]any
	json.Unmarshal(data, &wire)
	if _, ok := wire["total_paid"]; !ok {
		t.Error("bill should serialize total_paid")
	}
	if _, ok := wire["total_received"]; ok {
		t.Error("bill must not serialize total_received")
	}

	income := billInstance(5000)
	income.Role = ledger.RoleIncome
	income.CloseOccurrence("occ-a", ledger.NewDate(2025, time.January, 3), "")
	data, _ = json.Marshal(income)
	var back ledger.Instance
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.TotalSettled != 5000 {
		t.Errorf("round-tripped settled total: expected 5000, got %d", back.TotalSettled)
	}
}
