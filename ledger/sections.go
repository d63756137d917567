/*
sections.go - The detailed-month read model

PURPOSE:
  Reshapes a stored MonthLedger into what the presentation layer renders:
  instances grouped by category with {expected, actual} subtotals, plus
  the leftover breakdown. Pure projection — derivable entirely from the
  stored ledger and the reference collections, so it is trivially
  testable and can never desync from persisted state.

SUBTOTALS:
  Category subtotals are recomputed from the live instance set on every
  read. They are a view, never stored, never mutated.

OVERDUE:
  is_overdue/days_overdue are derived from the caller-supplied "today".
  This is an intentionally time-varying read; it is not part of the
  leftover number.
*/
package ledger

import "sort"

// CategoryRef is the slice of the category entity the projection needs.
type CategoryRef struct {
	ID        string
	Name      string
	SortOrder int
}

// SectionItem is an instance enriched with read-time overdue flags.
type SectionItem struct {
	Instance    Instance `json:"instance"`
	IsOverdue   bool     `json:"is_overdue,omitempty"`
	DaysOverdue int      `json:"days_overdue,omitempty"`
}

// SectionSubtotal is the {expected, actual} pair for one category.
type SectionSubtotal struct {
	Expected Cents `json:"expected"`
	Actual   Cents `json:"actual"`
}

// CategorySection groups one category's instances and expenses.
type CategorySection struct {
	CategoryID   string            `json:"category_id"`
	CategoryName string            `json:"category_name"`
	Items        []SectionItem     `json:"items"`
	Expenses     []VariableExpense `json:"expenses,omitempty"`
	Subtotal     SectionSubtotal   `json:"subtotal"`
}

// DetailedMonth is the full read model for a month.
type DetailedMonth struct {
	Month    Month             `json:"month"`
	ReadOnly bool              `json:"read_only"`
	Sections []CategorySection `json:"sections"`
	Summary  Summary           `json:"summary"`
	Leftover LeftoverBreakdown `json:"leftover"`
}

// BuildDetailedMonth projects the stored ledger into the read model.
// today drives the overdue flags only.
func BuildDetailedMonth(ml *MonthLedger, categories []CategoryRef, sources []BalanceSource, today Date) *DetailedMonth {
	byCategory := map[string]*CategorySection{}
	order := map[string]int{}
	for _, c := range categories {
		byCategory[c.ID] = &CategorySection{CategoryID: c.ID, CategoryName: c.Name}
		order[c.ID] = c.SortOrder
	}
	section := func(categoryID string) *CategorySection {
		s, ok := byCategory[categoryID]
		if !ok {
			// Unknown or empty category ids collect in one bucket.
			s, ok = byCategory[""]
			if !ok {
				s = &CategorySection{CategoryID: "", CategoryName: "Uncategorized"}
				byCategory[""] = s
				order[""] = 1 << 30
			}
		}
		return s
	}

	for _, list := range [][]Instance{ml.Bills, ml.Incomes} {
		for i := range list {
			item := newSectionItem(list[i], today)
			s := section(list[i].CategoryID)
			s.Items = append(s.Items, item)
			s.Subtotal.Expected += list[i].ExpectedAmount
			s.Subtotal.Actual += list[i].TotalSettled
		}
	}
	for _, ve := range ml.VariableExpenses {
		s := section(ve.CategoryID)
		s.Expenses = append(s.Expenses, ve)
		s.Subtotal.Actual += ve.Amount
	}

	sections := make([]CategorySection, 0, len(byCategory))
	for _, s := range byCategory {
		if len(s.Items) == 0 && len(s.Expenses) == 0 {
			continue
		}
		sections = append(sections, *s)
	}
	sort.Slice(sections, func(i, j int) bool {
		oi, oj := order[sections[i].CategoryID], order[sections[j].CategoryID]
		if oi != oj {
			return oi < oj
		}
		return sections[i].CategoryName < sections[j].CategoryName
	})

	return &DetailedMonth{
		Month:    ml.Month,
		ReadOnly: ml.ReadOnly,
		Sections: sections,
		Summary:  ml.Summary,
		Leftover: ComputeLeftover(ml, sources),
	}
}

// newSectionItem derives overdue state from the earliest open occurrence
// past today.
func newSectionItem(in Instance, today Date) SectionItem {
	item := SectionItem{Instance: in}
	for _, o := range in.Occurrences {
		if o.IsClosed || !o.ExpectedDate.Before(today) {
			continue
		}
		days := today.DaysSince(o.ExpectedDate)
		if !item.IsOverdue || days > item.DaysOverdue {
			item.IsOverdue = true
			item.DaysOverdue = days
		}
	}
	return item
}
