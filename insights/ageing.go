/*
ageing.go - Overdue occurrence ageing report

PURPOSE:
  Buckets every open, past-due occurrence by how long it has been
  overdue. The detailed month view flags overdue instances; this report
  answers "how overdue, and how much money is sitting there".
*/
package insights

import (
	"sort"

	"github.com/hearthledger/budget-engine/ledger"
)

// AgeBucket labels a days-overdue range.
type AgeBucket string

const (
	BucketWeek  AgeBucket = "1-7"
	BucketMonth AgeBucket = "8-30"
	BucketStale AgeBucket = "31+"
)

func bucketFor(days int) AgeBucket {
	switch {
	case days <= 7:
		return BucketWeek
	case days <= 30:
		return BucketMonth
	default:
		return BucketStale
	}
}

// OverdueItem is one open occurrence past its expected date.
type OverdueItem struct {
	InstanceID   string       `json:"instance_id"`
	Name         string       `json:"name"`
	Role         ledger.Role  `json:"role"`
	OccurrenceID string       `json:"occurrence_id"`
	ExpectedDate ledger.Date  `json:"expected_date"`
	Amount       ledger.Cents `json:"amount"`
	DaysOverdue  int          `json:"days_overdue"`
	Bucket       AgeBucket    `json:"bucket"`
}

// OverdueReport aggregates a month's overdue occurrences.
type OverdueReport struct {
	Month        ledger.Month               `json:"month"`
	Items        []OverdueItem              `json:"items"`
	TotalOverdue ledger.Cents               `json:"total_overdue"`
	ByBucket     map[AgeBucket]ledger.Cents `json:"by_bucket"`
}

// BuildOverdueReport scans both roles for open occurrences strictly
// before today. Closed occurrences never age, whatever their date.
func BuildOverdueReport(ml *ledger.MonthLedger, today ledger.Date) OverdueReport {
	rep := OverdueReport{
		Month:    ml.Month,
		Items:    []OverdueItem{},
		ByBucket: map[AgeBucket]ledger.Cents{},
	}
	scan := func(list []ledger.Instance) {
		for i := range list {
			inst := &list[i]
			for _, occ := range inst.Occurrences {
				if occ.IsClosed || !occ.ExpectedDate.Before(today) {
					continue
				}
				days := today.DaysSince(occ.ExpectedDate)
				item := OverdueItem{
					InstanceID:   inst.ID,
					Name:         inst.Name,
					Role:         inst.Role,
					OccurrenceID: occ.ID,
					ExpectedDate: occ.ExpectedDate,
					Amount:       occ.ExpectedAmount,
					DaysOverdue:  days,
					Bucket:       bucketFor(days),
				}
				rep.Items = append(rep.Items, item)
				rep.TotalOverdue += occ.ExpectedAmount
				rep.ByBucket[item.Bucket] += occ.ExpectedAmount
			}
		}
	}
	scan(ml.Bills)
	scan(ml.Incomes)

	// Most overdue first; stable tiebreak on name for deterministic output.
	sort.SliceStable(rep.Items, func(a, b int) bool {
		if rep.Items[a].DaysOverdue != rep.Items[b].DaysOverdue {
			return rep.Items[a].DaysOverdue > rep.Items[b].DaysOverdue
		}
		return rep.Items[a].Name < rep.Items[b].Name
	})
	return rep
}
