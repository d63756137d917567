/*
Package insights derives statistics from templates and months.

PURPOSE:
  Everything here is fractional math that deliberately stays OUT of the
  ledger engine: monthly-equivalent estimates for non-monthly periods,
  savings rate, overdue ageing. The engine keeps money as integer cents;
  this package uses decimal.Decimal for the rates and rounds back to
  cents only at the edge.

RATES:
  A weekly bill hits 52 times a year, a bi-weekly one 26, a semi-annual
  one twice. Spread over 12 months:

    monthly        1
    weekly         52/12
    bi_weekly      26/12
    semi_annually  2/12

  These are long-run averages; any single month holds a whole number of
  occurrences (4 or 5 weekly, 2 or 3 bi-weekly).
*/
package insights

import (
	"github.com/shopspring/decimal"

	"github.com/hearthledger/budget-engine/ledger"
)

var (
	twelve = decimal.NewFromInt(12)

	rateMonthly      = decimal.NewFromInt(1)
	rateWeekly       = decimal.NewFromInt(52).Div(twelve)
	rateBiWeekly     = decimal.NewFromInt(26).Div(twelve)
	rateSemiAnnually = decimal.NewFromInt(2).Div(twelve)
)

// MonthlyRate returns the long-run average occurrences per month for a
// billing period.
func MonthlyRate(p ledger.BillingPeriod) decimal.Decimal {
	switch p {
	case ledger.PeriodWeekly:
		return rateWeekly
	case ledger.PeriodBiWeekly:
		return rateBiWeekly
	case ledger.PeriodSemiAnnually:
		return rateSemiAnnually
	default:
		return rateMonthly
	}
}

// MonthlyEquivalent converts a template amount to its long-run monthly
// cost, rounded to whole cents (half up).
func MonthlyEquivalent(amount ledger.Cents, p ledger.BillingPeriod) ledger.Cents {
	v := decimal.NewFromInt(int64(amount)).Mul(MonthlyRate(p)).Round(0)
	return ledger.Cents(v.IntPart())
}

// TemplateEstimate is one template's contribution to the commitment
// summary.
type TemplateEstimate struct {
	TemplateID        string               `json:"template_id"`
	Name              string               `json:"name"`
	Role              ledger.Role          `json:"role"`
	Period            ledger.BillingPeriod `json:"period"`
	Amount            ledger.Cents         `json:"amount"`
	MonthlyEquivalent ledger.Cents         `json:"monthly_equivalent"`
}

// CommitmentSummary is the long-run monthly picture across all active
// templates.
type CommitmentSummary struct {
	MonthlyBills  ledger.Cents       `json:"monthly_bills"`
	MonthlyIncome ledger.Cents       `json:"monthly_income"`
	Net           ledger.Cents       `json:"net"`
	Templates     []TemplateEstimate `json:"templates"`
}

// EstimateCommitments computes monthly equivalents for every active
// template. Inactive templates are not commitments.
func EstimateCommitments(bills, incomes []ledger.Template) CommitmentSummary {
	sum := CommitmentSummary{Templates: []TemplateEstimate{}}
	add := func(templates []ledger.Template) {
		for _, tpl := range templates {
			if !tpl.Active {
				continue
			}
			est := TemplateEstimate{
				TemplateID:        tpl.ID,
				Name:              tpl.Name,
				Role:              tpl.Role,
				Period:            tpl.Period,
				Amount:            tpl.Amount,
				MonthlyEquivalent: MonthlyEquivalent(tpl.Amount, tpl.Period),
			}
			sum.Templates = append(sum.Templates, est)
			if tpl.Role == ledger.RoleIncome {
				sum.MonthlyIncome += est.MonthlyEquivalent
			} else {
				sum.MonthlyBills += est.MonthlyEquivalent
			}
		}
	}
	add(bills)
	add(incomes)
	sum.Net = sum.MonthlyIncome - sum.MonthlyBills
	return sum
}

// SavingsRate returns settled savings as a fraction of settled income
// for the month: (income - bills - variable) / income. ok is false when
// nothing has been received yet (a rate over zero income is undefined).
func SavingsRate(ml *ledger.MonthLedger) (rate decimal.Decimal, ok bool) {
	income := decimal.NewFromInt(int64(ml.Summary.Incomes.Settled))
	if income.IsZero() || income.IsNegative() {
		return decimal.Zero, false
	}
	spent := decimal.NewFromInt(int64(ml.Summary.Bills.Settled + ml.Summary.VariableExpenses))
	return income.Sub(spent).Div(income), true
}
