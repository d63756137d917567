/*
instance.go - The unified bill/income instance and its payment state machine

PURPOSE:
  An Instance is the materialized form of a template for one month: the
  occurrences the month expects, plus aggregates derived from them. Bills
  and incomes share this shape; Role only changes labels and the wire
  name of the settled total (total_paid vs total_received).

STATE MACHINE:
  Each occurrence is Open (initial) or Closed (terminal but reversible).
  Closing records "this expected amount was fully settled" — the model
  has no separate partial-payment sub-ledger. Every transition ends with
  Recompute(), which re-derives:

    expected_amount = sum of occurrence expected amounts
    settled total   = sum of CLOSED occurrence expected amounts
    remaining       = max(0, expected - settled)
    is_closed       = every occurrence closed (and at least one exists)

  Derived aggregates are projections of occurrence state. They are
  recomputed after every transition and never mutated independently, so
  they cannot desync from the occurrences.

METADATA SNAPSHOT:
  Name/category/source/period are copied from the template at generation
  time. Renaming a template later must not retroactively relabel
  historical months.
*/
package ledger

import "encoding/json"

// =============================================================================
// OCCURRENCE - The atomic unit of "paid"/"received"
// =============================================================================

// Occurrence is a single expected payment/receipt event inside a month.
// Sequence is 1-based and contiguous within the owning instance.
type Occurrence struct {
	ID              string `json:"id"`
	Sequence        int    `json:"sequence"`
	ExpectedDate    Date   `json:"expected_date"`
	ExpectedAmount  Cents  `json:"expected_amount"`
	IsClosed        bool   `json:"is_closed"`
	ClosedDate      *Date  `json:"closed_date,omitempty"`
	PaymentSourceID string `json:"payment_source_id,omitempty"`
	Notes           string `json:"notes,omitempty"`
	IsAdhoc         bool   `json:"is_adhoc,omitempty"`
}

// =============================================================================
// INSTANCE - One bill or income within a month
// =============================================================================

// Instance is the per-month materialization of a bill or income.
// TemplateID is empty for ad-hoc instances and synthesized payoff bills.
type Instance struct {
	ID              string        `json:"id"`
	TemplateID      string        `json:"template_id,omitempty"`
	Role            Role          `json:"role"`
	Name            string        `json:"name"`
	Period          BillingPeriod `json:"billing_period"`
	CategoryID      string        `json:"category_id,omitempty"`
	PaymentSourceID string        `json:"payment_source_id,omitempty"`
	Notes           string        `json:"notes,omitempty"`

	ExpectedAmount Cents        `json:"expected_amount"`
	Occurrences    []Occurrence `json:"occurrences"`

	// Derived aggregates — recomputed by Recompute(), never set directly.
	// TotalSettled marshals as total_paid (bills) or total_received
	// (incomes); see MarshalJSON.
	TotalSettled           Cents `json:"-"`
	Remaining              Cents `json:"remaining"`
	IsClosed               bool  `json:"is_closed"`
	IsExtraOccurrenceMonth bool  `json:"is_extra_occurrence_month,omitempty"`

	IsAdhoc        bool   `json:"is_adhoc,omitempty"`
	IsPayoff       bool   `json:"is_payoff,omitempty"`
	PayoffSourceID string `json:"payoff_source_id,omitempty"`
}

// NewInstance materializes a template's generated occurrences, copying
// the display metadata snapshot. newID supplies occurrence/instance ids.
func NewInstance(tpl *Template, occs []GeneratedOccurrence, newID func() string) *Instance {
	inst := &Instance{
		ID:              newID(),
		TemplateID:      tpl.ID,
		Role:            tpl.Role,
		Name:            tpl.Name,
		Period:          tpl.Period,
		CategoryID:      tpl.CategoryID,
		PaymentSourceID: tpl.PaymentSourceID,
	}
	for _, g := range occs {
		inst.Occurrences = append(inst.Occurrences, Occurrence{
			ID:              newID(),
			Sequence:        g.Sequence,
			ExpectedDate:    g.ExpectedDate,
			ExpectedAmount:  g.ExpectedAmount,
			PaymentSourceID: tpl.PaymentSourceID,
		})
	}
	inst.Recompute()
	return inst
}

// Recompute re-derives every aggregate from occurrence state.
// Call after every transition; cheap enough to never skip.
func (in *Instance) Recompute() {
	var expected, settled Cents
	closed := len(in.Occurrences) > 0
	for _, o := range in.Occurrences {
		expected += o.ExpectedAmount
		if o.IsClosed {
			settled += o.ExpectedAmount
		} else {
			closed = false
		}
	}
	in.ExpectedAmount = expected
	in.TotalSettled = settled
	in.Remaining = (expected - settled).ClampFloor()
	in.IsClosed = closed
	in.IsExtraOccurrenceMonth = IsExtraOccurrenceMonth(in.Period, len(in.Occurrences))
}

// FindOccurrence returns the occurrence with the given id.
func (in *Instance) FindOccurrence(occurrenceID string) (*Occurrence, error) {
	for i := range in.Occurrences {
		if in.Occurrences[i].ID == occurrenceID {
			return &in.Occurrences[i], nil
		}
	}
	return nil, ErrOccurrenceNotFound
}

// CloseOccurrence transitions Open -> Closed. closedDate must already be
// resolved by the caller (explicit override or local "today"). An empty
// sourceID keeps the occurrence's existing payment source.
func (in *Instance) CloseOccurrence(occurrenceID string, closedDate Date, sourceID string) error {
	occ, err := in.FindOccurrence(occurrenceID)
	if err != nil {
		return err
	}
	occ.IsClosed = true
	occ.ClosedDate = &closedDate
	if sourceID != "" {
		occ.PaymentSourceID = sourceID
	}
	in.Recompute()
	return nil
}

// ReopenOccurrence transitions Closed -> Open. The payment source is
// deliberately left untouched; reopening must not retroactively change
// which source was used unless the user edits it explicitly.
func (in *Instance) ReopenOccurrence(occurrenceID string) error {
	occ, err := in.FindOccurrence(occurrenceID)
	if err != nil {
		return err
	}
	occ.IsClosed = false
	occ.ClosedDate = nil
	in.Recompute()
	return nil
}

// UpdateOccurrenceAmount edits the expected amount. Legal in either
// state: expected totals change regardless of paid status, so aggregates
// are recomputed either way.
func (in *Instance) UpdateOccurrenceAmount(occurrenceID string, amount Cents) error {
	if amount.IsNegative() {
		return Validationf("expected_amount", "must not be negative")
	}
	occ, err := in.FindOccurrence(occurrenceID)
	if err != nil {
		return err
	}
	occ.ExpectedAmount = amount
	in.Recompute()
	return nil
}

// AddAdhocOccurrence appends a user-added occurrence with the next
// sequence number. Ad-hoc instances (no template) hold only these.
func (in *Instance) AddAdhocOccurrence(occ Occurrence) error {
	if occ.ExpectedAmount.IsNegative() {
		return Validationf("expected_amount", "must not be negative")
	}
	occ.Sequence = len(in.Occurrences) + 1
	occ.IsAdhoc = true
	in.Occurrences = append(in.Occurrences, occ)
	in.Recompute()
	return nil
}

// RemoveOccurrence deletes an occurrence and renumbers the rest so
// sequences stay contiguous.
func (in *Instance) RemoveOccurrence(occurrenceID string) error {
	idx := -1
	for i := range in.Occurrences {
		if in.Occurrences[i].ID == occurrenceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrOccurrenceNotFound
	}
	in.Occurrences = append(in.Occurrences[:idx], in.Occurrences[idx+1:]...)
	for i := range in.Occurrences {
		in.Occurrences[i].Sequence = i + 1
	}
	in.Recompute()
	return nil
}

// CloseAll closes every open occurrence with the same closed date —
// the "close whole instance" shortcut. Instance-level is_closed stays a
// projection: it becomes true because the occurrences did.
func (in *Instance) CloseAll(closedDate Date) {
	for i := range in.Occurrences {
		if !in.Occurrences[i].IsClosed {
			in.Occurrences[i].IsClosed = true
			d := closedDate
			in.Occurrences[i].ClosedDate = &d
		}
	}
	in.Recompute()
}

// =============================================================================
// SERIALIZATION - role-dependent settled-total field name
// =============================================================================

// instanceWire mirrors Instance with both settled-total spellings.
// Historical month documents use total_paid for bills and total_received
// for incomes; the engine keeps that contract on the wire while using
// one field internally.
type instanceWire struct {
	ID              string        `json:"id"`
	TemplateID      string        `json:"template_id,omitempty"`
	Role            Role          `json:"role"`
	Name            string        `json:"name"`
	Period          BillingPeriod `json:"billing_period"`
	CategoryID      string        `json:"category_id,omitempty"`
	PaymentSourceID string        `json:"payment_source_id,omitempty"`
	Notes           string        `json:"notes,omitempty"`

	ExpectedAmount Cents        `json:"expected_amount"`
	Occurrences    []Occurrence `json:"occurrences"`

	TotalPaid     *Cents `json:"total_paid,omitempty"`
	TotalReceived *Cents `json:"total_received,omitempty"`

	Remaining              Cents `json:"remaining"`
	IsClosed               bool  `json:"is_closed"`
	IsExtraOccurrenceMonth bool  `json:"is_extra_occurrence_month,omitempty"`

	IsAdhoc        bool   `json:"is_adhoc,omitempty"`
	IsPayoff       bool   `json:"is_payoff,omitempty"`
	PayoffSourceID string `json:"payoff_source_id,omitempty"`
}

func (in Instance) MarshalJSON() ([]byte, error) {
	w := instanceWire{
		ID:                     in.ID,
		TemplateID:             in.TemplateID,
		Role:                   in.Role,
		Name:                   in.Name,
		Period:                 in.Period,
		CategoryID:             in.CategoryID,
		PaymentSourceID:        in.PaymentSourceID,
		Notes:                  in.Notes,
		ExpectedAmount:         in.ExpectedAmount,
		Occurrences:            in.Occurrences,
		Remaining:              in.Remaining,
		IsClosed:               in.IsClosed,
		IsExtraOccurrenceMonth: in.IsExtraOccurrenceMonth,
		IsAdhoc:                in.IsAdhoc,
		IsPayoff:               in.IsPayoff,
		PayoffSourceID:         in.PayoffSourceID,
	}
	settled := in.TotalSettled
	if in.Role == RoleIncome {
		w.TotalReceived = &settled
	} else {
		w.TotalPaid = &settled
	}
	return json.Marshal(w)
}

func (in *Instance) UnmarshalJSON(data []byte) error {
	var w instanceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*in = Instance{
		ID:                     w.ID,
		TemplateID:             w.TemplateID,
		Role:                   w.Role,
		Name:                   w.Name,
		Period:                 w.Period,
		CategoryID:             w.CategoryID,
		PaymentSourceID:        w.PaymentSourceID,
		Notes:                  w.Notes,
		ExpectedAmount:         w.ExpectedAmount,
		Occurrences:            w.Occurrences,
		Remaining:              w.Remaining,
		IsClosed:               w.IsClosed,
		IsExtraOccurrenceMonth: w.IsExtraOccurrenceMonth,
		IsAdhoc:                w.IsAdhoc,
		IsPayoff:               w.IsPayoff,
		PayoffSourceID:         w.PayoffSourceID,
	}
	switch {
	case w.TotalReceived != nil:
		in.TotalSettled = *w.TotalReceived
	case w.TotalPaid != nil:
		in.TotalSettled = *w.TotalPaid
	}
	return nil
}
