/*
templates.go - Recurring bill/income template CRUD

PURPOSE:
  Templates are the recurring definitions months are generated from.
  Bills and incomes live in separate collection documents but share the
  ledger.Template shape; the role picks the document.

START DATE IMMUTABILITY:
  Stride periods (weekly, bi-weekly) derive every future occurrence from
  the start date. Editing it would silently reflow all future months, so
  it is rejected; the recovery path is deactivate + create anew.

PROPAGATION:
  Template edits never touch existing months. Instances are snapshots by
  design; SyncMonth picks up templates a month has never seen, and it
  alone.
*/
package budget

import (
	"context"

	"github.com/hearthledger/budget-engine/ledger"
)

// ListTemplates returns every template for the role, active or not.
func (s *Service) ListTemplates(ctx context.Context, role ledger.Role) ([]ledger.Template, error) {
	if !role.Valid() {
		return nil, ledger.Validationf("role", "must be %q or %q", ledger.RoleBill, ledger.RoleIncome)
	}
	return ledger.ReadCollectionDoc[ledger.Template](ctx, s.store, templateKey(role))
}

// GetTemplate returns one template or ErrTemplateNotFound.
func (s *Service) GetTemplate(ctx context.Context, role ledger.Role, id string) (*ledger.Template, error) {
	templates, err := s.ListTemplates(ctx, role)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, ledger.ErrTemplateNotFound
}

// CreateTemplateInput carries the user-settable template fields.
type CreateTemplateInput struct {
	Role            ledger.Role          `json:"role"`
	Name            string               `json:"name"`
	Amount          ledger.Cents         `json:"amount"`
	Period          ledger.BillingPeriod `json:"period"`
	Anchor          ledger.Anchor        `json:"anchor"`
	StartDate       *ledger.Date         `json:"start_date,omitempty"`
	PaymentSourceID string               `json:"payment_source_id,omitempty"`
	CategoryID      string               `json:"category_id,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// CreateTemplate validates and stores a new template. New templates
// start active and affect only months generated or synced afterwards.
func (s *Service) CreateTemplate(ctx context.Context, in CreateTemplateInput) (*ledger.Template, error) {
	now := s.now()
	tpl := ledger.Template{
		ID:              s.newID(),
		Role:            in.Role,
		Name:            in.Name,
		Amount:          in.Amount,
		Period:          in.Period,
		Anchor:          in.Anchor,
		StartDate:       in.StartDate,
		PaymentSourceID: in.PaymentSourceID,
		CategoryID:      in.CategoryID,
		Notes:           in.Notes,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	err := mutateCollection(ctx, s, templateKey(tpl.Role), "template", tpl.ID, func(templates []ledger.Template) ([]ledger.Template, error) {
		return append(templates, tpl), nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("created template", "template_id", tpl.ID, "role", string(tpl.Role), "name", tpl.Name)
	return &tpl, nil
}

// UpdateTemplateInput uses pointers so absent fields stay untouched.
// There is deliberately no StartDate field.
type UpdateTemplateInput struct {
	Name            *string               `json:"name,omitempty"`
	Amount          *ledger.Cents         `json:"amount,omitempty"`
	Period          *ledger.BillingPeriod `json:"period,omitempty"`
	Anchor          *ledger.Anchor        `json:"anchor,omitempty"`
	PaymentSourceID *string               `json:"payment_source_id,omitempty"`
	CategoryID      *string               `json:"category_id,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	Active          *bool                 `json:"active,omitempty"`
}

// UpdateTemplate patches a template and revalidates the result. Changing
// the period to one that needs a start date fails unless the template
// already carries one.
func (s *Service) UpdateTemplate(ctx context.Context, role ledger.Role, id string, in UpdateTemplateInput) (*ledger.Template, error) {
	if !role.Valid() {
		return nil, ledger.Validationf("role", "must be %q or %q", ledger.RoleBill, ledger.RoleIncome)
	}
	var updated *ledger.Template
	err := mutateCollection(ctx, s, templateKey(role), "template", id, func(templates []ledger.Template) ([]ledger.Template, error) {
		for i := range templates {
			if templates[i].ID != id {
				continue
			}
			tpl := &templates[i]
			if in.Name != nil {
				tpl.Name = *in.Name
			}
			if in.Amount != nil {
				tpl.Amount = *in.Amount
			}
			if in.Period != nil {
				tpl.Period = *in.Period
			}
			if in.Anchor != nil {
				tpl.Anchor = *in.Anchor
			}
			if in.PaymentSourceID != nil {
				tpl.PaymentSourceID = *in.PaymentSourceID
			}
			if in.CategoryID != nil {
				tpl.CategoryID = *in.CategoryID
			}
			if in.Notes != nil {
				tpl.Notes = *in.Notes
			}
			if in.Active != nil {
				tpl.Active = *in.Active
			}
			tpl.UpdatedAt = s.now()
			if err := tpl.Validate(); err != nil {
				return nil, err
			}
			cp := *tpl
			updated = &cp
			return templates, nil
		}
		return nil, ledger.ErrTemplateNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateTemplate is the soft alternative to deletion: the template
// stops appearing in new generations and syncs but stays referenceable
// from historical months.
func (s *Service) DeactivateTemplate(ctx context.Context, role ledger.Role, id string) (*ledger.Template, error) {
	inactive := false
	return s.UpdateTemplate(ctx, role, id, UpdateTemplateInput{Active: &inactive})
}

// DeleteTemplate removes a template outright. Instances already
// generated from it keep their snapshot data.
func (s *Service) DeleteTemplate(ctx context.Context, role ledger.Role, id string) error {
	if !role.Valid() {
		return ledger.Validationf("role", "must be %q or %q", ledger.RoleBill, ledger.RoleIncome)
	}
	return mutateCollection(ctx, s, templateKey(role), "template", id, func(templates []ledger.Template) ([]ledger.Template, error) {
		for i := range templates {
			if templates[i].ID == id {
				return append(templates[:i], templates[i+1:]...), nil
			}
		}
		return nil, ledger.ErrTemplateNotFound
	})
}
