/*
refdata.go - Payment source and category CRUD

PURPOSE:
  Reference collections live in their own documents ("sources",
  "categories"), mutated through the same per-key critical sections as
  month documents. Each mutation records the whole collection's before
  and after bytes, so undo restores the collection as a unit.
*/
package budget

import (
	"context"
	"encoding/json"

	"github.com/hearthledger/budget-engine/ledger"
)

// =============================================================================
// PAYMENT SOURCES
// =============================================================================

// ListSources returns every payment source.
func (s *Service) ListSources(ctx context.Context) ([]PaymentSource, error) {
	return ledger.ReadCollectionDoc[PaymentSource](ctx, s.store, ledger.KeySources)
}

// GetSource returns one source or ErrSourceNotFound.
func (s *Service) GetSource(ctx context.Context, id string) (*PaymentSource, error) {
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sources {
		if sources[i].ID == id {
			return &sources[i], nil
		}
	}
	return nil, ledger.ErrSourceNotFound
}

// CreateSourceInput carries the user-settable source fields.
type CreateSourceInput struct {
	Name                string       `json:"name"`
	Kind                SourceKind   `json:"kind"`
	Balance             ledger.Cents `json:"balance"`
	ExcludeFromLeftover bool         `json:"exclude_from_leftover"`
	PayOffMonthly       bool         `json:"pay_off_monthly"`
}

func (in CreateSourceInput) validate() error {
	if in.Name == "" {
		return ledger.Validationf("name", "required")
	}
	if in.Kind != SourceBank && in.Kind != SourceCredit {
		return ledger.Validationf("kind", "must be %q or %q", SourceBank, SourceCredit)
	}
	return nil
}

// CreateSource adds a payment source.
func (s *Service) CreateSource(ctx context.Context, in CreateSourceInput) (*PaymentSource, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	src := PaymentSource{
		ID:                  s.newID(),
		Name:                in.Name,
		Kind:                in.Kind,
		Balance:             in.Balance,
		ExcludeFromLeftover: in.ExcludeFromLeftover,
		PayOffMonthly:       in.PayOffMonthly,
		Active:              true,
		CreatedAt:           s.now(),
		UpdatedAt:           s.now(),
	}
	err := s.mutateSources(ctx, "source", src.ID, func(sources []PaymentSource) ([]PaymentSource, error) {
		return append(sources, src), nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("created source", "source_id", src.ID, "name", src.Name)
	return &src, nil
}

// UpdateSourceInput uses pointers so absent fields stay untouched.
type UpdateSourceInput struct {
	Name                *string       `json:"name,omitempty"`
	Kind                *SourceKind   `json:"kind,omitempty"`
	Balance             *ledger.Cents `json:"balance,omitempty"`
	ExcludeFromLeftover *bool         `json:"exclude_from_leftover,omitempty"`
	PayOffMonthly       *bool         `json:"pay_off_monthly,omitempty"`
	Active              *bool         `json:"active,omitempty"`
}

// UpdateSource patches a source. The current balance drives FUTURE
// payoff bills only; months already generated keep their snapshot.
func (s *Service) UpdateSource(ctx context.Context, id string, in UpdateSourceInput) (*PaymentSource, error) {
	var updated *PaymentSource
	err := s.mutateSources(ctx, "source", id, func(sources []PaymentSource) ([]PaymentSource, error) {
		for i := range sources {
			if sources[i].ID != id {
				continue
			}
			src := &sources[i]
			if in.Name != nil {
				if *in.Name == "" {
					return nil, ledger.Validationf("name", "must not be empty")
				}
				src.Name = *in.Name
			}
			if in.Kind != nil {
				if *in.Kind != SourceBank && *in.Kind != SourceCredit {
					return nil, ledger.Validationf("kind", "must be %q or %q", SourceBank, SourceCredit)
				}
				src.Kind = *in.Kind
			}
			if in.Balance != nil {
				src.Balance = *in.Balance
			}
			if in.ExcludeFromLeftover != nil {
				src.ExcludeFromLeftover = *in.ExcludeFromLeftover
			}
			if in.PayOffMonthly != nil {
				src.PayOffMonthly = *in.PayOffMonthly
			}
			if in.Active != nil {
				src.Active = *in.Active
			}
			src.UpdatedAt = s.now()
			cp := *src
			updated = &cp
			return sources, nil
		}
		return nil, ledger.ErrSourceNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSource removes a source. Months that reference it keep their
// data; its id simply stops resolving to a name.
func (s *Service) DeleteSource(ctx context.Context, id string) error {
	return s.mutateSources(ctx, "source", id, func(sources []PaymentSource) ([]PaymentSource, error) {
		for i := range sources {
			if sources[i].ID == id {
				return append(sources[:i], sources[i+1:]...), nil
			}
		}
		return nil, ledger.ErrSourceNotFound
	})
}

func (s *Service) mutateSources(ctx context.Context, entityType, entityID string, fn func([]PaymentSource) ([]PaymentSource, error)) error {
	return mutateCollection(ctx, s, ledger.KeySources, entityType, entityID, fn)
}

// =============================================================================
// CATEGORIES
// =============================================================================

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return ledger.ReadCollectionDoc[Category](ctx, s.store, ledger.KeyCategories)
}

// GetCategory returns one category or ErrCategoryNotFound.
func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	return nil, ledger.ErrCategoryNotFound
}

// CreateCategoryInput carries the user-settable category fields.
type CreateCategoryInput struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	SortOrder int    `json:"sort_order"`
}

// CreateCategory adds a display category.
func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryInput) (*Category, error) {
	if in.Name == "" {
		return nil, ledger.Validationf("name", "required")
	}
	cat := Category{
		ID:        s.newID(),
		Name:      in.Name,
		Kind:      in.Kind,
		SortOrder: in.SortOrder,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	err := s.mutateCategories(ctx, "category", cat.ID, func(categories []Category) ([]Category, error) {
		return append(categories, cat), nil
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategoryInput uses pointers so absent fields stay untouched.
type UpdateCategoryInput struct {
	Name      *string `json:"name,omitempty"`
	Kind      *string `json:"kind,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

// UpdateCategory patches a category.
func (s *Service) UpdateCategory(ctx context.Context, id string, in UpdateCategoryInput) (*Category, error) {
	var updated *Category
	err := s.mutateCategories(ctx, "category", id, func(categories []Category) ([]Category, error) {
		for i := range categories {
			if categories[i].ID != id {
				continue
			}
			cat := &categories[i]
			if in.Name != nil {
				if *in.Name == "" {
					return nil, ledger.Validationf("name", "must not be empty")
				}
				cat.Name = *in.Name
			}
			if in.Kind != nil {
				cat.Kind = *in.Kind
			}
			if in.SortOrder != nil {
				cat.SortOrder = *in.SortOrder
			}
			cat.UpdatedAt = s.now()
			cp := *cat
			updated = &cp
			return categories, nil
		}
		return nil, ledger.ErrCategoryNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCategory removes a category. Instances that reference it fall
// back to the uncategorized section of the detailed view.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.mutateCategories(ctx, "category", id, func(categories []Category) ([]Category, error) {
		for i := range categories {
			if categories[i].ID == id {
				return append(categories[:i], categories[i+1:]...), nil
			}
		}
		return nil, ledger.ErrCategoryNotFound
	})
}

func (s *Service) mutateCategories(ctx context.Context, entityType, entityID string, fn func([]Category) ([]Category, error)) error {
	return mutateCollection(ctx, s, ledger.KeyCategories, entityType, entityID, fn)
}

// =============================================================================
// SHARED COLLECTION MUTATION
// =============================================================================

// mutateCollection is the collection analogue of mutateMonth: typed
// read-modify-write inside the key's critical section, then an undo
// entry holding the whole collection's before/after bytes.
func mutateCollection[T any](ctx context.Context, s *Service, key, entityType, entityID string, fn func([]T) ([]T, error)) error {
	var oldRaw, newRaw []byte
	_, err := ledger.UpdateCollectionDoc(ctx, s.store, key, func(items []T) ([]T, error) {
		var err error
		if oldRaw, err = json.Marshal(items); err != nil {
			return nil, &ledger.StorageError{Op: "encode", Key: key, Err: err}
		}
		next, err := fn(items)
		if err != nil {
			return nil, err
		}
		if newRaw, err = json.Marshal(next); err != nil {
			return nil, &ledger.StorageError{Op: "encode", Key: key, Err: err}
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	if s.undo != nil {
		s.undo.Record(ctx, entityType, entityID, key, oldRaw, newRaw)
	}
	return nil
}
