/*
handlers.go - HTTP handlers for the budget engine

PURPOSE:
  Exposes the budgeting service over REST. Handlers parse and validate
  the HTTP shape, delegate to the budget.Service, and map domain errors
  to status codes. No business logic lives here.

ENDPOINTS:
  Months:
    GET    /api/months                          List month keys
    POST   /api/months                          Generate a month
    GET    /api/months/{month}                  Raw month document
    GET    /api/months/{month}/detail           Category sections + leftover
    GET    /api/months/{month}/overdue          Overdue ageing report
    POST   /api/months/{month}/sync             Reconcile with templates
    POST   /api/months/{month}/lock             Set read-only
    POST   /api/months/{month}/unlock           Clear read-only
    DELETE /api/months/{month}                  Delete month

  Instances and occurrences:
    POST   /api/months/{month}/instances        Add ad-hoc instance
    DELETE /api/months/{month}/instances/{id}   Remove instance (tombstones)
    POST   .../instances/{id}/close             Close whole instance
    POST   .../instances/{id}/occurrences       Add ad-hoc occurrence
    POST   .../occurrences/{occ}/close          Close occurrence
    POST   .../occurrences/{occ}/reopen         Reopen occurrence
    PUT    .../occurrences/{occ}                Edit expected amount
    DELETE .../occurrences/{occ}                Remove occurrence

  Everything else: variable expenses, balances, templates, sources,
  categories, undo, insights, backup — see server.go for the full route
  table.

ERROR MAPPING:
  400 validation        404 not found        409 conflict
  423 month locked      500 storage/internal
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthledger/budget-engine/budget"
	"github.com/hearthledger/budget-engine/insights"
	"github.com/hearthledger/budget-engine/ledger"
)

// Handler holds the handlers' dependencies.
type Handler struct {
	Service *budget.Service
}

// NewHandler creates a handler around the service.
func NewHandler(svc *budget.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// MONTH HANDLERS
// =============================================================================

// ListMonths returns every stored month key, ascending.
func (h *Handler) ListMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.Service.ListMonths(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = m.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": keys})
}

// GenerateMonth creates a fresh month ledger from the active templates.
func (h *Handler) GenerateMonth(w http.ResponseWriter, r *http.Request) {
	var req GenerateMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Month.IsZero() {
		writeError(w, http.StatusBadRequest, "month is required (YYYY-MM)", nil)
		return
	}
	ml, err := h.Service.GenerateMonth(r.Context(), req.Month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ml)
}

// GetMonth returns the raw month document.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.GetMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// GetDetailedMonth returns the category-section view with leftover.
func (h *Handler) GetDetailedMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	dm, err := h.Service.GetDetailedMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dm)
}

// GetOverdueReport returns the month's overdue ageing buckets.
func (h *Handler) GetOverdueReport(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.GetMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights.BuildOverdueReport(ml, ledger.Today()))
}

// SyncMonth reconciles the month with templates added since generation.
func (h *Handler) SyncMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	res, err := h.Service.SyncMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LockMonth makes the month read-only.
func (h *Handler) LockMonth(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, true)
}

// UnlockMonth clears the read-only flag.
func (h *Handler) UnlockMonth(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, false)
}

func (h *Handler) setLock(w http.ResponseWriter, r *http.Request, lock bool) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	var ml *ledger.MonthLedger
	var err error
	if lock {
		ml, err = h.Service.LockMonth(r.Context(), month)
	} else {
		ml, err = h.Service.UnlockMonth(r.Context(), month)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// DeleteMonth removes the whole month document.
func (h *Handler) DeleteMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteMonth(r.Context(), month); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// INSTANCE / OCCURRENCE HANDLERS
// =============================================================================

// AddAdhocInstance adds a one-off instance to the month.
func (h *Handler) AddAdhocInstance(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	var in budget.AddAdhocInstanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ml, err := h.Service.AddAdhocInstance(r.Context(), month, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ml)
}

// RemoveInstance deletes an instance from the month.
func (h *Handler) RemoveInstance(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.RemoveInstance(r.Context(), month, chi.URLParam(r, "instanceID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// CloseInstance closes every open occurrence of the instance.
func (h *Handler) CloseInstance(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	opts, ok := closeOptions(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.CloseInstance(r.Context(), month, chi.URLParam(r, "instanceID"), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// AddAdhocOccurrence appends an occurrence to an instance.
func (h *Handler) AddAdhocOccurrence(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	var in budget.AddOccurrenceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ml, err := h.Service.AddAdhocOccurrence(r.Context(), month, chi.URLParam(r, "instanceID"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ml)
}

// CloseOccurrence settles one occurrence.
func (h *Handler) CloseOccurrence(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	opts, ok := closeOptions(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.CloseOccurrence(r.Context(), month,
		chi.URLParam(r, "instanceID"), chi.URLParam(r, "occurrenceID"), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// ReopenOccurrence reverses a close.
func (h *Handler) ReopenOccurrence(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.ReopenOccurrence(r.Context(), month,
		chi.URLParam(r, "instanceID"), chi.URLParam(r, "occurrenceID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// UpdateOccurrenceAmount edits an occurrence's expected amount.
func (h *Handler) UpdateOccurrenceAmount(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ml, err := h.Service.UpdateOccurrenceAmount(r.Context(), month,
		chi.URLParam(r, "instanceID"), chi.URLParam(r, "occurrenceID"), req.ExpectedAmount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// RemoveOccurrence deletes an occurrence.
func (h *Handler) RemoveOccurrence(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.RemoveOccurrence(r.Context(), month,
		chi.URLParam(r, "instanceID"), chi.URLParam(r, "occurrenceID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// =============================================================================
// VARIABLE EXPENSES AND BALANCES
// =============================================================================

// AddVariableExpense records an ad-hoc spend.
func (h *Handler) AddVariableExpense(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	var in budget.AddVariableExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ml, err := h.Service.AddVariableExpense(r.Context(), month, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ml)
}

// RemoveVariableExpense deletes an ad-hoc spend.
func (h *Handler) RemoveVariableExpense(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	ml, err := h.Service.RemoveVariableExpense(r.Context(), month, chi.URLParam(r, "expenseID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// SetBankBalance records the month's snapshot for one source.
func (h *Handler) SetBankBalance(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	var req BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ml, err := h.Service.SetBankBalance(r.Context(), month, chi.URLParam(r, "sourceID"), req.Balance)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ml)
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

// ListTemplates returns the role's templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	templates, err := h.Service.ListTemplates(r.Context(), role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if templates == nil {
		templates = []ledger.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// CreateTemplate stores a new template.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in budget.CreateTemplateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	tpl, err := h.Service.CreateTemplate(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// GetTemplate returns one template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	tpl, err := h.Service.GetTemplate(r.Context(), role, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// UpdateTemplate patches a template.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	var in budget.UpdateTemplateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	tpl, err := h.Service.UpdateTemplate(r.Context(), role, chi.URLParam(r, "id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// DeleteTemplate removes a template.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteTemplate(r.Context(), role, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// SOURCE HANDLERS
// =============================================================================

// ListSources returns every payment source.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Service.ListSources(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sources == nil {
		sources = []budget.PaymentSource{}
	}
	writeJSON(w, http.StatusOK, sources)
}

// CreateSource adds a payment source.
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var in budget.CreateSourceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	src, err := h.Service.CreateSource(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

// UpdateSource patches a payment source.
func (h *Handler) UpdateSource(w http.ResponseWriter, r *http.Request) {
	var in budget.UpdateSourceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	src, err := h.Service.UpdateSource(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

// DeleteSource removes a payment source.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSource(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns every category.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if categories == nil {
		categories = []budget.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory adds a category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in budget.CreateCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cat, err := h.Service.CreateCategory(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// UpdateCategory patches a category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in budget.UpdateCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cat, err := h.Service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory removes a category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// UNDO, INSIGHTS, BACKUP
// =============================================================================

// Undo reverts the most recent mutation.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.Undo().Undo(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UndoResponse{
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		StorageKey: entry.StorageKey,
	})
}

// ListUndoEntries returns the undo stack, oldest first.
func (h *Handler) ListUndoEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Undo().Entries(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []budget.UndoEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetCommitments returns the long-run monthly commitment summary.
func (h *Handler) GetCommitments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bills, err := h.Service.ListTemplates(ctx, ledger.RoleBill)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	incomes, err := h.Service.ListTemplates(ctx, ledger.RoleIncome)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights.EstimateCommitments(bills, incomes))
}

// ExportBackup returns the whole dataset as one snapshot.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Export(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ImportBackup replaces the dataset from a snapshot.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var b budget.Backup
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Service.Import(r.Context(), &b); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case ledger.IsReadOnly(err):
		writeError(w, http.StatusLocked, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// monthParam parses the {month} path segment; writes a 400 on failure.
func monthParam(w http.ResponseWriter, r *http.Request) (ledger.Month, bool) {
	m, err := ledger.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return ledger.Month{}, false
	}
	return m, true
}

// roleParam parses the {role} path segment ("bills" or "incomes", with
// the singular forms accepted too).
func roleParam(w http.ResponseWriter, r *http.Request) (ledger.Role, bool) {
	switch chi.URLParam(r, "role") {
	case "bills", "bill":
		return ledger.RoleBill, true
	case "incomes", "income":
		return ledger.RoleIncome, true
	}
	writeError(w, http.StatusBadRequest, `role must be "bills" or "incomes"`, nil)
	return "", false
}

// closeOptions decodes an optional close body. An empty body is legal
// and means "close today with the planned source".
func closeOptions(w http.ResponseWriter, r *http.Request) (budget.CloseOptions, bool) {
	var req CloseRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return budget.CloseOptions{}, false
		}
	}
	return budget.CloseOptions{ClosedDate: req.ClosedDate, PaymentSourceID: req.PaymentSourceID}, true
}
