/*
dto.go - Request and response shapes for the HTTP API

PURPOSE:
  The API mostly serves domain types directly — month documents, the
  detailed view, templates — because their JSON tags ARE the persisted
  and public contract. What lives here is the thin extra layer: request
  bodies that don't map 1:1 onto a domain type, and the error envelope.

NAMING CONVENTION:
  - *Request: request body types from clients
  - ErrorResponse: the uniform error envelope

SEE ALSO:
  - handlers.go: uses these types
  - budget package: the *Input types reused as request bodies
*/
package api

import (
	"github.com/hearthledger/budget-engine/ledger"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GenerateMonthRequest creates a month ledger.
type GenerateMonthRequest struct {
	Month ledger.Month `json:"month"`
}

// CloseRequest carries the optional fields of a close operation.
// Omitted closed_date defaults to the server's local today.
type CloseRequest struct {
	ClosedDate      *ledger.Date `json:"closed_date,omitempty"`
	PaymentSourceID string       `json:"payment_source_id,omitempty"`
}

// AmountRequest updates an occurrence's expected amount.
type AmountRequest struct {
	ExpectedAmount ledger.Cents `json:"expected_amount"`
}

// BalanceRequest records a month's balance snapshot for one source.
type BalanceRequest struct {
	Balance ledger.Cents `json:"balance"`
}

// UndoResponse describes what an undo reverted.
type UndoResponse struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	StorageKey string `json:"storage_key"`
}
