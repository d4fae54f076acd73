package dto

import (
	"github.com/shopspring/decimal"

	"posagent/internal/input"
	"posagent/internal/model"
)

// ─── Register requests ───────────────────────────────────────────────────────

// FeedKeysRequest forwards a burst of raw keystrokes from the UI shell.
// The shell batches keys per animation frame, so bursts stay small.
type FeedKeysRequest struct {
	Keys []input.KeyEvent `json:"keys" validate:"required,min=1"`
}

type AddLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// EditLineRequest is a partial update; absent fields stay untouched.
type EditLineRequest struct {
	Quantity       *int             `json:"quantity"`
	Price          *decimal.Decimal `json:"price"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price"`
}

// FieldsRequest edits the pending checkout fields; absent fields stay
// untouched.
type FieldsRequest struct {
	MoveType            *string          `json:"move_type"`
	Discount            *decimal.Decimal `json:"discount"`
	Paid                *decimal.Decimal `json:"paid"`
	Installments        *int             `json:"installments"`
	InstallmentInterval *int             `json:"installment_interval"`
}

// PartyAttachRequest either references a persisted party or stages a new
// one; exactly one of the two must be set.
type PartyAttachRequest struct {
	PartyID  *int64       `json:"party_id"`
	NewParty *model.Party `json:"new_party"`
}

// CheckoutRequest triggers submission of the register's current state.
// Print asks for a receipt PDF on success (the F1 flow); plain submit (F2)
// leaves it false.
type CheckoutRequest struct {
	Print bool `json:"print"`
}

// AllocationCommitRequest carries the operator-confirmed lot split.
type AllocationCommitRequest struct {
	Batches []model.BatchSelection `json:"batches"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

// CheckoutResponse returns the backend's authoritative bill plus the
// rendered receipt path when printing was requested.
type CheckoutResponse struct {
	Bill        *model.Bill `json:"bill"`
	ReceiptPath string      `json:"receipt_path,omitempty"`
}
