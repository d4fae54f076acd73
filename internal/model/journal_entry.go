package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal entry statuses. An entry is created as pending before the upstream
// call and resolved to exactly one terminal status afterwards. Ambiguous
// means the call failed in a way that cannot distinguish "never reached the
// backend" from "applied but the response was lost" — the operator must
// reconcile against the backend's bills list.
const (
	JournalPending   = "pending"
	JournalSucceeded = "succeeded"
	JournalAmbiguous = "ambiguous"
)

// JournalEntry is the local audit record of one checkout attempt.
// Entries are immutable apart from the pending → terminal status change.
type JournalEntry struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Register string          `gorm:"type:varchar(32);index;not null"`
	MoveType string          `gorm:"type:varchar(20);not null"`
	Status   string          `gorm:"type:varchar(20);index;not null;default:'pending'"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PartyID  *int64
	// BillID is the upstream bill id, set only on success.
	BillID *int64
	// Payload is the serialized products_flow snapshot sent upstream,
	// kept verbatim for manual reconciliation.
	Payload string `gorm:"type:text;not null"`
	Error   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
