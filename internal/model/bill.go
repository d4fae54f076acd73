package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is the backend's authoritative record of a submitted transaction.
// The agent's client-side total is advisory; Total here is what the backend
// actually computed and stored.
type Bill struct {
	ID           int64           `json:"id"`
	Time         time.Time       `json:"time"`
	MoveType     string          `json:"type"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	PartyID      *int64          `json:"party_id"`
	PartyName    string          `json:"party_name,omitempty"`
	ProductsFlow []CartLine      `json:"products_flow"`
}

// Shift is the backend's open cash session for this store. The agent holds
// no shift state machine of its own — presence of a start time is all the
// selling UI needs.
type Shift struct {
	StartDateTime string `json:"start_date_time"`
}
