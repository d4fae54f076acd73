package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog snapshot of an upstream product. The store backend
// owns the record; the agent only caches it for barcode lookup, autocomplete
// and price/stock snapshots taken at add-to-cart time.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	BarCode        string          `json:"bar_code"`
	Price          decimal.Decimal `json:"price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Stock          int             `json:"stock"`
	Category       string          `json:"category"`
	// Deleted marks an upstream soft-delete. Deleted products stay in the
	// snapshot so open carts keep their names, but never match scans or
	// autocomplete.
	Deleted bool `json:"is_deleted"`
}

// ProductBatch is one expiry-dated lot of a product as reported by the
// backend. ExpiryDate is nil for lots received without an expiry.
type ProductBatch struct {
	BatchID    *int64     `json:"batch_id,omitempty"`
	Quantity   int        `json:"quantity"`
	ExpiryDate *time.Time `json:"expiration_date"`
}
