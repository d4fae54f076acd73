package model

import "github.com/shopspring/decimal"

// CartLine is one product entry in a register's cart. Price, wholesale price
// and stock are snapshots taken when the line was created; the backend is
// free to have moved on since, and revalidates on submission.
type CartLine struct {
	ProductID      int64           `json:"id"`
	Name           string          `json:"name"`
	BarCode        string          `json:"bar_code,omitempty"`
	Price          decimal.Decimal `json:"price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Quantity       int             `json:"quantity"`
	Stock          int             `json:"stock"`
	// Batches holds the operator's expiry-lot allocation for this line.
	// Empty means untracked inventory or allocation left to the backend.
	Batches []BatchSelection `json:"batches,omitempty"`
}

// BatchSelection assigns part of a cart line's quantity to one expiry lot.
type BatchSelection struct {
	BatchID  *int64 `json:"batch_id,omitempty"`
	Quantity int    `json:"quantity"`
}

// AllocatedQuantity is the sum of lot assignments on the line.
func (l CartLine) AllocatedQuantity() int {
	total := 0
	for _, b := range l.Batches {
		total += b.Quantity
	}
	return total
}
