// Package pricing centralizes the per-payment-type total formulas that the
// register pages share. The agent's totals are advisory — the backend
// recomputes and returns the authoritative figure — but they must agree for
// the common cases or operators lose trust in the screen.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"posagent/internal/model"
)

// MoveType tags a bill with how it moves money and stock.
type MoveType string

const (
	Sell        MoveType = "sell"
	AdminSell   MoveType = "sell-admin"
	Buy         MoveType = "buy"
	Return      MoveType = "return"
	Reserve     MoveType = "reserve"
	BNPL        MoveType = "bnpl"
	Installment MoveType = "installment"
	Transfer    MoveType = "transfer"
)

var moveTypes = map[MoveType]struct{}{
	Sell: {}, AdminSell: {}, Buy: {}, Return: {}, Reserve: {},
	BNPL: {}, Installment: {}, Transfer: {},
}

func (t MoveType) Valid() bool {
	_, ok := moveTypes[t]
	return ok
}

// UsesWholesale reports whether line totals are priced at wholesale
// (incoming stock) rather than retail.
func (t MoveType) UsesWholesale() bool {
	return t == Buy || t == Transfer
}

// DiscountApplies reports whether the flat bill discount participates in the
// total. Installment bills track paid/remaining upstream instead, so the
// discount field is ignored for them.
func (t MoveType) DiscountApplies() bool {
	return t != Installment
}

// Subtotal sums the lines at the unit price the move type calls for,
// before any discount.
func Subtotal(lines []model.CartLine, t MoveType) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		unit := l.Price
		if t.UsesWholesale() {
			unit = l.WholesalePrice
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Total applies the bill discount to the subtotal when the move type allows it.
func Total(lines []model.CartLine, t MoveType, discount decimal.Decimal) decimal.Decimal {
	sub := Subtotal(lines, t)
	if !t.DiscountApplies() {
		return sub
	}
	return sub.Sub(discount)
}

// ValidateDiscount rejects a discount that consumes the whole bill or more.
func ValidateDiscount(lines []model.CartLine, t MoveType, discount decimal.Decimal) error {
	if !t.DiscountApplies() || discount.IsZero() {
		return nil
	}
	if discount.IsNegative() {
		return fmt.Errorf("discount cannot be negative")
	}
	if sub := Subtotal(lines, t); discount.GreaterThanOrEqual(sub) {
		return fmt.Errorf("discount %s is not below the bill subtotal %s", discount, sub)
	}
	return nil
}
