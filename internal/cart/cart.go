// Package cart holds the ordered line collection for one register. Lines are
// keyed by product id for uniqueness but keep insertion order — the quantity
// keypad always targets the most recently added line.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"posagent/internal/model"
)

// ErrLineNotFound is returned by line edits targeting an absent product id.
var ErrLineNotFound = fmt.Errorf("cart line not found")

type Cart struct {
	lines []model.CartLine
}

func New() *Cart { return &Cart{} }

// Restore replaces the cart contents with previously persisted lines.
func (c *Cart) Restore(lines []model.CartLine) {
	c.lines = append([]model.CartLine(nil), lines...)
}

// Add inserts p with quantity 1, or bumps the existing line's quantity by 1.
// Price, wholesale price and stock are snapshotted on first insertion only.
func (c *Cart) Add(p model.Product) {
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, model.CartLine{
		ProductID:      p.ID,
		Name:           p.Name,
		BarCode:        p.BarCode,
		Price:          p.Price,
		WholesalePrice: p.WholesalePrice,
		Quantity:       1,
		Stock:          p.Stock,
	})
}

func (c *Cart) SetQuantity(productID int64, quantity int) error {
	return c.update(productID, func(l *model.CartLine) { l.Quantity = quantity })
}

func (c *Cart) SetPrice(productID int64, price decimal.Decimal) error {
	return c.update(productID, func(l *model.CartLine) { l.Price = price })
}

func (c *Cart) SetWholesalePrice(productID int64, price decimal.Decimal) error {
	return c.update(productID, func(l *model.CartLine) { l.WholesalePrice = price })
}

// SetBatches attaches an expiry-lot allocation to a line.
func (c *Cart) SetBatches(productID int64, batches []model.BatchSelection) error {
	return c.update(productID, func(l *model.CartLine) {
		l.Batches = append([]model.BatchSelection(nil), batches...)
	})
}

func (c *Cart) update(productID int64, fn func(*model.CartLine)) error {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			fn(&c.lines[i])
			return nil
		}
	}
	return ErrLineNotFound
}

// Remove drops the line for productID; removing an absent line is a no-op.
func (c *Cart) Remove(productID int64) {
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}

func (c *Cart) Clear() { c.lines = nil }

func (c *Cart) Empty() bool { return len(c.lines) == 0 }

func (c *Cart) Len() int { return len(c.lines) }

// Lines returns a copy; callers never mutate cart state directly.
func (c *Cart) Lines() []model.CartLine {
	return append([]model.CartLine(nil), c.lines...)
}

// Line returns the line for productID.
func (c *Cart) Line(productID int64) (model.CartLine, bool) {
	for _, l := range c.lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return model.CartLine{}, false
}

// Last returns the most recently inserted line.
func (c *Cart) Last() (model.CartLine, bool) {
	if len(c.lines) == 0 {
		return model.CartLine{}, false
	}
	return c.lines[len(c.lines)-1], true
}
