// Package batch distributes a requested cart quantity across a product's
// expiry-dated lots. The agent only proposes and validates the split — the
// backend performs the authoritative deduction when the bill lands.
package batch

import (
	"fmt"
	"sort"

	"posagent/internal/model"
)

// Assignment pairs one available lot with the quantity taken from it.
type Assignment struct {
	Batch    model.ProductBatch `json:"batch"`
	Quantity int                `json:"quantity"`
}

// Propose builds a first-expire-first-out split of requested units over the
// available lots: soonest expiry first, lots without an expiry date last,
// each lot contributing at most its available quantity. When availability
// falls short the proposal simply sums to less than requested — Validate
// reports the shortfall at commit time.
func Propose(available []model.ProductBatch, requested int) []Assignment {
	candidates := make([]model.ProductBatch, 0, len(available))
	for _, b := range available {
		if b.Quantity > 0 {
			candidates = append(candidates, b)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		bi, bj := candidates[i].ExpiryDate, candidates[j].ExpiryDate
		switch {
		case bi == nil:
			return false
		case bj == nil:
			return true
		default:
			return bi.Before(*bj)
		}
	})

	assignments := make([]Assignment, 0, len(candidates))
	remaining := requested
	for _, b := range candidates {
		take := remaining
		if take > b.Quantity {
			take = b.Quantity
		}
		if take < 0 {
			take = 0
		}
		assignments = append(assignments, Assignment{Batch: b, Quantity: take})
		remaining -= take
	}
	return assignments
}

// Clamp bounds an operator override to what the lot actually holds.
func Clamp(quantity, available int) int {
	if quantity < 0 {
		return 0
	}
	if quantity > available {
		return available
	}
	return quantity
}

// MismatchError reports an allocation that does not reconcile with the
// requested cart quantity. Delta is assigned − requested: positive means
// over-allocated, negative short.
type MismatchError struct {
	Requested int
	Assigned  int
}

func (e *MismatchError) Delta() int { return e.Assigned - e.Requested }

func (e *MismatchError) Error() string {
	d := e.Delta()
	if d > 0 {
		return fmt.Sprintf("allocation exceeds the requested quantity by %d", d)
	}
	return fmt.Sprintf("allocation is short of the requested quantity by %d", -d)
}

// Validate checks that the assignments reconcile exactly to requested.
// No assignments at all is valid — untracked inventory carries no lots and
// the line then ships without an allocation.
func Validate(assignments []Assignment, requested int) error {
	if len(assignments) == 0 {
		return nil
	}
	assigned := 0
	for _, a := range assignments {
		assigned += a.Quantity
	}
	if assigned != requested {
		return &MismatchError{Requested: requested, Assigned: assigned}
	}
	return nil
}

// Selections converts assignments into the wire form attached to a cart
// line, dropping zero-quantity rows.
func Selections(assignments []Assignment) []model.BatchSelection {
	out := make([]model.BatchSelection, 0, len(assignments))
	for _, a := range assignments {
		if a.Quantity == 0 {
			continue
		}
		out = append(out, model.BatchSelection{BatchID: a.Batch.BatchID, Quantity: a.Quantity})
	}
	return out
}
