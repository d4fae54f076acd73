package register

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"posagent/internal/model"
	"posagent/internal/pricing"
)

// Checkout fields: the pending payment metadata edited alongside the cart.

func (s *Session) SetMoveType(t pricing.MoveType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown move type %q", t)
	}
	s.mu.Lock()
	s.moveType = t
	s.mu.Unlock()
	return nil
}

func (s *Session) SetDiscount(d decimal.Decimal) {
	s.mu.Lock()
	s.discount = d
	s.mu.Unlock()
}

func (s *Session) SetPaid(p decimal.Decimal) {
	s.mu.Lock()
	s.paid = p
	s.mu.Unlock()
}

func (s *Session) SetInstallments(count, intervalDays int) {
	s.mu.Lock()
	s.installments = count
	s.installmentInterval = intervalDays
	s.mu.Unlock()
}

// AttachParty references an already-persisted party, clearing any pending one.
func (s *Session) AttachParty(id int64) {
	s.mu.Lock()
	s.partyID = &id
	s.pendingParty = nil
	s.mu.Unlock()
}

// AttachPendingParty stages a new, not-yet-persisted party. It is created
// upstream during checkout and its returned id substituted into the bill.
func (s *Session) AttachPendingParty(p model.Party) {
	p.ID = nil
	s.mu.Lock()
	s.pendingParty = &p
	s.partyID = nil
	s.mu.Unlock()
}

func (s *Session) DetachParty() {
	s.mu.Lock()
	s.partyID = nil
	s.pendingParty = nil
	s.mu.Unlock()
}

// View is a read snapshot of the session for the UI and for checkout.
type View struct {
	Register            string           `json:"register"`
	MoveType            pricing.MoveType `json:"move_type"`
	Lines               []model.CartLine `json:"lines"`
	Discount            decimal.Decimal  `json:"discount"`
	Paid                decimal.Decimal  `json:"paid"`
	Installments        int              `json:"installments"`
	InstallmentInterval int              `json:"installment_interval"`
	PartyID             *int64           `json:"party_id"`
	PendingParty        *model.Party     `json:"pending_party,omitempty"`
	Subtotal            decimal.Decimal  `json:"subtotal"`
	Total               decimal.Decimal  `json:"total"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Lines()
	var pending *model.Party
	if s.pendingParty != nil {
		p := *s.pendingParty
		pending = &p
	}
	return View{
		Register:            s.id,
		MoveType:            s.moveType,
		Lines:               lines,
		Discount:            s.discount,
		Paid:                s.paid,
		Installments:        s.installments,
		InstallmentInterval: s.installmentInterval,
		PartyID:             s.partyID,
		PendingParty:        pending,
		Subtotal:            pricing.Subtotal(lines, s.moveType),
		Total:               pricing.Total(lines, s.moveType, s.discount),
	}
}

// SetLastBill holds the most recent confirmed bill for reprinting. It
// survives the post-submit reset and is only replaced by the next bill.
func (s *Session) SetLastBill(b *model.Bill) {
	s.mu.Lock()
	s.lastBill = b
	s.mu.Unlock()
}

func (s *Session) LastBill() *model.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBill
}

// ResetAfterSubmit clears the cart and returns the checkout fields to their
// defaults. Called only after the backend confirmed the bill.
func (s *Session) ResetAfterSubmit(ctx context.Context, defaultMove pricing.MoveType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.discount = decimal.Zero
	s.paid = decimal.Zero
	s.installments = 0
	s.installmentInterval = 0
	s.partyID = nil
	s.pendingParty = nil
	if defaultMove.Valid() {
		s.moveType = defaultMove
	}
	if err := s.store.Clear(ctx, s.id); err != nil {
		log.Warn().Err(err).Str("register", s.id).Msg("persisted cart clear failed")
	}
}
