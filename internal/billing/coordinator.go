// Package billing coordinates bill submission: validate the cart, create a
// pending party when one is staged, post the bill, and record every attempt
// in the local journal. One bill may be in flight per register at a time —
// a second trigger while submitting is a no-op, never a second POST.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"posagent/internal/batch"
	"posagent/internal/journal"
	"posagent/internal/metrics"
	"posagent/internal/model"
	"posagent/internal/party"
	"posagent/internal/pricing"
	"posagent/internal/upstream"
)

var (
	// ErrSubmitInFlight is the no-op signal for a re-entrant submit.
	ErrSubmitInFlight = errors.New("a submission is already in flight for this register")
	// ErrEmptyCart rejects checkouts with nothing in them.
	ErrEmptyCart = errors.New("cart is empty")
)

// AmbiguousError wraps an upstream submission failure. The agent cannot
// tell whether the backend applied the bill before the connection died, so
// the caller must tell the operator to reconcile against the journal.
// CreatedPartyID is set when a pending party was persisted during this
// attempt — the party call succeeded even though the bill's outcome is
// unknown, and the caller must adopt the id or every retry creates a
// duplicate record upstream.
type AmbiguousError struct {
	EntryID        string
	CreatedPartyID *int64
	Cause          error
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("bill submission outcome unknown (journal entry %s): %v", e.EntryID, e.Cause)
}

func (e *AmbiguousError) Unwrap() error { return e.Cause }

// Upstream is the backend surface checkout needs.
type Upstream interface {
	SubmitBill(ctx context.Context, req upstream.BillRequest) (*model.Bill, error)
	CreateParty(ctx context.Context, p model.Party) (*model.Party, error)
}

// Checkout is one submission request, snapshotted from a register session.
type Checkout struct {
	Register            string
	MoveType            pricing.MoveType
	Lines               []model.CartLine
	Discount            decimal.Decimal
	Paid                decimal.Decimal
	Installments        int
	InstallmentInterval int
	PartyID             *int64
	PendingParty        *model.Party
}

type Coordinator struct {
	upstream  Upstream
	journal   journal.Repository
	validator *party.Validator
	now       func() time.Time

	// one in-flight token per register; the atomic swap is the whole
	// duplicate-submission defense
	inflight map[string]*atomic.Bool
}

func NewCoordinator(up Upstream, jr journal.Repository, pv *party.Validator, registers []string) *Coordinator {
	inflight := make(map[string]*atomic.Bool, len(registers))
	for _, r := range registers {
		inflight[r] = &atomic.Bool{}
	}
	return &Coordinator{
		upstream:  up,
		journal:   jr,
		validator: pv,
		now:       time.Now,
		inflight:  inflight,
	}
}

// Submit runs the whole checkout. On success the returned bill is the
// backend's authoritative record. On upstream failure it returns an
// *AmbiguousError and the caller must leave the cart untouched.
func (c *Coordinator) Submit(ctx context.Context, co Checkout) (*model.Bill, error) {
	token, ok := c.inflight[co.Register]
	if !ok {
		return nil, fmt.Errorf("unknown register %q", co.Register)
	}
	if !token.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer token.Store(false)

	// ── validating ───────────────────────────────────────────────────────
	if err := c.validate(co); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(co.Register, "rejected").Inc()
		return nil, err
	}

	// ── submitting ───────────────────────────────────────────────────────
	partyID := co.PartyID
	var createdPartyID *int64
	if co.PendingParty != nil {
		// the bill needs the persisted id, so party creation strictly
		// precedes the bill call
		created, err := c.upstream.CreateParty(ctx, *co.PendingParty)
		if err != nil {
			metrics.SubmissionsTotal.WithLabelValues(co.Register, "rejected").Inc()
			return nil, fmt.Errorf("create party before bill: %w", err)
		}
		partyID = created.ID
		createdPartyID = created.ID
	}

	total := pricing.Total(co.Lines, co.MoveType, co.Discount)
	entry, err := c.journalEntry(ctx, co, partyID, total)
	if err != nil {
		// a dead journal must not block selling
		log.Error().Err(err).Str("register", co.Register).Msg("journal write failed")
	}

	req := upstream.BillRequest{
		MoveType:            co.MoveType,
		PartyID:             partyID,
		Paid:                co.Paid,
		Installments:        co.Installments,
		InstallmentInterval: co.InstallmentInterval,
		Time:                c.now(),
		Discount:            co.Discount,
		Total:               total,
		Lines:               co.Lines,
	}

	bill, err := c.upstream.SubmitBill(ctx, req)
	if err != nil {
		if entry != nil {
			if jerr := c.journal.MarkAmbiguous(ctx, entry.ID, err.Error()); jerr != nil {
				log.Error().Err(jerr).Msg("journal ambiguous mark failed")
			}
		}
		metrics.SubmissionsTotal.WithLabelValues(co.Register, "ambiguous").Inc()
		log.Error().Err(err).Str("register", co.Register).Msg("bill submission failed")

		entryID := ""
		if entry != nil {
			entryID = entry.ID.String()
		}
		return nil, &AmbiguousError{EntryID: entryID, CreatedPartyID: createdPartyID, Cause: err}
	}

	if entry != nil {
		if jerr := c.journal.MarkSucceeded(ctx, entry.ID, bill.ID); jerr != nil {
			log.Error().Err(jerr).Msg("journal success mark failed")
		}
	}
	metrics.SubmissionsTotal.WithLabelValues(co.Register, "succeeded").Inc()
	log.Info().
		Str("register", co.Register).
		Int64("bill_id", bill.ID).
		Str("total", bill.Total.String()).
		Msg("bill submitted")
	return bill, nil
}

func (c *Coordinator) validate(co Checkout) error {
	if len(co.Lines) == 0 {
		return ErrEmptyCart
	}
	if !co.MoveType.Valid() {
		return fmt.Errorf("unknown move type %q", co.MoveType)
	}
	if err := pricing.ValidateDiscount(co.Lines, co.MoveType, co.Discount); err != nil {
		return err
	}
	if co.PendingParty != nil {
		if err := c.validator.ValidatePending(*co.PendingParty); err != nil {
			return err
		}
	}
	// a mismatched lot allocation would make the backend deduct the wrong
	// lots; lines without an allocation are fine (untracked inventory)
	for _, l := range co.Lines {
		if len(l.Batches) == 0 {
			continue
		}
		if got, want := l.AllocatedQuantity(), l.Quantity; got != want {
			return fmt.Errorf("line %q: %w", l.Name, &batch.MismatchError{Requested: want, Assigned: got})
		}
	}
	return nil
}

func (c *Coordinator) journalEntry(ctx context.Context, co Checkout, partyID *int64, total decimal.Decimal) (*model.JournalEntry, error) {
	payload, err := json.Marshal(co.Lines)
	if err != nil {
		return nil, err
	}
	entry := &model.JournalEntry{
		Register: co.Register,
		MoveType: string(co.MoveType),
		Status:   model.JournalPending,
		Total:    total,
		Discount: co.Discount,
		PartyID:  partyID,
		Payload:  string(payload),
	}
	if err := c.journal.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
