package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posagent/internal/journal"
	"posagent/internal/model"
	"posagent/internal/party"
	"posagent/internal/pricing"
	"posagent/internal/upstream"
)

// stubUpstream counts calls and records their order; optional gates let a
// test hold a submission in flight.
type stubUpstream struct {
	mu         sync.Mutex
	bills      []upstream.BillRequest
	parties    []model.Party
	callOrder  []string
	billErr    error
	entered    chan struct{} // closed-ish: receives when SubmitBill starts
	release    chan struct{} // SubmitBill blocks until this receives
	nextBillID int64
}

func newStubUpstream() *stubUpstream { return &stubUpstream{nextBillID: 100} }

func (u *stubUpstream) SubmitBill(_ context.Context, req upstream.BillRequest) (*model.Bill, error) {
	if u.entered != nil {
		u.entered <- struct{}{}
	}
	if u.release != nil {
		<-u.release
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.callOrder = append(u.callOrder, "bill")
	if u.billErr != nil {
		return nil, u.billErr
	}
	u.bills = append(u.bills, req)
	u.nextBillID++
	return &model.Bill{
		ID:       u.nextBillID,
		Time:     req.Time,
		MoveType: string(req.MoveType),
		Discount: req.Discount,
		Total:    req.Total,
		PartyID:  req.PartyID,
	}, nil
}

func (u *stubUpstream) CreateParty(_ context.Context, p model.Party) (*model.Party, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.callOrder = append(u.callOrder, "party")
	id := int64(42)
	p.ID = &id
	u.parties = append(u.parties, p)
	return &p, nil
}

func (u *stubUpstream) billCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.bills)
}

func newCoordinator(u Upstream, jr journal.Repository) *Coordinator {
	c := NewCoordinator(u, jr, party.NewValidator("EG"), []string{"sell", "buy"})
	c.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func sellCheckout() Checkout {
	return Checkout{
		Register: "sell",
		MoveType: pricing.Sell,
		Lines: []model.CartLine{
			{ProductID: 1, Name: "Cola", Price: decimal.NewFromInt(10), WholesalePrice: decimal.NewFromInt(8), Quantity: 2},
		},
		Discount: decimal.NewFromInt(5),
	}
}

func TestSubmitSellComputesAdvisoryTotal(t *testing.T) {
	u := newStubUpstream()
	c := newCoordinator(u, journal.NewMemoryRepository())

	bill, err := c.Submit(context.Background(), sellCheckout())
	require.NoError(t, err)
	assert.True(t, bill.Total.Equal(decimal.NewFromInt(15)), "10*2-5")

	require.Len(t, u.bills, 1)
	assert.True(t, u.bills[0].Total.Equal(decimal.NewFromInt(15)))
}

func TestSubmitBuyUsesWholesale(t *testing.T) {
	u := newStubUpstream()
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	co.Register = "buy"
	co.MoveType = pricing.Buy
	bill, err := c.Submit(context.Background(), co)
	require.NoError(t, err)
	assert.True(t, bill.Total.Equal(decimal.NewFromInt(11)), "8*2-5")
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	u := newStubUpstream()
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	co.Lines = nil
	_, err := c.Submit(context.Background(), co)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, u.billCount(), "validation failures must not reach the network")
}

func TestSubmitRejectsDiscountAtOrAboveTotal(t *testing.T) {
	u := newStubUpstream()
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	co.Discount = decimal.NewFromInt(50) // subtotal is 20
	_, err := c.Submit(context.Background(), co)
	require.Error(t, err)
	assert.Zero(t, u.billCount())
}

func TestSubmitRejectsIncompletePendingParty(t *testing.T) {
	u := newStubUpstream()
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	co.PendingParty = &model.Party{Name: "Ahmed", Kind: model.PartyKindCustomer} // no phone
	_, err := c.Submit(context.Background(), co)
	require.Error(t, err)
	assert.Zero(t, u.billCount())
}

func TestSubmitCreatesPartyStrictlyBeforeBill(t *testing.T) {
	u := newStubUpstream()
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	co.PendingParty = &model.Party{
		Name:  "Ahmed Hassan",
		Phone: "+201001234567",
		Kind:  model.PartyKindCustomer,
	}
	bill, err := c.Submit(context.Background(), co)
	require.NoError(t, err)

	require.Equal(t, []string{"party", "bill"}, u.callOrder)
	require.NotNil(t, bill.PartyID)
	assert.Equal(t, int64(42), *bill.PartyID, "created party id substituted into the bill")
}

func TestSubmitRejectsMismatchedAllocation(t *testing.T) {
	u := newStubUpstream()
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	bid := int64(7)
	co.Lines[0].Batches = []model.BatchSelection{{BatchID: &bid, Quantity: 1}} // line qty is 2
	_, err := c.Submit(context.Background(), co)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short of the requested quantity by 1")
	assert.Zero(t, u.billCount())
}

func TestSubmitInFlightSecondTriggerIsNoOp(t *testing.T) {
	u := newStubUpstream()
	u.entered = make(chan struct{}, 1)
	u.release = make(chan struct{})
	c := newCoordinator(u, journal.NewMemoryRepository())

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), sellCheckout())
		done <- err
	}()

	<-u.entered // first submission is now inside the upstream call

	_, err := c.Submit(context.Background(), sellCheckout())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(u.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, u.billCount(), "exactly one POST for a double trigger")
}

func TestSubmitFailureIsAmbiguousAndJournaled(t *testing.T) {
	u := newStubUpstream()
	u.billErr = errors.New("connection reset")
	jr := journal.NewMemoryRepository()
	c := newCoordinator(u, jr)

	_, err := c.Submit(context.Background(), sellCheckout())
	require.Error(t, err)

	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.NotEmpty(t, ambiguous.EntryID)

	entries, err := jr.List(context.Background(), "sell", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.JournalAmbiguous, entries[0].Status)
	require.NotNil(t, entries[0].Error)
	assert.Contains(t, *entries[0].Error, "connection reset")
}

func TestSubmitAmbiguousAfterPartyCreationReportsCreatedID(t *testing.T) {
	u := newStubUpstream()
	u.billErr = errors.New("connection reset")
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	co.PendingParty = &model.Party{
		Name:  "Ahmed Hassan",
		Phone: "+201001234567",
		Kind:  model.PartyKindCustomer,
	}
	_, err := c.Submit(context.Background(), co)
	require.Error(t, err)

	// the party was persisted even though the bill's fate is unknown; the
	// caller needs its id or a retry would create the party again
	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	require.NotNil(t, ambiguous.CreatedPartyID)
	assert.Equal(t, int64(42), *ambiguous.CreatedPartyID)
}

func TestSubmitWithPersistedPartyReportsNoCreatedID(t *testing.T) {
	u := newStubUpstream()
	u.billErr = errors.New("connection reset")
	c := newCoordinator(u, journal.NewMemoryRepository())

	co := sellCheckout()
	existing := int64(7)
	co.PartyID = &existing
	_, err := c.Submit(context.Background(), co)

	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Nil(t, ambiguous.CreatedPartyID)
}

func TestSubmitSuccessMarksJournalSucceeded(t *testing.T) {
	u := newStubUpstream()
	jr := journal.NewMemoryRepository()
	c := newCoordinator(u, jr)

	bill, err := c.Submit(context.Background(), sellCheckout())
	require.NoError(t, err)

	entries, _ := jr.List(context.Background(), "sell", 10)
	require.Len(t, entries, 1)
	assert.Equal(t, model.JournalSucceeded, entries[0].Status)
	require.NotNil(t, entries[0].BillID)
	assert.Equal(t, bill.ID, *entries[0].BillID)
}

func TestSubmitUnknownRegister(t *testing.T) {
	c := newCoordinator(newStubUpstream(), journal.NewMemoryRepository())
	co := sellCheckout()
	co.Register = "lemonade-stand"
	_, err := c.Submit(context.Background(), co)
	assert.Error(t, err)
}
