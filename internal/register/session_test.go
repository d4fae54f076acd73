package register

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posagent/internal/cart"
	"posagent/internal/catalog"
	"posagent/internal/input"
	"posagent/internal/model"
	"posagent/internal/pricing"
)

type staticFetcher struct{ products []model.Product }

func (f *staticFetcher) FetchProducts(context.Context) ([]model.Product, error) {
	return f.products, nil
}

func testCatalog(t *testing.T) *catalog.Service {
	t.Helper()
	s := catalog.NewService(&staticFetcher{products: []model.Product{
		{ID: 1, Name: "Cola", BarCode: "100200", Price: decimal.NewFromInt(10), WholesalePrice: decimal.NewFromInt(8), Stock: 24},
		{ID: 2, Name: "Chips", BarCode: "100300", Price: decimal.NewFromInt(5), WholesalePrice: decimal.NewFromInt(3), Stock: 10},
	}})
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func newTestSession(t *testing.T) (*Session, *cart.MemoryStore) {
	t.Helper()
	store := cart.NewMemoryStore()
	s := NewSession(Config{
		ID:             RegisterSell,
		DefaultMove:    pricing.Sell,
		ScanMinLength:  2,
		ReservedPrefix: "CL",
	}, testCatalog(t), store)
	return s, store
}

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func scan(s *Session, code string) FeedResult {
	ctx := context.Background()
	at := t0
	var res FeedResult
	for _, r := range code {
		res = s.FeedKey(ctx, input.KeyEvent{Key: string(r), At: at})
		at = at.Add(10 * time.Millisecond)
	}
	res = s.FeedKey(ctx, input.KeyEvent{Key: input.KeyEnter, At: at})
	return res
}

func TestScanAddsToCartAndPersists(t *testing.T) {
	s, store := newTestSession(t)

	res := scan(s, "100200")
	require.Equal(t, FeedAdded, res.Kind)
	require.NotNil(t, res.Line)
	assert.Equal(t, int64(1), res.Line.ProductID)
	assert.Equal(t, 1, res.Line.Quantity)

	lines, ok, err := store.Load(context.Background(), RegisterSell)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, lines, 1)
}

func TestScanMissLeavesCartUntouched(t *testing.T) {
	s, _ := newTestSession(t)

	res := scan(s, "999999")
	assert.Equal(t, FeedScanMiss, res.Kind)
	assert.Equal(t, "999999", res.Code)
	assert.Empty(t, s.Snapshot().Lines)
}

func TestReservedPrefixScanNeverAdds(t *testing.T) {
	s, _ := newTestSession(t)

	res := scan(s, "CL100200")
	assert.Equal(t, FeedNone, res.Kind)
	assert.Empty(t, s.Snapshot().Lines)
}

func TestCtrlDigitsEditLastLineQuantity(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	scan(s, "100200")
	scan(s, "100300") // Chips is now the last line

	// clear the scanned quantity of 1 first so the typed digits stand alone
	res := s.FeedKey(ctx, input.KeyEvent{Key: input.KeyBackspace, Ctrl: true, At: t0})
	require.Equal(t, FeedQuantity, res.Kind)
	require.Equal(t, 0, res.Line.Quantity)

	for _, k := range []string{"1", "2", "3"} {
		res = s.FeedKey(ctx, input.KeyEvent{Key: k, Ctrl: true, At: t0})
	}
	assert.Equal(t, 123, res.Line.Quantity)
	assert.Equal(t, int64(2), res.Line.ProductID, "keypad edits the most recent line only")

	res = s.FeedKey(ctx, input.KeyEvent{Key: input.KeyBackspace, Ctrl: true, At: t0})
	assert.Equal(t, 12, res.Line.Quantity)

	// the first line is untouched
	line, _ := s.Line(1)
	assert.Equal(t, 1, line.Quantity)
}

func TestCtrlDigitOnEmptyCartIsNoOp(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.FeedKey(context.Background(), input.KeyEvent{Key: "5", Ctrl: true, At: t0})
	assert.Equal(t, FeedNone, res.Kind)
}

func TestAddProductByID(t *testing.T) {
	s, _ := newTestSession(t)
	line, err := s.AddProduct(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Chips", line.Name)

	_, err = s.AddProduct(context.Background(), 404)
	assert.Error(t, err)
}

func TestEditLine(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.AddProduct(context.Background(), 1)
	require.NoError(t, err)

	q := 3
	p := decimal.NewFromInt(12)
	line, err := s.EditLine(context.Background(), 1, LineEdit{Quantity: &q, Price: &p})
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, line.Price.Equal(decimal.NewFromInt(12)))
}

func TestSnapshotTotals(t *testing.T) {
	s, _ := newTestSession(t)
	_, _ = s.AddProduct(context.Background(), 1)
	q := 2
	_, _ = s.EditLine(context.Background(), 1, LineEdit{Quantity: &q})
	s.SetDiscount(decimal.NewFromInt(5))

	view := s.Snapshot()
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, view.Total.Equal(decimal.NewFromInt(15)))
}

func TestResetAfterSubmitClearsEverything(t *testing.T) {
	s, store := newTestSession(t)
	ctx := context.Background()
	_, _ = s.AddProduct(ctx, 1)
	s.SetDiscount(decimal.NewFromInt(2))
	s.AttachPendingParty(model.Party{Name: "x", Phone: "y", Kind: model.PartyKindCustomer})

	s.ResetAfterSubmit(ctx, pricing.Sell)

	view := s.Snapshot()
	assert.Empty(t, view.Lines)
	assert.True(t, view.Discount.IsZero())
	assert.Nil(t, view.PendingParty)

	_, ok, _ := store.Load(ctx, RegisterSell)
	assert.False(t, ok, "persisted cart cleared after submit")
}

func TestRestoreReloadsPersistedCart(t *testing.T) {
	store := cart.NewMemoryStore()
	cat := testCatalog(t)
	cfg := Config{ID: RegisterSell, DefaultMove: pricing.Sell, ScanMinLength: 2}

	first := NewSession(cfg, cat, store)
	_, err := first.AddProduct(context.Background(), 1)
	require.NoError(t, err)

	second := NewSession(cfg, cat, store)
	second.Restore(context.Background())
	assert.Len(t, second.Snapshot().Lines, 1)
}

func TestManagerResolvesFixedRegisters(t *testing.T) {
	m := NewManager(ManagerConfig{ScanMinLength: 2}, testCatalog(t), cart.NewMemoryStore())

	for _, id := range []string{RegisterSell, RegisterAdminSell, RegisterBuy, RegisterTransfer} {
		s, err := m.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id, s.ID())
	}
	_, err := m.Get("lemonade")
	assert.Error(t, err)

	assert.True(t, SellSide(RegisterSell))
	assert.False(t, SellSide(RegisterBuy))
	assert.Equal(t, pricing.Buy, DefaultMove(RegisterBuy))
}
