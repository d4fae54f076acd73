// Package register composes one register page's workflow state: the cart,
// the input decoders feeding it, and the pending checkout fields (discount,
// payment type, party). Each register id ("sell", "buy", "admin-sell",
// "transfer") owns exactly one session.
package register

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"posagent/internal/cart"
	"posagent/internal/catalog"
	"posagent/internal/input"
	"posagent/internal/metrics"
	"posagent/internal/model"
	"posagent/internal/pricing"
)

// Feed outcomes. A key press either does nothing visible, adds/edits a cart
// line, or reports a scan that matched no product.
const (
	FeedNone     = "none"
	FeedAdded    = "added"
	FeedQuantity = "quantity"
	FeedScanMiss = "scan-miss"
)

// FeedResult reports what one forwarded keystroke did.
type FeedResult struct {
	Kind string          `json:"kind"`
	Code string          `json:"code,omitempty"`
	Line *model.CartLine `json:"line,omitempty"`
}

type Session struct {
	id       string
	moveType pricing.MoveType

	mu      sync.Mutex
	cart    *cart.Cart
	decoder *input.ScanDecoder

	discount            decimal.Decimal
	paid                decimal.Decimal
	installments        int
	installmentInterval int
	partyID             *int64
	pendingParty        *model.Party
	lastBill            *model.Bill

	catalog *catalog.Service
	store   cart.Store
}

// Config carries the per-register knobs a Session needs.
type Config struct {
	ID             string
	DefaultMove    pricing.MoveType
	ScanMinLength  int
	ScanIdle       int // milliseconds; 0 = default
	ReservedPrefix string
}

func NewSession(cfg Config, cat *catalog.Service, store cart.Store) *Session {
	return &Session{
		id:       cfg.ID,
		moveType: cfg.DefaultMove,
		cart:     cart.New(),
		decoder: input.NewScanDecoder(
			cfg.ScanMinLength,
			millis(cfg.ScanIdle),
			cfg.ReservedPrefix,
		),
		catalog: cat,
		store:   store,
	}
}

// Restore loads a previously persisted cart, if any. Called once at startup
// so an agent restart does not lose in-progress work.
func (s *Session) Restore(ctx context.Context) {
	lines, ok, err := s.store.Load(ctx, s.id)
	if err != nil {
		log.Warn().Err(err).Str("register", s.id).Msg("cart restore failed")
		return
	}
	if ok {
		s.mu.Lock()
		s.cart.Restore(lines)
		s.mu.Unlock()
		log.Info().Str("register", s.id).Int("lines", len(lines)).Msg("cart restored")
	}
}

func (s *Session) ID() string { return s.id }

// FeedKey routes one keystroke: Ctrl+digit / Ctrl+Backspace edit the last
// line's quantity, everything else feeds the scan decoder.
func (s *Session) FeedKey(ctx context.Context, ev input.KeyEvent) FeedResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Ctrl {
		if d := ev.Digit(); d >= 0 {
			return s.editLastQuantity(ctx, func(q int) int { return input.AppendDigit(q, d) })
		}
		if ev.Key == input.KeyBackspace {
			return s.editLastQuantity(ctx, input.TrimDigit)
		}
		return FeedResult{Kind: FeedNone}
	}

	code, ok := s.decoder.Feed(ev)
	if !ok {
		return FeedResult{Kind: FeedNone}
	}

	product, found := s.catalog.ByBarcode(code)
	if !found {
		metrics.ScanMissesTotal.WithLabelValues(s.id).Inc()
		return FeedResult{Kind: FeedScanMiss, Code: code}
	}

	s.cart.Add(product)
	s.persist(ctx)
	metrics.ScansTotal.WithLabelValues(s.id).Inc()
	line, _ := s.cart.Line(product.ID)
	return FeedResult{Kind: FeedAdded, Code: code, Line: &line}
}

// editLastQuantity must be called under lock.
func (s *Session) editLastQuantity(ctx context.Context, edit func(int) int) FeedResult {
	last, ok := s.cart.Last()
	if !ok {
		return FeedResult{Kind: FeedNone}
	}
	_ = s.cart.SetQuantity(last.ProductID, edit(last.Quantity))
	s.persist(ctx)
	line, _ := s.cart.Line(last.ProductID)
	return FeedResult{Kind: FeedQuantity, Line: &line}
}

// AddProduct adds by catalog id (autocomplete picks go through here).
func (s *Session) AddProduct(ctx context.Context, productID int64) (model.CartLine, error) {
	product, ok := s.catalog.ByID(productID)
	if !ok {
		return model.CartLine{}, cart.ErrLineNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Add(product)
	s.persist(ctx)
	line, _ := s.cart.Line(productID)
	return line, nil
}

// LineEdit is a partial update of one cart line.
type LineEdit struct {
	Quantity       *int             `json:"quantity"`
	Price          *decimal.Decimal `json:"price"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price"`
}

func (s *Session) EditLine(ctx context.Context, productID int64, edit LineEdit) (model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edit.Quantity != nil {
		if err := s.cart.SetQuantity(productID, *edit.Quantity); err != nil {
			return model.CartLine{}, err
		}
	}
	if edit.Price != nil {
		if err := s.cart.SetPrice(productID, *edit.Price); err != nil {
			return model.CartLine{}, err
		}
	}
	if edit.WholesalePrice != nil {
		if err := s.cart.SetWholesalePrice(productID, *edit.WholesalePrice); err != nil {
			return model.CartLine{}, err
		}
	}
	s.persist(ctx)
	line, _ := s.cart.Line(productID)
	return line, nil
}

func (s *Session) SetBatches(ctx context.Context, productID int64, batches []model.BatchSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.SetBatches(productID, batches); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

func (s *Session) RemoveLine(ctx context.Context, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID)
	s.persist(ctx)
}

func (s *Session) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.persist(ctx)
}

func (s *Session) Line(productID int64) (model.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Line(productID)
}

// persist must be called under lock. Persistence is best-effort: a dead
// Redis loses restart recovery, not the live cart.
func (s *Session) persist(ctx context.Context) {
	if err := s.store.Save(ctx, s.id, s.cart.Lines()); err != nil {
		log.Warn().Err(err).Str("register", s.id).Msg("cart persist failed")
	}
}
