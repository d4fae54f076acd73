package register

import (
	"context"
	"fmt"
	"time"

	"posagent/internal/cart"
	"posagent/internal/catalog"
	"posagent/internal/pricing"
)

func millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// The fixed register set. Each mirrors one page of the selling UI and keeps
// its own cart, decoder and checkout fields.
const (
	RegisterSell      = "sell"
	RegisterAdminSell = "admin-sell"
	RegisterBuy       = "buy"
	RegisterTransfer  = "transfer"
)

// defaultMoves maps each register to the move type it resets to after a
// submitted bill.
var defaultMoves = map[string]pricing.MoveType{
	RegisterSell:      pricing.Sell,
	RegisterAdminSell: pricing.AdminSell,
	RegisterBuy:       pricing.Buy,
	RegisterTransfer:  pricing.Transfer,
}

// SellSide reports whether a register requires an open shift. Buying and
// transfers are back-office work and proceed without one.
func SellSide(register string) bool {
	return register == RegisterSell || register == RegisterAdminSell
}

// DefaultMove returns the register's reset move type.
func DefaultMove(register string) pricing.MoveType {
	return defaultMoves[register]
}

// Manager owns the fixed sessions and resolves them by register id.
type Manager struct {
	sessions map[string]*Session
}

// ManagerConfig carries the scan knobs shared by every register.
type ManagerConfig struct {
	ScanMinLength  int
	ScanIdleMS     int
	ReservedPrefix string
}

func NewManager(cfg ManagerConfig, cat *catalog.Service, store cart.Store) *Manager {
	m := &Manager{sessions: make(map[string]*Session, len(defaultMoves))}
	for id, move := range defaultMoves {
		m.sessions[id] = NewSession(Config{
			ID:             id,
			DefaultMove:    move,
			ScanMinLength:  cfg.ScanMinLength,
			ScanIdle:       cfg.ScanIdleMS,
			ReservedPrefix: cfg.ReservedPrefix,
		}, cat, store)
	}
	return m
}

// RestoreAll reloads every persisted cart at startup.
func (m *Manager) RestoreAll(ctx context.Context) {
	for _, s := range m.sessions {
		s.Restore(ctx)
	}
}

// Get resolves a session by register id.
func (m *Manager) Get(register string) (*Session, error) {
	s, ok := m.sessions[register]
	if !ok {
		return nil, fmt.Errorf("unknown register %q", register)
	}
	return s, nil
}
