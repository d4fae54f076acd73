// Package shift gates selling on a server-confirmed open shift. The agent
// keeps no shift state machine of its own — the backend owns the lifecycle;
// a failed shift query simply means the gate is closed.
package shift

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"posagent/internal/model"
)

// ErrNoOpenShift is returned when selling is attempted without an open shift.
var ErrNoOpenShift = errors.New("no open shift — selling is not permitted")

// Provider is the upstream surface the gate depends on.
type Provider interface {
	CurrentShift(ctx context.Context) (*model.Shift, error)
	Logout(ctx context.Context) error
}

// Gate caches the upstream shift check briefly so a burst of scans does not
// turn into a burst of /current-shift calls.
type Gate struct {
	provider Provider
	ttl      time.Duration

	mu        sync.Mutex
	current   *model.Shift
	checkedAt time.Time
}

func NewGate(provider Provider, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Gate{provider: provider, ttl: ttl}
}

// Require returns the open shift or ErrNoOpenShift. Upstream errors are
// treated as "no shift open" — the distinction does not change what the
// register is allowed to do.
func (g *Gate) Require(ctx context.Context) (*model.Shift, error) {
	g.mu.Lock()
	if g.current != nil && time.Since(g.checkedAt) < g.ttl {
		shift := g.current
		g.mu.Unlock()
		return shift, nil
	}
	g.mu.Unlock()

	shift, err := g.provider.CurrentShift(ctx)
	if err != nil || shift == nil || shift.StartDateTime == "" {
		if err != nil {
			log.Warn().Err(err).Msg("shift check failed, gate closed")
		}
		g.invalidate()
		return nil, ErrNoOpenShift
	}

	g.mu.Lock()
	g.current = shift
	g.checkedAt = time.Now()
	g.mu.Unlock()
	return shift, nil
}

// Close ends the operator session upstream (which closes the shift) and
// drops the cached state so the next Require re-checks.
func (g *Gate) Close(ctx context.Context) error {
	err := g.provider.Logout(ctx)
	g.invalidate()
	return err
}

// Invalidate drops the cached shift; the next Require hits upstream again.
func (g *Gate) Invalidate() { g.invalidate() }

func (g *Gate) invalidate() {
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
}
