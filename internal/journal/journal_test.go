package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posagent/internal/model"
)

func entry(register string) *model.JournalEntry {
	return &model.JournalEntry{Register: register, MoveType: "sell", Payload: "[]"}
}

func TestMemoryCreateAssignsIDAndPendingStatus(t *testing.T) {
	r := NewMemoryRepository()
	e := entry("sell")
	require.NoError(t, r.Create(context.Background(), e))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", e.ID.String())
	assert.Equal(t, model.JournalPending, e.Status)
}

func TestMemoryListNewestFirstAndFiltered(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	first, second := entry("sell"), entry("sell")
	require.NoError(t, r.Create(ctx, first))
	require.NoError(t, r.Create(ctx, second))
	require.NoError(t, r.Create(ctx, entry("buy")))

	got, err := r.List(ctx, "sell", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID, "newest first")
	assert.Equal(t, first.ID, got[1].ID)

	all, err := r.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2, "limit applies")
}

func TestMemoryMarkTransitions(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	ok, bad := entry("sell"), entry("sell")
	require.NoError(t, r.Create(ctx, ok))
	require.NoError(t, r.Create(ctx, bad))

	require.NoError(t, r.MarkSucceeded(ctx, ok.ID, 77))
	require.NoError(t, r.MarkAmbiguous(ctx, bad.ID, "connection reset"))

	got, _ := r.List(ctx, "sell", 10)
	byID := map[string]model.JournalEntry{}
	for _, e := range got {
		byID[e.ID.String()] = e
	}
	s := byID[ok.ID.String()]
	assert.Equal(t, model.JournalSucceeded, s.Status)
	require.NotNil(t, s.BillID)
	assert.Equal(t, int64(77), *s.BillID)

	a := byID[bad.ID.String()]
	assert.Equal(t, model.JournalAmbiguous, a.Status)
	require.NotNil(t, a.Error)
	assert.Equal(t, "connection reset", *a.Error)
}

func TestMemoryPurgeKeepsAmbiguousForever(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	old, oldAmbiguous := entry("sell"), entry("sell")
	require.NoError(t, r.Create(ctx, old))
	require.NoError(t, r.Create(ctx, oldAmbiguous))
	require.NoError(t, r.MarkSucceeded(ctx, old.ID, 1))
	require.NoError(t, r.MarkAmbiguous(ctx, oldAmbiguous.ID, "timeout"))

	// entries were just created, so an "everything older than -1h" purge
	// (cutoff in the future) catches them both by age
	purged, err := r.PurgeOlderThan(ctx, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	got, _ := r.List(ctx, "sell", 10)
	require.Len(t, got, 1)
	assert.Equal(t, model.JournalAmbiguous, got[0].Status, "ambiguous entries outlive retention")
}
