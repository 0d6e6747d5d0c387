package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vending-engine/journal"
	"github.com/warp/vending-engine/ledger"
	"github.com/warp/vending-engine/vending"
)

func newTestStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_AppendAndList(t *testing.T) {
	// GIVEN: A purchase that auto-refunded 300 as three 100s
	// WHEN: Appending and listing it back
	// THEN: Every field survives the round trip
	store := newTestStore(t)
	ctx := context.Background()

	e := journal.NewEntry(journal.KindPurchase, vending.StatusOK, vending.Balances{
		TillTotal:         1700,
		Inserted:          0,
		CustomerRemaining: 9300,
	})
	e.ItemID = 1
	e.Amount = 700
	e.Change = 300
	e.Dispensed = ledger.DenominationSet{100: 3}
	e.IdempotencyKey = "buy-1"
	require.NoError(t, store.Append(ctx, e))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, journal.KindPurchase, got.Kind)
	assert.Equal(t, vending.ItemID(1), got.ItemID)
	assert.Equal(t, int64(700), got.Amount)
	assert.Equal(t, int64(300), got.Change)
	assert.Equal(t, vending.StatusOK, got.Status)
	assert.True(t, got.Dispensed.Equal(ledger.DenominationSet{100: 3}))
	assert.Equal(t, e.Balances, got.Balances)
	assert.Equal(t, "buy-1", got.IdempotencyKey)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_RejectedEntryKeepsStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := journal.NewEntry(journal.KindPurchase, vending.StatusNoChangeAvailable, vending.Balances{Inserted: 1000})
	e.ItemID = 3
	e.Amount = 500
	require.NoError(t, store.Append(ctx, e))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, vending.StatusNoChangeAvailable, entries[0].Status)
	assert.Nil(t, entries[0].Dispensed)
}

func TestStore_ListNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, v := range []int64{100, 500, 1000} {
		e := journal.NewEntry(journal.KindInsert, vending.StatusOK, vending.Balances{})
		e.Amount = v
		require.NoError(t, store.Append(ctx, e))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1000), all[0].Amount)
	assert.Equal(t, int64(100), all[2].Amount)

	one, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, int64(1000), one[0].Amount)
}

func TestStore_DuplicateIdempotencyKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := journal.NewEntry(journal.KindInsert, vending.StatusOK, vending.Balances{})
	first.IdempotencyKey = "coin-1"
	require.NoError(t, store.Append(ctx, first))

	exists, err := store.Exists(ctx, "coin-1")
	require.NoError(t, err)
	assert.True(t, exists)

	missing, err := store.Exists(ctx, "coin-2")
	require.NoError(t, err)
	assert.False(t, missing)

	second := journal.NewEntry(journal.KindInsert, vending.StatusOK, vending.Balances{})
	second.IdempotencyKey = "coin-1"
	assert.ErrorIs(t, store.Append(ctx, second), journal.ErrDuplicateIdempotencyKey)
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := journal.NewEntry(journal.KindRefund, vending.StatusOK, vending.Balances{})
	e.IdempotencyKey = "refund-1"
	require.NoError(t, store.Append(ctx, e))
	require.NoError(t, store.Reset(ctx))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The key is free again after a reset.
	require.NoError(t, store.Append(ctx, e))
}
