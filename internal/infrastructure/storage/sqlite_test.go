package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

var _ domain.CooldownStore = (*SQLiteStore)(nil)
var _ domain.CooldownStore = (*RedisStore)(nil)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cooldowns.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 123, time.UTC)

	require.NoError(t, store.SaveCooldown(ctx, "symbol", "BTCUSDT", t0))
	require.NoError(t, store.SaveCooldown(ctx, "symbol", "BTCUSDT", t0.Add(time.Minute)))
	require.NoError(t, store.SaveCooldown(ctx, "feed", "BTCUSDT", t0))

	symbols, err := store.LoadCooldowns(ctx, "symbol")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.True(t, symbols["BTCUSDT"].Equal(t0.Add(time.Minute)))

	feeds, err := store.LoadCooldowns(ctx, "feed")
	require.NoError(t, err)
	assert.True(t, feeds["BTCUSDT"].Equal(t0))
}

func TestSQLiteStore_DeleteBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveCooldown(ctx, "symbol", "OLDUSDT", t0))
	require.NoError(t, store.SaveCooldown(ctx, "symbol", "NEWUSDT", t0.Add(time.Hour)))
	require.NoError(t, store.SaveCooldown(ctx, "feed", "Bybit", t0))

	require.NoError(t, store.DeleteCooldownsBefore(ctx, "symbol", t0))

	symbols, err := store.LoadCooldowns(ctx, "symbol")
	require.NoError(t, err)
	assert.NotContains(t, symbols, "OLDUSDT")
	assert.Contains(t, symbols, "NEWUSDT")

	feeds, err := store.LoadCooldowns(ctx, "feed")
	require.NoError(t, err)
	assert.Contains(t, feeds, "Bybit", "other namespaces untouched")
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldowns.db")
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveCooldown(ctx, "symbol", "ETHUSDT", t0))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.LoadCooldowns(ctx, "symbol")
	require.NoError(t, err)
	assert.True(t, got["ETHUSDT"].Equal(t0))
}
