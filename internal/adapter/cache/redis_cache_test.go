package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(mr.Addr(), "", 0, ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, c.Ping(ctx))

	miss, err := c.GetSnapshot(ctx, "run")
	require.NoError(t, err)
	assert.Nil(t, miss)

	spread := 0.5
	snap := &domain.SimulationSnapshot{
		RunID:        "run",
		Cycle:        12,
		CurrentPrice: 101.25,
		Spread:       &spread,
		Book:         domain.BookLevels{Bids: []domain.BookLevel{{Price: 101, Quantity: 4, Orders: 2}}},
		Bot:          domain.BotStats{Enabled: true, OrdersPlaced: 2},
	}
	require.NoError(t, c.SetSnapshot(ctx, "run", snap))
	assert.True(t, mr.Exists("snapshot:run"))
	assert.Equal(t, time.Minute, mr.TTL("snapshot:run"))

	got, err := c.GetSnapshot(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, c.Invalidate(ctx, "run"))
	got, err = c.GetSnapshot(ctx, "run")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Second)

	require.NoError(t, c.SetSnapshot(ctx, "run", &domain.SimulationSnapshot{RunID: "run"}))
	mr.FastForward(2 * time.Second)

	got, err := c.GetSnapshot(ctx, "run")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("snapshot:run", "{not json"))

	_, err := c.GetSnapshot(ctx, "run")
	assert.Error(t, err)
}
