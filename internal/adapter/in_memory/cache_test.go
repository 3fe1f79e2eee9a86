package in_memory

import (
	"context"
	"testing"

	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	miss, err := c.GetSnapshot(ctx, "run")
	require.NoError(t, err)
	assert.Nil(t, miss)

	bid := 99.0
	snap := &domain.SimulationSnapshot{RunID: "run", Cycle: 3, BestBid: &bid, PriceHistory: []float64{100, 101}}
	require.NoError(t, c.SetSnapshot(ctx, "run", snap))

	snap.PriceHistory[0] = -1
	*snap.BestBid = 0

	got, err := c.GetSnapshot(ctx, "run")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.Cycle)
	assert.Equal(t, []float64{100, 101}, got.PriceHistory)
	assert.Equal(t, 99.0, *got.BestBid)

	got.PriceHistory[1] = 0
	again, _ := c.GetSnapshot(ctx, "run")
	assert.Equal(t, 101.0, again.PriceHistory[1])
}
