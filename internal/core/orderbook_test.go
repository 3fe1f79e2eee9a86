package core

import (
	"math"
	"testing"

	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(side domain.Side, price float64, qty, owner int64) domain.Order {
	return domain.Order{Side: side, Price: price, Quantity: qty, OwnerID: owner}
}

func mustAdd(t *testing.T, ob *OrderBook, o domain.Order) []domain.Trade {
	t.Helper()
	trades, err := ob.AddOrder(o)
	require.NoError(t, err)
	return trades
}

func TestPartialFillRestsRemainder(t *testing.T) {
	ob := NewOrderBook(100, 0)
	assert.Empty(t, mustAdd(t, ob, order(domain.Sell, 99, 10, 1)))
	assert.Empty(t, mustAdd(t, ob, order(domain.Sell, 101, 10, 2)))

	trades := mustAdd(t, ob, order(domain.Buy, 100, 15, 3))
	require.Len(t, trades, 1)
	assert.Equal(t, 99.0, trades[0].Price)
	assert.Equal(t, int64(10), trades[0].Quantity)
	assert.Equal(t, int64(3), trades[0].BuyerID)
	assert.Equal(t, int64(1), trades[0].SellerID)

	bid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, 100.0, bid)
	ask, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 101.0, ask)
	spread, ok := ob.Spread()
	require.True(t, ok)
	assert.Equal(t, 1.0, spread)

	buys := ob.Orders(domain.Buy)
	require.Len(t, buys, 1)
	assert.Equal(t, int64(5), buys[0].Quantity)
	sells := ob.Orders(domain.Sell)
	require.Len(t, sells, 1)
	assert.Equal(t, 101.0, sells[0].Price)
	assert.Equal(t, 99.0, ob.CurrentPrice())
}

func TestTradePriceIsRestingPrice(t *testing.T) {
	ob := NewOrderBook(100, 0)
	mustAdd(t, ob, order(domain.Buy, 102, 5, 1))

	trades := mustAdd(t, ob, order(domain.Sell, 95, 5, 2))
	require.Len(t, trades, 1)
	assert.Equal(t, 102.0, trades[0].Price)
	assert.Equal(t, int64(1), trades[0].BuyerID)
	assert.Equal(t, int64(2), trades[0].SellerID)
}

func TestTimePriorityWithinLevel(t *testing.T) {
	ob := NewOrderBook(100, 0)
	mustAdd(t, ob, order(domain.Sell, 100, 3, 1))
	mustAdd(t, ob, order(domain.Sell, 100, 3, 2))
	mustAdd(t, ob, order(domain.Sell, 99.5, 3, 3))

	trades := mustAdd(t, ob, order(domain.Buy, 100, 7, 9))
	require.Len(t, trades, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{trades[0].SellerID, trades[1].SellerID, trades[2].SellerID})
	assert.Equal(t, []int64{3, 3, 1}, []int64{trades[0].Quantity, trades[1].Quantity, trades[2].Quantity})

	sells := ob.Orders(domain.Sell)
	require.Len(t, sells, 1)
	assert.Equal(t, int64(2), sells[0].OwnerID)
	assert.Equal(t, int64(2), sells[0].Quantity)
}

func TestRejectsInvalidOrdersWithoutMutation(t *testing.T) {
	ob := NewOrderBook(100, 0)
	mustAdd(t, ob, order(domain.Sell, 101, 10, 1))
	mustAdd(t, ob, order(domain.Buy, 99, 10, 2))
	before := ob.SnapshotLevels(0)

	tests := []struct {
		name  string
		order domain.Order
	}{
		{"zero price", order(domain.Buy, 0, 10, 3)},
		{"negative price", order(domain.Sell, -5, 10, 3)},
		{"nan price", order(domain.Buy, math.NaN(), 10, 3)},
		{"infinite price", order(domain.Buy, math.Inf(1), 10, 3)},
		{"zero quantity", order(domain.Buy, 200, 0, 3)},
		{"negative quantity", order(domain.Sell, 1, -1, 3)},
		{"unknown side", order(domain.Side("HOLD"), 100, 1, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades, err := ob.AddOrder(tt.order)
			assert.ErrorIs(t, err, ErrInvalidOrder)
			assert.Nil(t, trades)
			assert.Equal(t, before, ob.SnapshotLevels(0))
		})
	}
	assert.Equal(t, int64(0), ob.TotalTrades())
}

func TestSnapshotLevelsAggregatesAndIsIdempotent(t *testing.T) {
	ob := NewOrderBook(100, 0)
	mustAdd(t, ob, order(domain.Buy, 99, 2, 1))
	mustAdd(t, ob, order(domain.Buy, 99, 3, 2))
	mustAdd(t, ob, order(domain.Buy, 98, 1, 3))
	mustAdd(t, ob, order(domain.Buy, 97, 1, 4))
	mustAdd(t, ob, order(domain.Sell, 101, 4, 5))

	levels := ob.SnapshotLevels(2)
	assert.Equal(t, []domain.BookLevel{
		{Price: 99, Quantity: 5, Orders: 2},
		{Price: 98, Quantity: 1, Orders: 1},
	}, levels.Bids)
	assert.Equal(t, []domain.BookLevel{{Price: 101, Quantity: 4, Orders: 1}}, levels.Asks)
	assert.Equal(t, levels, ob.SnapshotLevels(2))

	bid1, _ := ob.BestBid()
	bid2, _ := ob.BestBid()
	assert.Equal(t, bid1, bid2)
}

func TestEmptyBookHasNoQuotes(t *testing.T) {
	ob := NewOrderBook(100, 0)
	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
	_, ok = ob.Spread()
	assert.False(t, ok)
	assert.Equal(t, 100.0, ob.CurrentPrice())

	mustAdd(t, ob, order(domain.Buy, 99, 1, 1))
	_, ok = ob.Spread()
	assert.False(t, ok)
}

func TestTradeHistoryIsBounded(t *testing.T) {
	ob := NewOrderBook(100, 3)
	for i := 0; i < 5; i++ {
		mustAdd(t, ob, order(domain.Sell, 100, 1, 1))
		mustAdd(t, ob, order(domain.Buy, 100, 1, 2))
	}
	trades := ob.Trades()
	require.Len(t, trades, 3)
	assert.Equal(t, uint64(3), trades[0].ID)
	assert.Equal(t, uint64(5), trades[2].ID)
	assert.Equal(t, int64(5), ob.TotalTrades())
	assert.Equal(t, int64(5), ob.TotalVolume())

	recent := ob.RecentTrades(2)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(4), recent[0].ID)
	assert.Equal(t, uint64(5), recent[1].ID)
	assert.Len(t, ob.RecentTrades(50), 3)
	assert.Empty(t, ob.RecentTrades(0))
}

func TestNextOrderIDIsHonoured(t *testing.T) {
	ob := NewOrderBook(100, 0)
	id := ob.NextOrderID()
	o := order(domain.Sell, 101, 5, 1)
	o.ID = id
	mustAdd(t, ob, o)
	mustAdd(t, ob, order(domain.Sell, 102, 5, 1))

	sells := ob.Orders(domain.Sell)
	require.Len(t, sells, 2)
	assert.Equal(t, id, sells[0].ID)
	assert.Equal(t, id+1, sells[1].ID)
}

func TestResetClearsBook(t *testing.T) {
	ob := NewOrderBook(100, 10)
	mustAdd(t, ob, order(domain.Sell, 90, 1, 1))
	mustAdd(t, ob, order(domain.Buy, 95, 2, 2))

	ob.Reset(50)
	bids, asks := ob.Depth()
	assert.Zero(t, bids)
	assert.Zero(t, asks)
	assert.Empty(t, ob.Trades())
	assert.Zero(t, ob.TotalTrades())
	assert.Equal(t, 50.0, ob.CurrentPrice())

	trades := mustAdd(t, ob, order(domain.Buy, 50, 1, 1))
	assert.Empty(t, trades)
	assert.Equal(t, uint64(1), ob.Orders(domain.Buy)[0].ID)
}

func TestCorruptRestingOrderPanics(t *testing.T) {
	ob := NewOrderBook(100, 0)
	mustAdd(t, ob, order(domain.Sell, 100, 1, 1))
	ob.Sell[0].Quantity = 0

	assert.Panics(t, func() {
		_, _ = ob.AddOrder(order(domain.Buy, 100, 1, 2))
	})
}
