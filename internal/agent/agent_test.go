package agent

import (
	"math/rand"
	"testing"

	"github.com/olyamironova/simexchange/internal/config"
	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPopulationRespectsConfig(t *testing.T) {
	cfg := config.Default().Simulation
	cfg.NumAgents = 200
	cfg.Strategies = map[string]float64{"market_maker": 0.25, "noise_trader": 0.75}

	agents := Population(rand.New(rand.NewSource(1)), cfg)
	require.Len(t, agents, 200)

	counts := map[strategy.Kind]int{}
	for i, a := range agents {
		assert.Equal(t, int64(i), a.ID)
		assert.True(t, a.Cash.Equal(dec("10000")))
		assert.Zero(t, a.Position)
		assert.GreaterOrEqual(t, a.Params.RiskTolerance, 0.3)
		assert.LessOrEqual(t, a.Params.RiskTolerance, 0.8)
		assert.GreaterOrEqual(t, a.Params.Cooldown, 0.5)
		assert.LessOrEqual(t, a.Params.Cooldown, 2.0)
		counts[a.Strategy]++
	}
	assert.Len(t, counts, 2)
	assert.InDelta(t, 50, counts[strategy.MarketMaker], 20)

	again := Population(rand.New(rand.NewSource(1)), cfg)
	for i := range agents {
		assert.Equal(t, agents[i].Strategy, again[i].Strategy)
		assert.Equal(t, agents[i].Params, again[i].Params)
	}
}

func TestApplyConservesQuantityAndCash(t *testing.T) {
	buyer := New(1, strategy.NoiseTrader, domain.AgentParams{}, dec("1000"))
	seller := New(2, strategy.NoiseTrader, domain.AgentParams{}, dec("1000"))
	seller.Position = 10

	tr := domain.Trade{Price: 99.5, Quantity: 4, BuyerID: 1, SellerID: 2}
	buyer.Apply(tr)
	seller.Apply(tr)

	assert.Equal(t, int64(4), buyer.Position)
	assert.Equal(t, int64(6), seller.Position)
	assert.True(t, buyer.Cash.Equal(dec("602")), buyer.Cash.String())
	assert.True(t, seller.Cash.Equal(dec("1398")), seller.Cash.String())
	assert.Equal(t, int64(4), buyer.Stats.VolumeTraded)
	assert.True(t, seller.Stats.ValueTraded.Equal(dec("398")))
}

func TestSelfTradeIsNeutral(t *testing.T) {
	a := New(3, strategy.NoiseTrader, domain.AgentParams{}, dec("500"))
	a.Position = 2
	a.Apply(domain.Trade{Price: 10, Quantity: 2, BuyerID: 3, SellerID: 3})
	assert.True(t, a.Cash.Equal(dec("500")))
	assert.Equal(t, int64(2), a.Position)
}

func TestHoldsReserveCashAndPosition(t *testing.T) {
	a := New(7, strategy.NoiseTrader, domain.AgentParams{}, dec("1000"))
	a.Position = 5

	a.Hold(domain.Order{ID: 1, Side: domain.Sell, Price: 10, Quantity: 5, OwnerID: 7})
	a.Hold(domain.Order{ID: 2, Side: domain.Buy, Price: 10, Quantity: 30, OwnerID: 7})
	assert.Zero(t, a.AvailablePosition())
	assert.True(t, a.AvailableCash().Equal(dec("700")), a.AvailableCash().String())
	assert.Equal(t, 2, a.OpenOrders())

	// the resting buy fills below its limit, which frees the difference
	a.Apply(domain.Trade{Price: 9, Quantity: 10, BuyerID: 7, SellerID: 8, BuyOrderID: 2, SellOrderID: 50})
	assert.True(t, a.Cash.Equal(dec("910")))
	assert.True(t, a.AvailableCash().Equal(dec("710")), a.AvailableCash().String())
	assert.Equal(t, int64(15), a.Position)
	assert.Equal(t, int64(10), a.AvailablePosition())

	a.Apply(domain.Trade{Price: 10, Quantity: 5, BuyerID: 8, SellerID: 7, BuyOrderID: 51, SellOrderID: 1})
	assert.Equal(t, int64(10), a.Position)
	assert.Equal(t, int64(10), a.AvailablePosition())
	assert.Equal(t, 1, a.OpenOrders())

	// fills of orders the agent does not hold leave reservations alone
	a.Apply(domain.Trade{Price: 10, Quantity: 20, BuyerID: 7, SellerID: 8, BuyOrderID: 99, SellOrderID: 52})
	assert.True(t, a.Cash.Equal(dec("760")))
	assert.True(t, a.AvailableCash().Equal(dec("560")))

	a.Apply(domain.Trade{Price: 10, Quantity: 20, BuyerID: 7, SellerID: 8, BuyOrderID: 2, SellOrderID: 53})
	assert.Zero(t, a.OpenOrders())
	assert.True(t, a.AvailableCash().Equal(a.Cash))
}

func TestDecideRespectsRestingOrders(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := New(2, strategy.NoiseTrader, domain.AgentParams{TradingFrequency: 1}, dec("100"))
	a.Position = 5
	a.Hold(domain.Order{ID: 1, Side: domain.Sell, Price: 12, Quantity: 5, OwnerID: 2})
	a.Hold(domain.Order{ID: 2, Side: domain.Buy, Price: 9, Quantity: 6, OwnerID: 2})
	snap := &domain.MarketSnapshot{CurrentPrice: 10, PriceHistory: []float64{10}}

	var orders int
	for c := int64(1); c <= 300; c++ {
		o, ok := a.Decide(rng, snap, c)
		if !ok {
			continue
		}
		orders++
		require.Equal(t, domain.Buy, o.Side, "every unit is already offered")
		cost := decimal.NewFromFloat(o.Price).Mul(decimal.NewFromInt(o.Quantity))
		assert.True(t, cost.LessThanOrEqual(dec("46")), cost.String())
	}
	assert.Positive(t, orders)
}

func TestCreditCountsAsFunding(t *testing.T) {
	a := New(0, strategy.NoiseTrader, domain.AgentParams{}, dec("1000"))
	a.Credit(dec("250"))
	assert.True(t, a.Cash.Equal(dec("1250")))
	assert.True(t, a.Profit(100).IsZero())

	a.Position = 5
	assert.True(t, a.PortfolioValue(100).Equal(dec("1750")))
	assert.True(t, a.Profit(100).Equal(dec("500")))
	assert.InDelta(t, 40.0, a.ProfitPct(100), 1e-9)
}

func TestReadyHonoursCooldownAndFrequency(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	never := New(0, strategy.NoiseTrader, domain.AgentParams{TradingFrequency: 0}, dec("1000"))
	always := New(1, strategy.NoiseTrader, domain.AgentParams{TradingFrequency: 1, Cooldown: 2}, dec("1000"))
	for c := int64(1); c < 20; c++ {
		assert.False(t, never.Ready(rng, c))
	}

	assert.True(t, always.Ready(rng, 1))
	always.lastOrderCycle, always.hasOrdered = 5, true
	assert.False(t, always.Ready(rng, 6))
	assert.True(t, always.Ready(rng, 7))
}

func TestDecideCountsOrdersAndFitsCash(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := New(4, strategy.NoiseTrader, domain.AgentParams{TradingFrequency: 1}, dec("50"))
	a.Position = 100
	snap := &domain.MarketSnapshot{CurrentPrice: 10, PriceHistory: []float64{10}}

	var orders int64
	for c := int64(1); c <= 200; c++ {
		o, ok := a.Decide(rng, snap, c)
		if !ok {
			continue
		}
		orders++
		assert.Equal(t, int64(4), o.OwnerID)
		if o.Side == domain.Buy {
			cost := decimal.NewFromFloat(o.Price).Mul(decimal.NewFromInt(o.Quantity))
			assert.True(t, cost.LessThanOrEqual(a.Cash))
		} else {
			assert.LessOrEqual(t, o.Quantity, a.Position)
		}
	}
	assert.Positive(t, orders)
	assert.Equal(t, orders, a.Stats.TotalOrders)
	assert.Equal(t, orders, a.Stats.BuyOrders+a.Stats.SellOrders)
}

func TestPerformance(t *testing.T) {
	winner := New(0, strategy.Momentum, domain.AgentParams{}, dec("100"))
	winner.Position = 1
	loser := New(1, strategy.Momentum, domain.AgentParams{}, dec("100"))
	loser.Cash = dec("90")
	flat := New(2, strategy.NoiseTrader, domain.AgentParams{}, dec("100"))

	agents := []*Agent{loser, flat, winner}

	board := Leaderboard(agents, 10)
	require.Len(t, board, 3)
	assert.Equal(t, []int64{0, 2, 1}, []int64{board[0].ID, board[1].ID, board[2].ID})
	assert.Equal(t, "10.00", board[0].Profit)

	sum := Summarize(agents, 10)
	assert.Equal(t, 1, sum.Profitable)
	assert.Equal(t, 1, sum.Losing)
	assert.Equal(t, 1, sum.BreakEven)
	assert.Equal(t, "0.00", sum.TotalProfit)
	assert.Equal(t, "10.00", sum.BestProfit)
	assert.Equal(t, "-10.00", sum.WorstProfit)

	groups := ByStrategy(agents, 10)
	require.Len(t, groups, 2)
	assert.Equal(t, "momentum", groups[0].Strategy)
	assert.Equal(t, 2, groups[0].Agents)
	assert.Equal(t, "noise_trader", groups[1].Strategy)

	empty := Summarize(nil, 10)
	assert.Equal(t, "0.00", empty.TotalProfit)
}
