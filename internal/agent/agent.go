package agent

import (
	"math/rand"

	"github.com/olyamironova/simexchange/internal/config"
	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/strategy"
	"github.com/shopspring/decimal"
)

type Stats struct {
	BuyOrders    int64
	SellOrders   int64
	TotalOrders  int64
	VolumeTraded int64
	ValueTraded  decimal.Decimal
}

// holding is the unfilled part of an agent order resting in the book.
type holding struct {
	side  domain.Side
	price decimal.Decimal
	qty   int64
}

// Agent is one simulated participant. Orders are sized against cash and
// position net of the agent's own resting orders, so fills never drive cash
// negative and only the market maker can end up short.
type Agent struct {
	ID       int64
	Strategy strategy.Kind
	Params   domain.AgentParams
	Cash     decimal.Decimal
	Position int64
	Stats    Stats

	// funded is starting cash plus every injection; profit is measured against it.
	funded         decimal.Decimal
	lastOrderCycle int64
	hasOrdered     bool

	open      map[uint64]*holding
	committed decimal.Decimal
	openSell  int64
}

func New(id int64, kind strategy.Kind, params domain.AgentParams, cash decimal.Decimal) *Agent {
	return &Agent{
		ID:       id,
		Strategy: kind,
		Params:   params,
		Cash:     cash,
		funded:   cash,
		Stats:    Stats{ValueTraded: decimal.Zero},

		open:      make(map[uint64]*holding),
		committed: decimal.Zero,
	}
}

// Population draws count agents from cfg. Each agent takes, in order, a
// strategy draw and one draw per parameter range.
func Population(rng *rand.Rand, cfg config.Simulation) []*Agent {
	weights := cfg.Weights()
	cash := decimal.NewFromFloat(cfg.InitialBalance)
	out := make([]*Agent, cfg.NumAgents)
	for i := range out {
		kind := pickKind(rng, weights)
		params := domain.AgentParams{
			RiskTolerance:    cfg.RiskTolerance.Draw(rng),
			TradingFrequency: cfg.TradingFrequency.Draw(rng),
			PriceSensitivity: cfg.PriceSensitivity.Draw(rng),
			Cooldown:         cfg.Cooldown.Draw(rng),
		}
		out[i] = New(int64(i), kind, params, cash)
	}
	return out
}

func pickKind(rng *rand.Rand, weights []float64) strategy.Kind {
	u := rng.Float64()
	var acc float64
	last := strategy.NoiseTrader
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = strategy.Kind(i)
		acc += w
		if u < acc {
			return last
		}
	}
	return last
}

// Ready applies the cooldown, measured in cycles since the agent's last
// order, and then the trading-frequency draw.
func (a *Agent) Ready(rng *rand.Rand, cycle int64) bool {
	if a.hasOrdered && float64(cycle-a.lastOrderCycle) < a.Params.Cooldown {
		return false
	}
	return rng.Float64() < a.Params.TradingFrequency
}

// Decide asks the agent's strategy for an order this cycle and records it.
func (a *Agent) Decide(rng *rand.Rand, snap *domain.MarketSnapshot, cycle int64) (domain.Order, bool) {
	if !a.Ready(rng, cycle) {
		return domain.Order{}, false
	}
	cash := a.AvailableCash()
	in, ok := a.Strategy.Decide(rng, snap, cash.InexactFloat64(), a.AvailablePosition())
	if !ok {
		return domain.Order{}, false
	}
	// float sizing can land a hair above the decimal ledger
	if in.Side == domain.Buy {
		for in.Quantity > 0 && decimal.NewFromFloat(in.Price).Mul(decimal.NewFromInt(in.Quantity)).GreaterThan(cash) {
			in.Quantity--
		}
		if in.Quantity == 0 {
			return domain.Order{}, false
		}
	}

	a.lastOrderCycle = cycle
	a.hasOrdered = true
	a.Stats.TotalOrders++
	if in.Side == domain.Buy {
		a.Stats.BuyOrders++
	} else {
		a.Stats.SellOrders++
	}
	return in.Order(a.ID), true
}

// Hold reserves cash for a buy, or position for a sell, until the order
// fills. Call it with the order as submitted, before applying its trades.
func (a *Agent) Hold(o domain.Order) {
	if o.Quantity <= 0 {
		return
	}
	h := &holding{side: o.Side, price: decimal.NewFromFloat(o.Price), qty: o.Quantity}
	a.open[o.ID] = h
	if o.Side == domain.Buy {
		a.committed = a.committed.Add(h.price.Mul(decimal.NewFromInt(o.Quantity)))
	} else {
		a.openSell += o.Quantity
	}
}

func (a *Agent) release(orderID uint64, qty int64) {
	h, ok := a.open[orderID]
	if !ok {
		return
	}
	fill := min(qty, h.qty)
	h.qty -= fill
	if h.side == domain.Buy {
		a.committed = a.committed.Sub(h.price.Mul(decimal.NewFromInt(fill)))
	} else {
		a.openSell -= fill
	}
	if h.qty == 0 {
		delete(a.open, orderID)
	}
}

// AvailableCash is cash not reserved by resting buys.
func (a *Agent) AvailableCash() decimal.Decimal { return a.Cash.Sub(a.committed) }

// AvailablePosition is the position not already offered by resting sells.
func (a *Agent) AvailablePosition() int64 { return a.Position - a.openSell }

func (a *Agent) OpenOrders() int { return len(a.open) }

// Apply books the agent's side(s) of a trade and releases the matching holds.
func (a *Agent) Apply(t domain.Trade) {
	notional := t.Notional()
	if t.BuyerID == a.ID {
		a.Cash = a.Cash.Sub(notional)
		a.Position += t.Quantity
		a.recordVolume(t.Quantity, notional)
		a.release(t.BuyOrderID, t.Quantity)
	}
	if t.SellerID == a.ID {
		a.Cash = a.Cash.Add(notional)
		a.Position -= t.Quantity
		a.recordVolume(t.Quantity, notional)
		a.release(t.SellOrderID, t.Quantity)
	}
}

func (a *Agent) recordVolume(qty int64, notional decimal.Decimal) {
	a.Stats.VolumeTraded += qty
	a.Stats.ValueTraded = a.Stats.ValueTraded.Add(notional)
}

func (a *Agent) Credit(amount decimal.Decimal) {
	a.Cash = a.Cash.Add(amount)
	a.funded = a.funded.Add(amount)
}

func (a *Agent) Funded() decimal.Decimal { return a.funded }

func (a *Agent) PortfolioValue(price float64) decimal.Decimal {
	return a.Cash.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(a.Position)))
}

func (a *Agent) Profit(price float64) decimal.Decimal {
	return a.PortfolioValue(price).Sub(a.funded)
}

func (a *Agent) ProfitPct(price float64) float64 {
	if a.funded.IsZero() {
		return 0
	}
	return a.Profit(price).Div(a.funded).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func (a *Agent) Snapshot(price float64) domain.AgentStats {
	return domain.AgentStats{
		ID:             a.ID,
		Strategy:       a.Strategy.String(),
		Cash:           a.Cash.StringFixed(2),
		Position:       a.Position,
		Funded:         a.Funded().StringFixed(2),
		OpenOrders:     a.OpenOrders(),
		Reserved:       a.committed.StringFixed(2),
		PortfolioValue: a.PortfolioValue(price).StringFixed(2),
		Profit:         a.Profit(price).StringFixed(2),
		ProfitPct:      a.ProfitPct(price),
		Params:         a.Params,
		BuyOrders:      a.Stats.BuyOrders,
		SellOrders:     a.Stats.SellOrders,
		TotalOrders:    a.Stats.TotalOrders,
		VolumeTraded:   a.Stats.VolumeTraded,
		ValueTraded:    a.Stats.ValueTraded.StringFixed(2),
	}
}
