package engine

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/olyamironova/simexchange/internal/agent"
	"github.com/olyamironova/simexchange/internal/config"
	"github.com/olyamironova/simexchange/internal/core"
	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/history"
	"github.com/olyamironova/simexchange/internal/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Simulator is the simulation clock. It owns the order book, the agents and
// the rolling statistics, and is not safe for concurrent use; see Runner.
type Simulator struct {
	cfg   config.Simulation
	rng   *rand.Rand
	log   *zap.SugaredLogger
	runID string

	book   *core.OrderBook
	agents []*agent.Agent
	bot    *strategy.Bot

	cycle           int64
	lastInjection   int64
	injectionCycles int64
	injectionAmount decimal.Decimal
	avgSpreadCycles int

	prices      *history.Buffer[float64]
	volumes     *history.Buffer[int64]
	tradeCounts *history.Buffer[int64]
	spreads     *history.Buffer[float64]

	volatility   float64
	avgSpread    float64
	hasAvgSpread bool
}

func NewSimulator(cfg config.Simulation, log *zap.SugaredLogger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	bot, err := strategy.NewBot(cfg.Bot)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandomFromReader(rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, fmt.Errorf("derive run id: %w", err)
	}

	s := &Simulator{
		cfg:             cfg,
		rng:             rand.New(rand.NewSource(cfg.Seed)),
		log:             log,
		runID:           id.String(),
		book:            core.NewOrderBook(cfg.InitialPrice, cfg.MaxTradesHistory),
		bot:             bot,
		injectionCycles: cfg.BalanceInjectionCycles,
		injectionAmount: decimal.NewFromFloat(cfg.BalanceInjectionAmount),
		avgSpreadCycles: cfg.AvgSpreadCycles,
		prices:          history.NewBuffer[float64](cfg.MaxHistory),
		volumes:         history.NewBuffer[int64](cfg.MaxHistory),
		tradeCounts:     history.NewBuffer[int64](cfg.MaxHistory),
		spreads:         history.NewBuffer[float64](cfg.MaxHistory),
	}
	s.reset()
	s.log.Infow("simulation created", "run_id", s.runID, "agents", len(s.agents), "seed", cfg.Seed)
	return s, nil
}

// Reset restores the initial market and draws a fresh agent population.
// Runtime settings and the bot configuration survive a reset.
func (s *Simulator) Reset() {
	s.reset()
	s.log.Infow("simulation reset", "run_id", s.runID)
}

func (s *Simulator) reset() {
	s.book.Reset(s.cfg.InitialPrice)
	s.agents = agent.Population(s.rng, s.cfg)
	s.bot.ResetStats()

	s.cycle = 0
	s.lastInjection = 0
	s.prices.Reset(s.cfg.InitialPrice)
	s.volumes.Reset(0)
	s.tradeCounts.Reset(0)
	s.spreads.Reset()
	s.volatility = history.DefaultVolatility
	s.avgSpread, s.hasAvgSpread = 0, false
}

// RunCycle advances the simulation by one step and returns its trades in
// execution order.
func (s *Simulator) RunCycle() []domain.Trade {
	s.cycle++
	snap := s.marketSnapshot()

	var trades []domain.Trade
	for _, a := range s.agents {
		o, ok := a.Decide(s.rng, snap, s.cycle)
		if !ok {
			continue
		}
		trades = append(trades, s.submit(o)...)
	}

	// the bot quotes off the price the cycle opened at
	if o, ok := s.bot.Next(s.rng, s.cycle, snap.CurrentPrice); ok {
		trades = append(trades, s.submit(o)...)
	}

	s.injectBalances()
	s.record(trades)
	return trades
}

func (s *Simulator) submit(o domain.Order) []domain.Trade {
	o.ID = s.book.NextOrderID()
	trades, err := s.book.AddOrder(o)
	if err != nil {
		s.log.Warnw("order rejected", "cycle", s.cycle, "order", o.String(), "error", err)
		return nil
	}
	if !o.IsBot() {
		if a, ok := s.agent(o.OwnerID); ok {
			a.Hold(o)
		}
	}
	for _, t := range trades {
		if buyer, ok := s.agent(t.BuyerID); ok {
			buyer.Apply(t)
		}
		if t.SellerID != t.BuyerID {
			if seller, ok := s.agent(t.SellerID); ok {
				seller.Apply(t)
			}
		}
		if t.BuyerID == domain.BotOwnerID || t.SellerID == domain.BotOwnerID {
			s.bot.RecordFill(t.Quantity)
		}
	}
	return trades
}

func (s *Simulator) agent(id int64) (*agent.Agent, bool) {
	if id < 0 || id >= int64(len(s.agents)) {
		return nil, false
	}
	return s.agents[id], true
}

func (s *Simulator) injectBalances() {
	if s.cycle-s.lastInjection < s.injectionCycles {
		return
	}
	for _, a := range s.agents {
		a.Credit(s.injectionAmount)
	}
	s.lastInjection = s.cycle
	s.log.Debugw("balance injection", "cycle", s.cycle, "amount", s.injectionAmount.String(), "agents", len(s.agents))
}

func (s *Simulator) record(trades []domain.Trade) {
	var volume int64
	for _, t := range trades {
		volume += t.Quantity
	}
	s.prices.Append(s.book.CurrentPrice())
	s.volumes.Append(volume)
	s.tradeCounts.Append(int64(len(trades)))
	if len(trades) > 0 {
		if spread, ok := s.book.Spread(); ok {
			s.spreads.Append(spread)
		}
	}

	if s.cfg.FastMode {
		s.volatility = history.DefaultVolatility
	} else {
		s.volatility = history.Volatility(s.prices.Last(history.VolatilityWindow))
	}
	s.updateAvgSpread()
}

func (s *Simulator) updateAvgSpread() {
	s.avgSpread, s.hasAvgSpread = history.AverageSpread(s.spreads.Last(s.avgSpreadCycles), s.avgSpreadCycles)
}

func (s *Simulator) marketSnapshot() *domain.MarketSnapshot {
	snap := &domain.MarketSnapshot{
		CurrentPrice:  s.book.CurrentPrice(),
		PriceHistory:  s.prices.Last(s.cfg.SnapshotWindow),
		VolumeHistory: s.volumes.Last(s.cfg.SnapshotWindow),
		Volatility:    s.volatility,
	}
	snap.Spread = optional(s.book.Spread())
	snap.BestBid = optional(s.book.BestBid())
	snap.BestAsk = optional(s.book.BestAsk())
	return snap
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func (s *Simulator) SetBalanceInjectionSettings(cycles int64, amount float64) error {
	if cycles < MinInjectionCycles || cycles > MaxInjectionCycles {
		return fmt.Errorf("%w: injection cycles must be in [%d, %d], got %d",
			ErrInvalidSetting, MinInjectionCycles, MaxInjectionCycles, cycles)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("%w: injection amount must not be negative, got %v", ErrInvalidSetting, amount)
	}
	s.injectionCycles = cycles
	s.injectionAmount = decimal.NewFromFloat(amount)
	s.log.Infow("balance injection updated", "cycles", cycles, "amount", amount)
	return nil
}

func (s *Simulator) SetAvgSpreadCycles(cycles int) error {
	if cycles < MinAvgSpreadCycles || cycles > MaxAvgSpreadCycles {
		return fmt.Errorf("%w: average spread cycles must be in [%d, %d], got %d",
			ErrInvalidSetting, MinAvgSpreadCycles, MaxAvgSpreadCycles, cycles)
	}
	s.avgSpreadCycles = cycles
	s.updateAvgSpread()
	return nil
}

func (s *Simulator) SetBotEnabled(enabled bool) {
	s.bot.SetEnabled(enabled)
	s.log.Infow("bot toggled", "enabled", enabled)
}

// UpdateBotConfig validates the merged configuration before applying any of it.
func (s *Simulator) UpdateBotConfig(u strategy.BotConfigUpdate) error {
	if err := s.bot.Update(u); err != nil {
		return err
	}
	s.log.Infow("bot config updated", "config", s.bot.Config())
	return nil
}

func (s *Simulator) BotConfig() strategy.BotConfig { return s.bot.Config() }

func (s *Simulator) RunID() string { return s.runID }

func (s *Simulator) Cycle() int64 { return s.cycle }

func (s *Simulator) Levels(depth int) domain.BookLevels { return s.book.SnapshotLevels(depth) }

// Trades returns up to limit of the newest retained trades, oldest first.
func (s *Simulator) Trades(limit int) []domain.Trade { return s.book.RecentTrades(limit) }
