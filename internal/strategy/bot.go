package strategy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/olyamironova/simexchange/internal/domain"
)

var ErrInvalidBotConfig = errors.New("invalid bot config")

type BotOrderType string

const (
	BotBuy    BotOrderType = "buy"
	BotSell   BotOrderType = "sell"
	BotRandom BotOrderType = "random"
	BotBoth   BotOrderType = "both"
)

func (t BotOrderType) Valid() bool {
	switch t {
	case BotBuy, BotSell, BotRandom, BotBoth:
		return true
	}
	return false
}

// BotConfig drives the external liquidity bot.
type BotConfig struct {
	Enabled       bool         `yaml:"enabled" json:"enabled"`
	OrderInterval int64        `yaml:"order_interval" json:"order_interval"`
	OrderType     BotOrderType `yaml:"order_type" json:"order_type"`
	Quantity      int64        `yaml:"quantity" json:"quantity"`
	PriceOffset   float64      `yaml:"price_offset" json:"price_offset"`
	PriceRangeMin float64      `yaml:"price_range_min" json:"price_range_min"`
	PriceRangeMax float64      `yaml:"price_range_max" json:"price_range_max"`
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		Enabled:       false,
		OrderInterval: 10,
		OrderType:     BotRandom,
		Quantity:      10,
		PriceOffset:   0.01,
		PriceRangeMin: 0.95,
		PriceRangeMax: 1.05,
	}
}

func (c BotConfig) Validate() error {
	var errs []error
	if c.OrderInterval < 1 || c.OrderInterval > 1000 {
		errs = append(errs, fmt.Errorf("order_interval must be in [1, 1000], got %d", c.OrderInterval))
	}
	if !c.OrderType.Valid() {
		errs = append(errs, fmt.Errorf("order_type must be one of buy, sell, random, both, got %q", c.OrderType))
	}
	if c.Quantity < 1 || c.Quantity > 1000 {
		errs = append(errs, fmt.Errorf("quantity must be in [1, 1000], got %d", c.Quantity))
	}
	if !inRange(c.PriceOffset, 0.001, 0.1) {
		errs = append(errs, fmt.Errorf("price_offset must be in [0.001, 0.1], got %v", c.PriceOffset))
	}
	if !inRange(c.PriceRangeMin, 0.5, 1.0) {
		errs = append(errs, fmt.Errorf("price_range_min must be in [0.5, 1.0], got %v", c.PriceRangeMin))
	}
	if !inRange(c.PriceRangeMax, 1.0, 2.0) {
		errs = append(errs, fmt.Errorf("price_range_max must be in [1.0, 2.0], got %v", c.PriceRangeMax))
	}
	if c.PriceRangeMin >= c.PriceRangeMax {
		errs = append(errs, fmt.Errorf("price_range_min %v must be below price_range_max %v", c.PriceRangeMin, c.PriceRangeMax))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidBotConfig, errors.Join(errs...))
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// BotConfigUpdate is a partial update; nil fields keep their current value.
type BotConfigUpdate struct {
	Enabled       *bool         `json:"enabled,omitempty"`
	OrderInterval *int64        `json:"order_interval,omitempty"`
	OrderType     *BotOrderType `json:"order_type,omitempty"`
	Quantity      *int64        `json:"quantity,omitempty"`
	PriceOffset   *float64      `json:"price_offset,omitempty"`
	PriceRangeMin *float64      `json:"price_range_min,omitempty"`
	PriceRangeMax *float64      `json:"price_range_max,omitempty"`
}

// Apply merges u into c and validates the result. c is never modified.
func (u BotConfigUpdate) Apply(c BotConfig) (BotConfig, error) {
	if u.Enabled != nil {
		c.Enabled = *u.Enabled
	}
	if u.OrderInterval != nil {
		c.OrderInterval = *u.OrderInterval
	}
	if u.OrderType != nil {
		c.OrderType = *u.OrderType
	}
	if u.Quantity != nil {
		c.Quantity = *u.Quantity
	}
	if u.PriceOffset != nil {
		c.PriceOffset = *u.PriceOffset
	}
	if u.PriceRangeMin != nil {
		c.PriceRangeMin = *u.PriceRangeMin
	}
	if u.PriceRangeMax != nil {
		c.PriceRangeMax = *u.PriceRangeMax
	}
	if err := c.Validate(); err != nil {
		return BotConfig{}, err
	}
	return c, nil
}

// Bot places offset limit orders on a fixed cycle cadence.
type Bot struct {
	cfg BotConfig

	ordersPlaced    int64
	buyOrders       int64
	sellOrders      int64
	submittedVolume int64
	filledVolume    int64
	lastOrderCycle  int64
}

func NewBot(cfg BotConfig) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Bot{cfg: cfg}, nil
}

func (b *Bot) Config() BotConfig { return b.cfg }

func (b *Bot) SetEnabled(enabled bool) { b.cfg.Enabled = enabled }

func (b *Bot) Update(u BotConfigUpdate) error {
	cfg, err := u.Apply(b.cfg)
	if err != nil {
		return err
	}
	b.cfg = cfg
	return nil
}

func (b *Bot) Due(cycle int64) bool {
	return b.cfg.Enabled && cycle-b.lastOrderCycle >= b.cfg.OrderInterval
}

// Next returns the bot's order for this cycle, if one is due, and records it.
func (b *Bot) Next(rng *rand.Rand, cycle int64, currentPrice float64) (domain.Order, bool) {
	if !b.Due(cycle) || !(currentPrice > 0) {
		return domain.Order{}, false
	}

	side := b.side(rng)
	offset := b.cfg.PriceOffset * uniform(rng, 0.5, 1.5)
	price := currentPrice * (1 - offset)
	if side == domain.Sell {
		price = currentPrice * (1 + offset)
	}
	price = math.Max(currentPrice*b.cfg.PriceRangeMin, math.Min(currentPrice*b.cfg.PriceRangeMax, price))
	price = math.Round(price*100) / 100
	if price <= 0 {
		return domain.Order{}, false
	}
	qty := max(1, int64(float64(b.cfg.Quantity)*uniform(rng, 0.8, 1.2)))

	b.ordersPlaced++
	b.submittedVolume += qty
	if side == domain.Buy {
		b.buyOrders++
	} else {
		b.sellOrders++
	}
	b.lastOrderCycle = cycle

	return domain.Order{Side: side, Price: price, Quantity: qty, OwnerID: domain.BotOwnerID}, true
}

func (b *Bot) side(rng *rand.Rand) domain.Side {
	switch b.cfg.OrderType {
	case BotBuy:
		return domain.Buy
	case BotSell:
		return domain.Sell
	}
	// random and both draw a side per order
	if rng.Float64() < 0.5 {
		return domain.Buy
	}
	return domain.Sell
}

// RecordFill adds executed bot volume.
func (b *Bot) RecordFill(qty int64) { b.filledVolume += qty }

func (b *Bot) Stats() domain.BotStats {
	return domain.BotStats{
		Enabled:         b.cfg.Enabled,
		OrderType:       string(b.cfg.OrderType),
		OrdersPlaced:    b.ordersPlaced,
		BuyOrders:       b.buyOrders,
		SellOrders:      b.sellOrders,
		SubmittedVolume: b.submittedVolume,
		FilledVolume:    b.filledVolume,
		LastOrderCycle:  b.lastOrderCycle,
	}
}

// ResetStats clears counters and the cadence anchor but keeps the config.
func (b *Bot) ResetStats() {
	*b = Bot{cfg: b.cfg}
}
