package core

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/olyamironova/simexchange/internal/domain"
)

var ErrInvalidOrder = errors.New("invalid order")

const DefaultMaxTrades = 5000

// OrderBook is a single-instrument continuous double auction with
// price-time priority. It is not safe for concurrent use.
type OrderBook struct {
	Buy  []*domain.Order
	Sell []*domain.Order

	trades       []domain.Trade
	maxTrades    int
	totalTrades  int64
	totalVolume  int64
	currentPrice float64

	nextOrderID uint64
	nextTradeID uint64
	seq         uint64
}

func NewOrderBook(initialPrice float64, maxTrades int) *OrderBook {
	if maxTrades <= 0 {
		maxTrades = DefaultMaxTrades
	}
	return &OrderBook{currentPrice: initialPrice, maxTrades: maxTrades}
}

// AddOrder matches o against the opposite side and rests any remainder.
// The returned trades are in execution order.
func (ob *OrderBook) AddOrder(o domain.Order) ([]domain.Trade, error) {
	if err := validateOrder(o); err != nil {
		return nil, err
	}

	ob.seq++
	o.Timestamp = ob.seq
	if o.ID == 0 {
		ob.nextOrderID++
		o.ID = ob.nextOrderID
	} else if o.ID > ob.nextOrderID {
		ob.nextOrderID = o.ID
	}

	in := &o
	var trades []domain.Trade
	if in.Side == domain.Buy {
		trades = ob.executeBuy(in)
		if in.Quantity > 0 {
			ob.Buy = insertOrder(ob.Buy, in, buyBefore)
		}
	} else {
		trades = ob.executeSell(in)
		if in.Quantity > 0 {
			ob.Sell = insertOrder(ob.Sell, in, sellBefore)
		}
	}

	if len(trades) > 0 {
		ob.currentPrice = trades[len(trades)-1].Price
		ob.recordTrades(trades)
	}
	return trades, nil
}

func validateOrder(o domain.Order) error {
	switch {
	case !o.Side.Valid():
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, o.Side)
	case math.IsNaN(o.Price) || math.IsInf(o.Price, 0) || o.Price <= 0:
		return fmt.Errorf("%w: price must be positive, got %v", ErrInvalidOrder, o.Price)
	case o.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, o.Quantity)
	}
	return nil
}

func (ob *OrderBook) executeBuy(o *domain.Order) []domain.Trade {
	var trades []domain.Trade
	for len(ob.Sell) > 0 && o.Quantity > 0 && ob.Sell[0].Price <= o.Price {
		match := ob.Sell[0]
		if match.Quantity <= 0 {
			panic(fmt.Sprintf("orderbook: resting sell %d has quantity %d", match.ID, match.Quantity))
		}
		qty := min(o.Quantity, match.Quantity)
		trades = append(trades, ob.newTrade(match.Price, qty, o, match))

		o.Quantity -= qty
		match.Quantity -= qty
		if match.Quantity == 0 {
			ob.Sell = ob.Sell[1:]
		}
	}
	return trades
}

func (ob *OrderBook) executeSell(o *domain.Order) []domain.Trade {
	var trades []domain.Trade
	for len(ob.Buy) > 0 && o.Quantity > 0 && ob.Buy[0].Price >= o.Price {
		match := ob.Buy[0]
		if match.Quantity <= 0 {
			panic(fmt.Sprintf("orderbook: resting buy %d has quantity %d", match.ID, match.Quantity))
		}
		qty := min(o.Quantity, match.Quantity)
		trades = append(trades, ob.newTrade(match.Price, qty, match, o))

		o.Quantity -= qty
		match.Quantity -= qty
		if match.Quantity == 0 {
			ob.Buy = ob.Buy[1:]
		}
	}
	return trades
}

func (ob *OrderBook) newTrade(price float64, qty int64, buy, sell *domain.Order) domain.Trade {
	ob.nextTradeID++
	return domain.Trade{
		ID:          ob.nextTradeID,
		Price:       price,
		Quantity:    qty,
		BuyerID:     buy.OwnerID,
		SellerID:    sell.OwnerID,
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		Timestamp:   ob.seq,
	}
}

func (ob *OrderBook) recordTrades(trades []domain.Trade) {
	for _, t := range trades {
		ob.totalTrades++
		ob.totalVolume += t.Quantity
	}
	ob.trades = append(ob.trades, trades...)
	if len(ob.trades) > ob.maxTrades {
		kept := make([]domain.Trade, ob.maxTrades)
		copy(kept, ob.trades[len(ob.trades)-ob.maxTrades:])
		ob.trades = kept
	}
}

// buyBefore reports whether a resting buy at price p sorts ahead of o.
// Equal prices keep arrival order, so new orders go behind them.
func buyBefore(p float64, o *domain.Order) bool  { return p >= o.Price }
func sellBefore(p float64, o *domain.Order) bool { return p <= o.Price }

func insertOrder(side []*domain.Order, o *domain.Order, before func(float64, *domain.Order) bool) []*domain.Order {
	i := sort.Search(len(side), func(i int) bool { return !before(side[i].Price, o) })
	side = append(side, nil)
	copy(side[i+1:], side[i:])
	side[i] = o
	return side
}

func (ob *OrderBook) BestBid() (float64, bool) {
	if len(ob.Buy) == 0 {
		return 0, false
	}
	return ob.Buy[0].Price, true
}

func (ob *OrderBook) BestAsk() (float64, bool) {
	if len(ob.Sell) == 0 {
		return 0, false
	}
	return ob.Sell[0].Price, true
}

// Spread is best ask minus best bid; ok is false unless both sides are quoted.
func (ob *OrderBook) Spread() (float64, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

func (ob *OrderBook) CurrentPrice() float64 { return ob.currentPrice }

func (ob *OrderBook) TotalTrades() int64 { return ob.totalTrades }

func (ob *OrderBook) TotalVolume() int64 { return ob.totalVolume }

// Trades returns a copy of the retained trade history, oldest first.
func (ob *OrderBook) Trades() []domain.Trade {
	return ob.RecentTrades(len(ob.trades))
}

// RecentTrades returns a copy of the newest n retained trades, oldest first.
func (ob *OrderBook) RecentTrades(n int) []domain.Trade {
	n = max(0, min(n, len(ob.trades)))
	out := make([]domain.Trade, n)
	copy(out, ob.trades[len(ob.trades)-n:])
	return out
}

// NextOrderID allocates an id for an order the caller is about to submit.
// AddOrder assigns one itself when the id is zero.
func (ob *OrderBook) NextOrderID() uint64 {
	ob.nextOrderID++
	return ob.nextOrderID
}

func (ob *OrderBook) Depth() (bids, asks int) {
	return len(ob.Buy), len(ob.Sell)
}

// Orders returns copies of the resting orders on one side in book order.
func (ob *OrderBook) Orders(side domain.Side) []domain.Order {
	src := ob.Buy
	if side == domain.Sell {
		src = ob.Sell
	}
	out := make([]domain.Order, len(src))
	for i, o := range src {
		out[i] = *o
	}
	return out
}

// Reset empties both books and the trade history and re-anchors the price.
func (ob *OrderBook) Reset(initialPrice float64) {
	*ob = OrderBook{currentPrice: initialPrice, maxTrades: ob.maxTrades}
}
