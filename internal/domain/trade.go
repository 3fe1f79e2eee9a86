package domain

import "github.com/shopspring/decimal"

// Trade is an execution between a resting order and an incoming one.
// Price is always the resting order's price.
type Trade struct {
	ID          uint64  `json:"id"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
	BuyerID     int64   `json:"buyer_id"`
	SellerID    int64   `json:"seller_id"`
	BuyOrderID  uint64  `json:"buy_order_id"`
	SellOrderID uint64  `json:"sell_order_id"`
	Timestamp   uint64  `json:"timestamp"`
}

// Notional returns price × quantity as a decimal so ledgers do not drift.
func (t Trade) Notional() decimal.Decimal {
	return decimal.NewFromFloat(t.Price).Mul(decimal.NewFromInt(t.Quantity))
}
