package dto

import (
	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/strategy"
	"github.com/shopspring/decimal"
)

type RunCyclesRequest struct {
	Count int `json:"count" binding:"required,min=1,max=10000"`
}

type RunCyclesResponse struct {
	Cycles     int     `json:"cycles"`
	Cycle      int64   `json:"cycle"`
	Trades     int     `json:"trades"`
	Volume     int64   `json:"volume"`
	LastTrades []Trade `json:"last_trades"`
	Message    string  `json:"message,omitempty"`
}

type StartRequest struct {
	IntervalMs int64 `json:"interval_ms,omitempty" binding:"omitempty,min=1,max=60000"`
}

type RunStateResponse struct {
	Running bool  `json:"running"`
	Cycle   int64 `json:"cycle"`
}

type BalanceInjectionRequest struct {
	Cycles int64           `json:"cycles" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type AvgSpreadRequest struct {
	Cycles int `json:"cycles" binding:"required"`
}

type BotEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type BotConfigResponse struct {
	Config strategy.BotConfig `json:"config"`
}

type OrderbookResponse struct {
	Depth int                `json:"depth"`
	Bids  []domain.BookLevel `json:"bids"`
	Asks  []domain.BookLevel `json:"asks"`
}

type Trade struct {
	ID        uint64          `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	BuyerID   int64           `json:"buyer_id"`
	SellerID  int64           `json:"seller_id"`
	Timestamp uint64          `json:"timestamp"`
}

type TradesResponse struct {
	Trades []Trade `json:"trades"`
}
