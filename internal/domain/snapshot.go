package domain

// BookLevel aggregates every resting order at one price.
type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int     `json:"orders"`
}

type BookLevels struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// MarketSnapshot is the read-only view handed to strategies each cycle.
// Histories are copies; nil pointers mean the value is absent.
type MarketSnapshot struct {
	CurrentPrice  float64
	PriceHistory  []float64
	VolumeHistory []int64
	Volatility    float64
	Spread        *float64
	BestBid       *float64
	BestAsk       *float64
}

func (s *MarketSnapshot) LastPrices(n int) []float64 {
	if n >= len(s.PriceHistory) {
		return s.PriceHistory
	}
	return s.PriceHistory[len(s.PriceHistory)-n:]
}

type AgentParams struct {
	RiskTolerance    float64 `json:"risk_tolerance"`
	TradingFrequency float64 `json:"trading_frequency"`
	PriceSensitivity float64 `json:"price_sensitivity"`
	Cooldown         float64 `json:"cooldown"`
}

type AgentStats struct {
	ID             int64       `json:"id"`
	Strategy       string      `json:"strategy"`
	Cash           string      `json:"cash"`
	Position       int64       `json:"position"`
	Funded         string      `json:"funded"`
	OpenOrders     int         `json:"open_orders"`
	Reserved       string      `json:"reserved"`
	PortfolioValue string      `json:"portfolio_value"`
	Profit         string      `json:"profit"`
	ProfitPct      float64     `json:"profit_pct"`
	Params         AgentParams `json:"params"`
	BuyOrders      int64       `json:"buy_orders"`
	SellOrders     int64       `json:"sell_orders"`
	TotalOrders    int64       `json:"total_orders"`
	VolumeTraded   int64       `json:"volume_traded"`
	ValueTraded    string      `json:"value_traded"`
}

type BotStats struct {
	Enabled         bool   `json:"enabled"`
	OrderType       string `json:"order_type"`
	OrdersPlaced    int64  `json:"orders_placed"`
	BuyOrders       int64  `json:"buy_orders"`
	SellOrders      int64  `json:"sell_orders"`
	SubmittedVolume int64  `json:"submitted_volume"`
	FilledVolume    int64  `json:"filled_volume"`
	LastOrderCycle  int64  `json:"last_order_cycle"`
}

type BalanceInjectionInfo struct {
	Cycles             int64  `json:"cycles"`
	Amount             string `json:"amount"`
	NextInjectionIn    int64  `json:"next_injection_in"`
	LastInjectionCycle int64  `json:"last_injection_cycle"`
}

type PerformanceSummary struct {
	Profitable   int     `json:"profitable"`
	Losing       int     `json:"losing"`
	BreakEven    int     `json:"break_even"`
	TotalProfit  string  `json:"total_profit"`
	AvgProfit    string  `json:"avg_profit"`
	BestProfit   string  `json:"best_profit"`
	WorstProfit  string  `json:"worst_profit"`
	AvgProfitPct float64 `json:"avg_profit_pct"`
	TotalOrders  int64   `json:"total_orders"`
	TotalVolume  int64   `json:"total_volume"`
}

type StrategyPerformance struct {
	Strategy    string `json:"strategy"`
	Agents      int    `json:"agents"`
	TotalProfit string `json:"total_profit"`
	AvgProfit   string `json:"avg_profit"`
	BestProfit  string `json:"best_profit"`
	WorstProfit string `json:"worst_profit"`
	Volume      int64  `json:"volume"`
	Orders      int64  `json:"orders"`
}

// SimulationSnapshot is the full public view of a run at the end of a cycle.
type SimulationSnapshot struct {
	RunID             string                `json:"run_id"`
	Cycle             int64                 `json:"cycle"`
	CurrentPrice      float64               `json:"current_price"`
	BestBid           *float64              `json:"best_bid,omitempty"`
	BestAsk           *float64              `json:"best_ask,omitempty"`
	Spread            *float64              `json:"spread,omitempty"`
	Volatility        float64               `json:"volatility"`
	Book              BookLevels            `json:"book"`
	Agents            []AgentStats          `json:"agents"`
	PriceHistory      []float64             `json:"price_history"`
	VolumeHistory     []int64               `json:"volume_history"`
	TradeCountHistory []int64               `json:"trade_count_history"`
	RecentTrades      []Trade               `json:"recent_trades"`
	TotalTrades       int64                 `json:"total_trades"`
	TotalVolume       int64                 `json:"total_volume"`
	AvgSpread         *float64              `json:"avg_spread,omitempty"`
	AvgSpreadCycles   int                   `json:"avg_spread_cycles"`
	BalanceInjection  BalanceInjectionInfo  `json:"balance_injection"`
	Bot               BotStats              `json:"bot"`
	Performance       PerformanceSummary    `json:"performance"`
	Strategies        []StrategyPerformance `json:"strategies"`
}

// Clone returns a deep copy that shares no slices or pointers with s.
func (s *SimulationSnapshot) Clone() *SimulationSnapshot {
	c := *s
	c.BestBid = clonePtr(s.BestBid)
	c.BestAsk = clonePtr(s.BestAsk)
	c.Spread = clonePtr(s.Spread)
	c.AvgSpread = clonePtr(s.AvgSpread)
	c.Book = BookLevels{Bids: cloneSlice(s.Book.Bids), Asks: cloneSlice(s.Book.Asks)}
	c.Agents = cloneSlice(s.Agents)
	c.PriceHistory = cloneSlice(s.PriceHistory)
	c.VolumeHistory = cloneSlice(s.VolumeHistory)
	c.TradeCountHistory = cloneSlice(s.TradeCountHistory)
	c.RecentTrades = cloneSlice(s.RecentTrades)
	c.Strategies = cloneSlice(s.Strategies)
	return &c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
