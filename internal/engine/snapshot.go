package engine

import (
	"github.com/olyamironova/simexchange/internal/agent"
	"github.com/olyamironova/simexchange/internal/domain"
)

// Snapshot assembles the public view of the simulation as of the last cycle.
func (s *Simulator) Snapshot() domain.SimulationSnapshot {
	price := s.book.CurrentPrice()
	snap := domain.SimulationSnapshot{
		RunID:             s.runID,
		Cycle:             s.cycle,
		CurrentPrice:      price,
		BestBid:           optional(s.book.BestBid()),
		BestAsk:           optional(s.book.BestAsk()),
		Spread:            optional(s.book.Spread()),
		Volatility:        s.volatility,
		Book:              s.book.SnapshotLevels(s.cfg.BookDepth),
		Agents:            agent.Leaderboard(s.agents, price),
		PriceHistory:      s.prices.Last(snapshotHistoryPoints),
		VolumeHistory:     s.volumes.Last(snapshotHistoryPoints),
		TradeCountHistory: s.tradeCounts.Last(snapshotHistoryPoints),
		RecentTrades:      s.book.RecentTrades(reportTrades),
		TotalTrades:       s.book.TotalTrades(),
		TotalVolume:       s.book.TotalVolume(),
		AvgSpread:         optional(s.avgSpread, s.hasAvgSpread),
		AvgSpreadCycles:   s.avgSpreadCycles,
		BalanceInjection: domain.BalanceInjectionInfo{
			Cycles:             s.injectionCycles,
			Amount:             s.injectionAmount.StringFixed(2),
			NextInjectionIn:    max(0, s.lastInjection+s.injectionCycles-s.cycle),
			LastInjectionCycle: s.lastInjection,
		},
		Bot:         s.bot.Stats(),
		Performance: agent.Summarize(s.agents, price),
		Strategies:  agent.ByStrategy(s.agents, price),
	}
	return snap
}
