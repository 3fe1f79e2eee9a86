package agent

import (
	"sort"

	"github.com/olyamironova/simexchange/internal/domain"
	"github.com/olyamironova/simexchange/internal/strategy"
	"github.com/shopspring/decimal"
)

// Leaderboard returns agent stats ordered by profit, best first. Ties keep id order.
func Leaderboard(agents []*Agent, price float64) []domain.AgentStats {
	type ranked struct {
		stats  domain.AgentStats
		profit decimal.Decimal
	}
	rows := make([]ranked, len(agents))
	for i, a := range agents {
		rows[i] = ranked{a.Snapshot(price), a.Profit(price)}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].profit.GreaterThan(rows[j].profit)
	})
	out := make([]domain.AgentStats, len(rows))
	for i, r := range rows {
		out[i] = r.stats
	}
	return out
}

func Summarize(agents []*Agent, price float64) domain.PerformanceSummary {
	zero := decimal.Zero.StringFixed(2)
	s := domain.PerformanceSummary{TotalProfit: zero, AvgProfit: zero, BestProfit: zero, WorstProfit: zero}
	if len(agents) == 0 {
		return s
	}

	total := decimal.Zero
	var best, worst decimal.Decimal
	var pctSum float64
	for i, a := range agents {
		p := a.Profit(price)
		switch p.Sign() {
		case 1:
			s.Profitable++
		case -1:
			s.Losing++
		default:
			s.BreakEven++
		}
		if i == 0 || p.GreaterThan(best) {
			best = p
		}
		if i == 0 || p.LessThan(worst) {
			worst = p
		}
		total = total.Add(p)
		pctSum += a.ProfitPct(price)
		s.TotalOrders += a.Stats.TotalOrders
		s.TotalVolume += a.Stats.VolumeTraded
	}
	n := decimal.NewFromInt(int64(len(agents)))
	s.TotalProfit = total.StringFixed(2)
	s.AvgProfit = total.Div(n).StringFixed(2)
	s.BestProfit = best.StringFixed(2)
	s.WorstProfit = worst.StringFixed(2)
	s.AvgProfitPct = pctSum / float64(len(agents))
	return s
}

// ByStrategy groups performance per strategy in strategy.Kinds order,
// skipping strategies with no agents.
func ByStrategy(agents []*Agent, price float64) []domain.StrategyPerformance {
	groups := make(map[strategy.Kind][]*Agent)
	for _, a := range agents {
		groups[a.Strategy] = append(groups[a.Strategy], a)
	}

	var out []domain.StrategyPerformance
	for _, k := range strategy.Kinds() {
		members := groups[k]
		if len(members) == 0 {
			continue
		}
		sum := Summarize(members, price)
		out = append(out, domain.StrategyPerformance{
			Strategy:    k.String(),
			Agents:      len(members),
			TotalProfit: sum.TotalProfit,
			AvgProfit:   sum.AvgProfit,
			BestProfit:  sum.BestProfit,
			WorstProfit: sum.WorstProfit,
			Volume:      sum.TotalVolume,
			Orders:      sum.TotalOrders,
		})
	}
	return out
}
