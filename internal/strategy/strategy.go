package strategy

import (
	"math"
	"math/rand"

	"github.com/olyamironova/simexchange/internal/domain"
)

const (
	momentumLookback  = 10
	momentumThreshold = 0.02

	reversionLookback  = 20
	reversionDeviation = 0.05
	reversionBand      = 0.02

	makerHalfSpread  = 0.01
	makerMaxPosition = 100
	makerMaxQuantity = 10

	scalperTrigger     = 0.8
	scalperMaxSpread   = 0.01
	scalperEntry       = 1.001
	scalperTakeProfit  = 0.005
	scalperMaxQuantity = 5

	valueTrigger   = 0.1
	FairValue      = 100.0
	valueThreshold = 0.1

	noiseTrigger     = 0.3
	noiseMaxQuantity = 20
)

type shouldTradeFunc func(rng *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) bool
type decideFunc func(rng *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool)

type behavior struct {
	shouldTrade shouldTradeFunc
	decide      decideFunc
}

var behaviors = [kindCount]behavior{
	Momentum:      {momentumShouldTrade, momentumDecide},
	MeanReversion: {reversionShouldTrade, reversionDecide},
	MarketMaker:   {always, makerDecide},
	Scalper:       {chance(scalperTrigger), scalperDecide},
	ValueInvestor: {chance(valueTrigger), valueDecide},
	NoiseTrader:   {chance(noiseTrigger), noiseDecide},
}

func (k Kind) ShouldTrade(rng *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) bool {
	return behaviors[k].shouldTrade(rng, snap, balance, position)
}

// Decide evaluates the trigger and, when it fires, the order intent.
// ok is false when the strategy stays out of the market this cycle.
func (k Kind) Decide(rng *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool) {
	b := behaviors[k]
	if !b.shouldTrade(rng, snap, balance, position) {
		return Intent{}, false
	}
	return b.decide(rng, snap, balance, position)
}

func always(*rand.Rand, *domain.MarketSnapshot, float64, int64) bool { return true }

func chance(p float64) shouldTradeFunc {
	return func(rng *rand.Rand, _ *domain.MarketSnapshot, _ float64, _ int64) bool {
		return rng.Float64() < p
	}
}

func momentumChange(snap *domain.MarketSnapshot) (float64, bool) {
	if len(snap.PriceHistory) < momentumLookback {
		return 0, false
	}
	recent := snap.LastPrices(momentumLookback)
	if recent[0] == 0 {
		return 0, false
	}
	return (recent[len(recent)-1] - recent[0]) / recent[0], true
}

func momentumShouldTrade(_ *rand.Rand, snap *domain.MarketSnapshot, _ float64, _ int64) bool {
	change, ok := momentumChange(snap)
	return ok && math.Abs(change) > momentumThreshold
}

func momentumDecide(_ *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool) {
	change, ok := momentumChange(snap)
	if !ok {
		return Intent{}, false
	}
	cur := snap.CurrentPrice
	var in Intent
	switch {
	case change > momentumThreshold:
		in = Intent{Side: domain.Buy, Price: cur * 1.01}
	case change < -momentumThreshold:
		in = Intent{Side: domain.Sell, Price: cur * 0.99}
	default:
		return Intent{}, false
	}
	base := int64(balance * 0.1 / cur)
	in.Quantity = int64(float64(base) * math.Min(math.Abs(change)*10, 2))
	return clampLong(in, balance, position)
}

func rollingMean(snap *domain.MarketSnapshot, n int) (float64, bool) {
	if len(snap.PriceHistory) < n {
		return 0, false
	}
	var sum float64
	for _, p := range snap.LastPrices(n) {
		sum += p
	}
	return sum / float64(n), true
}

func reversionShouldTrade(_ *rand.Rand, snap *domain.MarketSnapshot, _ float64, _ int64) bool {
	mean, ok := rollingMean(snap, reversionLookback)
	if !ok || mean == 0 {
		return false
	}
	return math.Abs(snap.CurrentPrice-mean)/mean > reversionDeviation
}

func reversionDecide(_ *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool) {
	mean, ok := rollingMean(snap, reversionLookback)
	if !ok {
		return Intent{}, false
	}
	cur := snap.CurrentPrice
	var in Intent
	switch {
	case cur > mean*(1+reversionBand):
		in = Intent{Side: domain.Sell, Price: cur * 0.99}
	case cur < mean*(1-reversionBand):
		in = Intent{Side: domain.Buy, Price: cur * 1.01}
	default:
		return Intent{}, false
	}
	in.Quantity = int64(balance * 0.15 / cur)
	return clampLong(in, balance, position)
}

// makerDecide quotes one side at random. It is the only strategy allowed to
// go short, bounded at -makerMaxPosition.
func makerDecide(rng *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool) {
	cur := snap.CurrentPrice
	if rng.Float64() < 0.5 {
		if position >= makerMaxPosition || balance <= cur*makerMaxQuantity {
			return Intent{}, false
		}
		price := cur * (1 - makerHalfSpread)
		qty := min(makerMaxQuantity, int64(balance*0.05/price))
		return clampLong(Intent{Side: domain.Buy, Price: price, Quantity: qty}, balance, position)
	}
	if position <= -makerMaxPosition {
		return Intent{}, false
	}
	qty := min(makerMaxQuantity, position+makerMaxPosition)
	if qty <= 0 {
		return Intent{}, false
	}
	return Intent{Side: domain.Sell, Price: cur * (1 + makerHalfSpread), Quantity: qty}, true
}

func scalperDecide(_ *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool) {
	cur := snap.CurrentPrice
	if snap.Spread == nil || *snap.Spread <= 0 || *snap.Spread >= cur*scalperMaxSpread {
		return Intent{}, false
	}
	switch {
	case position == 0:
		price := cur * scalperEntry
		qty := min(scalperMaxQuantity, int64(balance*0.1/price))
		return clampLong(Intent{Side: domain.Buy, Price: price, Quantity: qty}, balance, position)
	case position > 0:
		qty := min(scalperMaxQuantity, position)
		return clampLong(Intent{Side: domain.Sell, Price: cur * (1 + scalperTakeProfit), Quantity: qty}, balance, position)
	}
	return Intent{}, false
}

func valueDecide(_ *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool) {
	cur := snap.CurrentPrice
	deviation := (cur - FairValue) / FairValue
	var in Intent
	switch {
	case deviation < -valueThreshold:
		price := cur * 1.005
		in = Intent{Side: domain.Buy, Price: price, Quantity: int64(balance * 0.2 / price)}
	case deviation > valueThreshold:
		in = Intent{Side: domain.Sell, Price: cur * 0.995, Quantity: int64(float64(position) * 0.5)}
	default:
		return Intent{}, false
	}
	return clampLong(in, balance, position)
}

func noiseDecide(rng *rand.Rand, snap *domain.MarketSnapshot, balance float64, position int64) (Intent, bool) {
	side := domain.Sell
	if rng.Float64() < 0.5 {
		side = domain.Buy
	}
	price := snap.CurrentPrice * uniform(rng, 0.95, 1.05)
	qty := 1 + rng.Int63n(noiseMaxQuantity)
	return clampLong(Intent{Side: side, Price: price, Quantity: qty}, balance, position)
}

// clampLong shrinks a buy to what cash covers and a sell to the long position.
func clampLong(in Intent, balance float64, position int64) (Intent, bool) {
	if !(in.Price > 0) || math.IsInf(in.Price, 0) {
		return Intent{}, false
	}
	switch in.Side {
	case domain.Buy:
		if in.Price*float64(in.Quantity) > balance {
			in.Quantity = int64(math.Max(0, balance) / in.Price)
		}
	case domain.Sell:
		in.Quantity = min(in.Quantity, max(0, position))
	}
	if in.Quantity <= 0 {
		return Intent{}, false
	}
	return in, true
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
