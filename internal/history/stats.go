package history

import "math"

const (
	VolatilityWindow  = 5
	DefaultVolatility = 0.01
	MinVolatility     = 0.005
	MaxVolatility     = 0.05
)

// Volatility is twice the mean absolute return over the last VolatilityWindow
// prices, clamped to [MinVolatility, MaxVolatility].
func Volatility(prices []float64) float64 {
	if len(prices) > VolatilityWindow {
		prices = prices[len(prices)-VolatilityWindow:]
	}
	if len(prices) < 2 {
		return DefaultVolatility
	}
	var sum float64
	n := 0
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			continue
		}
		sum += math.Abs((prices[i] - prev) / prev)
		n++
	}
	if n == 0 {
		return DefaultVolatility
	}
	return clamp(sum/float64(n)*2, MinVolatility, MaxVolatility)
}

// AverageSpread averages the newest window spreads. ok is false when there are none.
func AverageSpread(spreads []float64, window int) (avg float64, ok bool) {
	if len(spreads) == 0 || window <= 0 {
		return 0, false
	}
	if window < len(spreads) {
		spreads = spreads[len(spreads)-window:]
	}
	var sum float64
	for _, s := range spreads {
		sum += s
	}
	return sum / float64(len(spreads)), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
