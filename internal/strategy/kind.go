package strategy

import (
	"fmt"

	"github.com/olyamironova/simexchange/internal/domain"
)

// Kind is the closed set of agent behaviours.
type Kind uint8

const (
	Momentum Kind = iota
	MeanReversion
	MarketMaker
	Scalper
	ValueInvestor
	NoiseTrader

	kindCount
)

var kindNames = [kindCount]string{
	Momentum:      "momentum",
	MeanReversion: "mean_reversion",
	MarketMaker:   "market_maker",
	Scalper:       "scalper",
	ValueInvestor: "value_investor",
	NoiseTrader:   "noise_trader",
}

// Kinds lists every strategy in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Intent is a strategy's wish to place one limit order.
type Intent struct {
	Side     domain.Side
	Price    float64
	Quantity int64
}

func (in Intent) Order(owner int64) domain.Order {
	return domain.Order{Side: in.Side, Price: in.Price, Quantity: in.Quantity, OwnerID: owner}
}
