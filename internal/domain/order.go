package domain

import "fmt"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// BotOwnerID marks orders placed by the simulation bot. Agent ids start at 0.
const BotOwnerID int64 = -1

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Order is a resting or incoming limit order. Quantity is the unfilled remainder
// and is decremented in place while the order rests in the book.
type Order struct {
	ID        uint64  `json:"id"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	OwnerID   int64   `json:"owner_id"`
	Timestamp uint64  `json:"timestamp"`
}

func (o Order) String() string {
	return fmt.Sprintf("%s %d@%.2f owner=%d", o.Side, o.Quantity, o.Price, o.OwnerID)
}

func (o Order) IsBot() bool {
	return o.OwnerID == BotOwnerID
}
