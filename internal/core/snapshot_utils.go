package core

import "github.com/olyamironova/simexchange/internal/domain"

// SnapshotLevels aggregates the top depth price levels of each side.
// A depth <= 0 returns every level.
func (ob *OrderBook) SnapshotLevels(depth int) domain.BookLevels {
	return domain.BookLevels{
		Bids: aggregateLevels(ob.Buy, depth),
		Asks: aggregateLevels(ob.Sell, depth),
	}
}

func aggregateLevels(orders []*domain.Order, depth int) []domain.BookLevel {
	levels := make([]domain.BookLevel, 0)
	for _, o := range orders {
		n := len(levels)
		if n > 0 && levels[n-1].Price == o.Price {
			levels[n-1].Quantity += o.Quantity
			levels[n-1].Orders++
			continue
		}
		if depth > 0 && n == depth {
			break
		}
		levels = append(levels, domain.BookLevel{Price: o.Price, Quantity: o.Quantity, Orders: 1})
	}
	return levels
}
