package engine

import . "topbook/internal/common"

// FlatPriceLevel is a copy of a price level, detached from the book.
type FlatPriceLevel struct {
	Price    uint64
	Quantity uint64
	Orders   []Order
}

// FlattenLevels copies the given levels in order.
func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, len(levels))
	for i, level := range levels {
		orders := make([]Order, len(level.orders))
		for j, o := range level.orders {
			orders[j] = *o
		}
		flat[i] = FlatPriceLevel{
			Price:    level.price,
			Quantity: level.quantity,
			Orders:   orders,
		}
	}
	return flat
}

// Levels returns the depth of one side, best price first.
func (book *OrderBook) Levels(side Side) []FlatPriceLevel {
	return FlattenLevels(book.levels(side).Items())
}

func (book *OrderBook) NumAskOrders() int { return countOrders(book.asks) }

func (book *OrderBook) NumBidOrders() int { return countOrders(book.bids) }

func (book *OrderBook) NumOrders() int { return len(book.orders) }

func (book *OrderBook) NumAskLevels() int { return book.asks.Len() }

func (book *OrderBook) NumBidLevels() int { return book.bids.Len() }

func (book *OrderBook) NumLevels() int { return book.asks.Len() + book.bids.Len() }

func countOrders(levels *PriceLevels) int {
	total := 0
	levels.Scan(func(level *PriceLevel) bool {
		total += level.Len()
		return true
	})
	return total
}
