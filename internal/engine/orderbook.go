package engine

import (
	"errors"
	"fmt"

	. "topbook/internal/common"

	"github.com/tidwall/btree"
)

var (
	ErrDuplicateOrder  = errors.New("duplicate order id")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

type PriceLevels = btree.BTreeG[*PriceLevel]

// locator identifies the level currently holding an order. It never owns
// the order: the level does.
type locator struct {
	side  Side
	price uint64
}

// OrderBook is the limit order book of a single instrument. It is not safe
// for concurrent use; a book must be owned by exactly one writer.
type OrderBook struct {
	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd. Both ladders are ordered best first.
	bids *PriceLevels
	asks *PriceLevels

	// Order id to the level holding it.
	orders map[string]locator

	// Inner market as of the last mutation, and whether it moved since the
	// last BestOfBook read.
	top     Top
	changed bool
}

func NewOrderBook() *OrderBook {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.price > b.price
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.price < b.price
	})
	return &OrderBook{
		bids:   bids,
		asks:   asks,
		orders: make(map[string]locator),
	}
}

func (book *OrderBook) levels(side Side) *PriceLevels {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// Buy adds a new buy order.
func (book *OrderBook) Buy(id string, price, quantity uint64) error {
	return book.Add(id, Buy, price, quantity)
}

// Sell adds a new sell order.
func (book *OrderBook) Sell(id string, price, quantity uint64) error {
	return book.Add(id, Sell, price, quantity)
}

// Add rests a new order at the back of its price level, creating the level
// if this is the first order at that price. An order whose shares would
// overflow the level's aggregate is rejected with ErrInvalidQuantity.
func (book *OrderBook) Add(id string, side Side, price, quantity uint64) error {
	if quantity == 0 {
		return fmt.Errorf("%w: order %s has no shares", ErrInvalidQuantity, id)
	}
	if _, ok := book.orders[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, id)
	}

	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	levels := book.levels(side)
	level, ok := levels.GetMut(&PriceLevel{price: price})
	if ok && level.quantity+quantity < level.quantity {
		return fmt.Errorf("%w: order %s overflows the %v level at %d",
			ErrInvalidQuantity, id, side, price)
	}
	if !ok {
		level = &PriceLevel{price: price}
		levels.Set(level)
	}
	level.PushBack(&Order{ID: id, Side: side, Price: price, Quantity: quantity})
	book.orders[id] = locator{side: side, price: price}

	book.update()
	return nil
}

// Decrease caps the remaining quantity of an order at ceiling. It never
// grows an order. Unknown ids are ignored since late events for removed
// orders are routine.
func (book *OrderBook) Decrease(id string, ceiling uint64) error {
	level, order, ok := book.find(id)
	if !ok {
		return nil
	}
	if ceiling == 0 {
		return fmt.Errorf("%w: decrease of %s to zero", ErrInvalidQuantity, id)
	}
	if ceiling < order.Quantity {
		level.shrink(order, order.Quantity-ceiling)
	}
	book.update()
	return nil
}

// Remove deletes an order from the book. Unknown ids are ignored.
func (book *OrderBook) Remove(id string) {
	loc, ok := book.orders[id]
	if !ok {
		return
	}
	book.unlink(id, loc)
	book.update()
}

// Execute resolves up to quantity shares of the order against the opposite
// side of the book in price-time priority. The feed names no counterparty,
// so resting interest is consumed best price first and oldest order first
// within a price. When the opposite side runs dry the rest of the request
// is dropped and the order keeps its remaining shares.
//
// Execute returns the number of shares consumed. Unknown ids are ignored.
func (book *OrderBook) Execute(id string, quantity uint64) uint64 {
	level, order, ok := book.find(id)
	if !ok {
		return 0
	}
	quantity = min(quantity, order.Quantity)

	// Buy orders consume asks, and vice versa. Min is the best level on
	// either side as both ladders are sorted best first.
	opposite := book.levels(order.Side.Opposite())
	executed := uint64(0)
	for quantity > 0 && order.Quantity > 0 {
		best, ok := opposite.MinMut()
		if !ok {
			break
		}

		oldest := best.Front()
		if oldest.Quantity > quantity {
			// The oldest order absorbs what is left.
			best.shrink(oldest, quantity)
			level.shrink(order, quantity)
			executed += quantity
			break
		}

		matchQty := oldest.Quantity
		level.shrink(order, matchQty)
		quantity -= matchQty
		executed += matchQty
		book.popFront(opposite, best)
	}

	if order.Quantity == 0 {
		book.unlink(id, book.orders[id])
	}
	book.update()
	return executed
}

// Fill executes the whole remaining quantity of an order. Unknown ids are
// ignored.
func (book *OrderBook) Fill(id string) uint64 {
	_, order, ok := book.find(id)
	if !ok {
		return 0
	}
	return book.Execute(id, order.Quantity)
}

// Changed reports whether the inner market moved since the last BestOfBook
// call.
func (book *OrderBook) Changed() bool { return book.changed }

// BestOfBook returns the inner market and clears the changed flag. The flag
// is edge triggered and has a single consumer: a second reader will not see
// a change the first one already consumed.
func (book *OrderBook) BestOfBook() Top {
	book.changed = false
	return book.top
}

// Lookup returns a copy of a resting order.
func (book *OrderBook) Lookup(id string) (Order, bool) {
	_, order, ok := book.find(id)
	if !ok {
		return Order{}, false
	}
	return *order, true
}

// find resolves an order id through the locator index.
func (book *OrderBook) find(id string) (*PriceLevel, *Order, bool) {
	loc, ok := book.orders[id]
	if !ok {
		return nil, nil, false
	}
	level, ok := book.levels(loc.side).GetMut(&PriceLevel{price: loc.price})
	if !ok {
		panic(fmt.Sprintf("order %s located at missing %v level %d", id, loc.side, loc.price))
	}
	order := level.find(id)
	if order == nil {
		panic(fmt.Sprintf("order %s missing from %v level %d", id, loc.side, loc.price))
	}
	return level, order, true
}

// unlink takes an order out of its level and the locator index, dropping the
// level if it was the last order.
func (book *OrderBook) unlink(id string, loc locator) {
	levels := book.levels(loc.side)
	if level, ok := levels.GetMut(&PriceLevel{price: loc.price}); ok {
		level.Remove(id)
		if level.Empty() {
			levels.Delete(level)
		}
	}
	delete(book.orders, id)
}

// popFront consumes the oldest order of a level, dropping the level if it
// was the last order.
func (book *OrderBook) popFront(levels *PriceLevels, level *PriceLevel) {
	o := level.PopFront()
	delete(book.orders, o.ID)
	if level.Empty() {
		levels.Delete(level)
	}
}

// update recalculates the best ask and bid. Both cached sides are replaced
// whenever either of them moved.
func (book *OrderBook) update() {
	top := Top{
		Ask: bestOf(book.asks),
		Bid: bestOf(book.bids),
	}
	if top != book.top {
		book.changed = true
		book.top = top
	}
}

func bestOf(levels *PriceLevels) Quote {
	level, ok := levels.Min()
	if !ok {
		return Quote{}
	}
	return NewQuote(level.price, level.quantity)
}
