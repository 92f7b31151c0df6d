package common

import "strconv"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "side(" + strconv.Itoa(int(s)) + ")"
}

// Opposite returns the side whose resting interest an order of side s
// executes against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Quote is the price and aggregate quantity of one price level. Valid is
// false when the side it describes has no resting interest.
type Quote struct {
	Price    uint64
	Quantity uint64
	Valid    bool
}

// NewQuote creates a present quote.
func NewQuote(price, quantity uint64) Quote {
	return Quote{Price: price, Quantity: quantity, Valid: true}
}

func (q Quote) String() string {
	if !q.Valid {
		return "none"
	}
	return strconv.FormatUint(q.Price, 10) + "x" + strconv.FormatUint(q.Quantity, 10)
}

// Top is the inner market of a book.
type Top struct {
	Ask Quote
	Bid Quote
}

// Update is emitted whenever the top of a book changes.
type Update struct {
	Time   uint64 // Milliseconds since session start
	Ticker string // Instrument symbol
	Top    Top    // Inner market after the event
}
