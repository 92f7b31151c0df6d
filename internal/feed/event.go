package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedRecord = errors.New("malformed record")

// Minimum number of fields in a record: time,ticker,order,type,shares,price.
const minFields = 6

type Kind int

const (
	// KindOther is any type tag with no meaning to the book.
	KindOther Kind = iota
	KindBuy
	KindSell
	// Decrease caps the shares of an order.
	KindDecrease
	KindDelete
	// Execute consumes shares of an order against the other side.
	KindExecute
	// Fill consumes all remaining shares of an order.
	KindFill
	KindTrade
	KindCrossTrade
)

var kindTags = map[byte]Kind{
	'B': KindBuy,
	'S': KindSell,
	'C': KindDecrease,
	'D': KindDelete,
	'E': KindExecute,
	'F': KindFill,
	'T': KindTrade,
	'X': KindCrossTrade,
}

var kindNames = map[Kind]string{
	KindOther:      "other",
	KindBuy:        "buy",
	KindSell:       "sell",
	KindDecrease:   "decrease",
	KindDelete:     "delete",
	KindExecute:    "execute",
	KindFill:       "fill",
	KindTrade:      "trade",
	KindCrossTrade: "cross-trade",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Event is one parsed record of the order feed.
type Event struct {
	Time    uint64 // Milliseconds since the start of the session
	Ticker  string // Instrument symbol
	OrderID string // Unique among resting orders of the instrument
	Kind    Kind   // Decoded type tag
	Tag     byte   // Raw type tag
	Shares  uint64 // Quantity, meaning depends on Kind
	Price   uint64 // Limit price in minor currency units
}

// ParseEvent parses a record of the form
//
//	time,ticker,order,type,shares,price[,...]
//
// Fields past the sixth are ignored. Every numeric field must parse, even
// those the event kind does not use.
func ParseEvent(record string) (Event, error) {
	fields := strings.Split(record, ",")
	if len(fields) < minFields {
		return Event{}, fmt.Errorf("%w: expected at least %d fields, got %d",
			ErrMalformedRecord, minFields, len(fields))
	}

	var (
		ev  Event
		err error
	)
	if ev.Time, err = parseUint("time", fields[0], 64); err != nil {
		return Event{}, err
	}
	ev.Ticker = fields[1]
	ev.OrderID = fields[2]

	if len(fields[3]) != 1 {
		return Event{}, fmt.Errorf("%w: type %q is not a single character",
			ErrMalformedRecord, fields[3])
	}
	ev.Tag = fields[3][0]
	ev.Kind = kindTags[ev.Tag]

	if ev.Shares, err = parseUint("shares", fields[4], 32); err != nil {
		return Event{}, err
	}
	if ev.Price, err = parseUint("price", fields[5], 32); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// parseUint parses an unsigned field of the given bit width. Shares and
// price are 32 bits wide so that the aggregate of a level always fits in 64.
func parseUint(name, field string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(field), 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, name, err)
	}
	return v, nil
}
