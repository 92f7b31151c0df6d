package replay

import (
	"errors"
	"fmt"

	. "topbook/internal/common"
	"topbook/internal/engine"
	"topbook/internal/feed"
)

var ErrUnhandledKind = errors.New("unhandled event kind")

// apply mutates the book of the event's instrument and publishes the new top
// of book if it moved. Every Kind is listed: a new kind fails here instead
// of being ignored.
func apply(eng *engine.Engine, ev feed.Event) error {
	book := eng.Book(ev.Ticker)

	var err error
	switch ev.Kind {
	case feed.KindBuy:
		err = book.Add(ev.OrderID, Buy, ev.Price, ev.Shares)
	case feed.KindSell:
		err = book.Add(ev.OrderID, Sell, ev.Price, ev.Shares)
	case feed.KindDecrease:
		err = book.Decrease(ev.OrderID, ev.Shares)
	case feed.KindDelete:
		book.Remove(ev.OrderID)
	case feed.KindExecute:
		book.Execute(ev.OrderID, ev.Shares)
	case feed.KindFill:
		book.Fill(ev.OrderID)
	case feed.KindTrade, feed.KindCrossTrade, feed.KindOther:
		// Trades are informational and leave the book alone.
	default:
		return fmt.Errorf("%w: %v", ErrUnhandledKind, ev.Kind)
	}
	if err != nil {
		return fmt.Errorf("%s %s at %d: %w", ev.Ticker, ev.Kind, ev.Time, err)
	}
	return eng.Publish(ev.Time, ev.Ticker)
}
