package engine

import (
	"sort"

	. "topbook/internal/common"
)

// Reporter receives top of book changes.
type Reporter interface {
	Report(update Update) error
}

// Engine holds the book of every instrument. Like the books it holds, an
// Engine has a single writer.
type Engine struct {
	books    map[string]*OrderBook
	reporter Reporter
}

func New(reporter Reporter) *Engine {
	return &Engine{
		books:    make(map[string]*OrderBook),
		reporter: reporter,
	}
}

func (engine *Engine) SetReporter(reporter Reporter) {
	engine.reporter = reporter
}

// Book returns the book of a ticker, creating it on first use.
func (engine *Engine) Book(ticker string) *OrderBook {
	book, ok := engine.books[ticker]
	if !ok {
		book = NewOrderBook()
		engine.books[ticker] = book
	}
	return book
}

// Len is the number of books.
func (engine *Engine) Len() int { return len(engine.books) }

// Tickers returns the known tickers in sorted order.
func (engine *Engine) Tickers() []string {
	tickers := make([]string, 0, len(engine.books))
	for ticker := range engine.books {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Publish reports the top of a ticker's book if it moved since the last
// report. It consumes the book's changed flag, so it must be the only
// reader of it.
func (engine *Engine) Publish(time uint64, ticker string) error {
	book, ok := engine.books[ticker]
	if !ok || engine.reporter == nil || !book.Changed() {
		return nil
	}
	return engine.reporter.Report(Update{
		Time:   time,
		Ticker: ticker,
		Top:    book.BestOfBook(),
	})
}
