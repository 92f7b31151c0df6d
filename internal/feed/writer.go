package feed

import (
	"bufio"
	"io"
	"strconv"

	. "topbook/internal/common"
)

// Writer prints top of book updates, one line per update:
//
//	time,ticker,bid_price,bid_qty,ask_price,ask_qty
//
// An empty side leaves both of its columns blank, so every line has six
// columns.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Report writes one update. Output is buffered until Flush.
func (w *Writer) Report(update Update) error {
	w.buf = AppendUpdate(w.buf[:0], update)
	_, err := w.w.Write(w.buf)
	return err
}

func (w *Writer) Flush() error { return w.w.Flush() }

// AppendUpdate appends the output line of an update, newline included.
func AppendUpdate(dst []byte, update Update) []byte {
	dst = strconv.AppendUint(dst, update.Time, 10)
	dst = append(dst, ',')
	dst = append(dst, update.Ticker...)
	dst = append(dst, ',')
	dst = appendQuote(dst, update.Top.Bid)
	dst = append(dst, ',')
	dst = appendQuote(dst, update.Top.Ask)
	return append(dst, '\n')
}

// FormatUpdate returns the output line of an update without the newline.
func FormatUpdate(update Update) string {
	b := AppendUpdate(nil, update)
	return string(b[:len(b)-1])
}

func appendQuote(dst []byte, q Quote) []byte {
	if !q.Valid {
		return append(dst, ',')
	}
	dst = strconv.AppendUint(dst, q.Price, 10)
	dst = append(dst, ',')
	return strconv.AppendUint(dst, q.Quantity, 10)
}
