package feed

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const maxRecordSize = 1024 * 1024

// RecordError ties a parse failure to its input line.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Reader reads events from a feed. The first line is a header and is
// skipped, as are blank lines.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	return &Reader{scanner: scanner}
}

// Next returns the next event, or io.EOF once the input is exhausted.
// Parse failures are returned as *RecordError and the reader stays usable.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		r.line++
		if r.line == 1 {
			continue
		}

		record := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(record) == "" {
			continue
		}

		ev, err := ParseEvent(record)
		if err != nil {
			return Event{}, &RecordError{Line: r.line, Err: err}
		}
		return ev, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read feed after line %d: %w", r.line, err)
	}
	return Event{}, io.EOF
}

// Line is the number of the last line read.
func (r *Reader) Line() int { return r.line }
