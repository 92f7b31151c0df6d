package replay

import (
	"context"
	"errors"
	"io"

	. "topbook/internal/common"
	"topbook/internal/engine"
	"topbook/internal/feed"
	"topbook/internal/utils"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

const updateChanSize = 1024

type Config struct {
	// Shards is the number of workers books are spread over. With one shard
	// the output follows the input order exactly; with more, only the order
	// within one ticker is kept, and when a shard fails the lines already
	// written by the other shards differ from run to run.
	Shards int
	// Lenient skips malformed records instead of failing the replay.
	Lenient bool
}

type Stats struct {
	Events  uint64 // Events applied to a book
	Updates uint64 // Top of book lines written
	Skipped uint64 // Malformed records skipped in lenient mode
	Books   int    // Distinct instruments seen
}

// Replayer drives a feed through the books and writes every top of book
// change.
type Replayer struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Replayer {
	return &Replayer{cfg: cfg, logger: logger}
}

// Run replays the whole of in, writing updates to out.
func (r *Replayer) Run(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	r.logger.Info().
		Int("shards", max(r.cfg.Shards, 1)).
		Bool("lenient", r.cfg.Lenient).
		Msg("replay starting")

	var (
		stats Stats
		err   error
	)
	if r.cfg.Shards <= 1 {
		stats, err = r.runSequential(ctx, in, out)
	} else {
		stats, err = r.runSharded(ctx, in, out)
	}
	if err != nil {
		return stats, err
	}

	r.logger.Info().
		Uint64("events", stats.Events).
		Uint64("updates", stats.Updates).
		Uint64("skipped", stats.Skipped).
		Int("books", stats.Books).
		Msg("replay finished")
	return stats, nil
}

func (r *Replayer) runSequential(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	var stats Stats
	writer := feed.NewWriter(out)
	eng := engine.New(&countingReporter{next: writer, count: &stats.Updates})

	err := r.replayAll(ctx, feed.NewReader(in), eng, &stats)
	// Whatever was reported before a failure still goes out.
	if ferr := writer.Flush(); err == nil {
		err = ferr
	}
	stats.Books = eng.Len()
	if err != nil {
		return stats, err
	}

	r.logBooks(eng)
	return stats, nil
}

func (r *Replayer) replayAll(ctx context.Context, reader *feed.Reader, eng *engine.Engine, stats *Stats) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := r.next(reader, stats)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := apply(eng, ev); err != nil {
			return err
		}
		stats.Events++
	}
}

// runSharded spreads books over worker shards by ticker. Each shard owns its
// books outright; updates are funnelled to a single writer.
func (r *Replayer) runSharded(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	var stats Stats
	t, _ := tomb.WithContext(ctx)
	updates := make(chan Update, updateChanSize)

	engines := make([]*engine.Engine, r.cfg.Shards)
	for i := range engines {
		engines[i] = engine.New(&shardReporter{t: t, updates: updates})
	}
	pool := utils.NewShardPool(len(engines), func(t *tomb.Tomb, shard int, ev feed.Event) error {
		return apply(engines[shard], ev)
	})
	pool.Setup(t)

	// The writer lives outside the tomb so it can drain updates until every
	// worker has returned.
	writer := feed.NewWriter(out)
	written := make(chan error, 1)
	go func() {
		written <- r.drain(t, updates, writer, &stats.Updates)
	}()

	reader := feed.NewReader(in)
	for {
		ev, err := r.next(reader, &stats)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Kill(err)
			break
		}
		if err := pool.AddTask(t, ev.Ticker, ev); err != nil {
			break
		}
		stats.Events++
	}

	pool.Close()
	err := t.Wait()
	close(updates)
	if werr := <-written; err == nil {
		err = werr
	}
	if err != nil {
		return stats, err
	}

	for _, eng := range engines {
		stats.Books += eng.Len()
		r.logBooks(eng)
	}
	return stats, nil
}

// drain writes updates until the channel closes. After a write error it
// keeps discarding so workers never block.
func (r *Replayer) drain(t *tomb.Tomb, updates <-chan Update, writer *feed.Writer, count *uint64) error {
	var err error
	for update := range updates {
		if err != nil {
			continue
		}
		if err = writer.Report(update); err != nil {
			t.Kill(err)
			continue
		}
		*count++
	}
	if err != nil {
		return err
	}
	return writer.Flush()
}

// next reads the next event, skipping malformed records in lenient mode.
func (r *Replayer) next(reader *feed.Reader, stats *Stats) (feed.Event, error) {
	for {
		ev, err := reader.Next()
		var recErr *feed.RecordError
		if r.cfg.Lenient && errors.As(err, &recErr) && errors.Is(err, feed.ErrMalformedRecord) {
			r.logger.Warn().
				Int("line", recErr.Line).
				Err(recErr.Err).
				Msg("skipping malformed record")
			stats.Skipped++
			continue
		}
		return ev, err
	}
}

func (r *Replayer) logBooks(eng *engine.Engine) {
	if r.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	for _, ticker := range eng.Tickers() {
		book := eng.Book(ticker)
		r.logger.Debug().
			Str("ticker", ticker).
			Int("orders", book.NumOrders()).
			Int("ask_levels", book.NumAskLevels()).
			Int("bid_levels", book.NumBidLevels()).
			Msg("final book")
	}
}

// countingReporter counts the updates it forwards.
type countingReporter struct {
	next  engine.Reporter
	count *uint64
}

func (c *countingReporter) Report(update Update) error {
	if err := c.next.Report(update); err != nil {
		return err
	}
	*c.count++
	return nil
}

// shardReporter hands updates from a shard over to the writer.
type shardReporter struct {
	t       *tomb.Tomb
	updates chan<- Update
}

func (s *shardReporter) Report(update Update) error {
	select {
	case s.updates <- update:
		return nil
	case <-s.t.Dying():
		return tomb.ErrDying
	}
}
