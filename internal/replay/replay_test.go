package replay

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"topbook/internal/engine"
	"topbook/internal/feed"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `Time,Ticker,Order,T,Shares,Price
1,AAPL,1,S,150,1110
2,AAPL,2,S,100,1108
3,MSFT,1,B,10,500
3,AAPL,3,B,100,1105
4,AAPL,4,B,200,1105

5,AAPL,5,B,200,1100
5,MSFT,1,T,10,500
6,AAPL,4,F,0,0
7,AAPL,3,E,50,0
8,AAPL,6,S,300,1120
9,AAPL,6,E,150,0
9,MSFT,1,D,0,0
10,AAPL,6,E,100,0
11,AAPL,gone,D,0,0
`

var expectedLines = []string{
	"1,AAPL,,,1110,150",
	"2,AAPL,,,1108,100",
	"3,MSFT,500,10,,",
	"3,AAPL,1105,100,1108,100",
	"4,AAPL,1105,300,1108,100",
	"6,AAPL,1105,100,1110,50",
	"7,AAPL,1105,50,,",
	"8,AAPL,1105,50,1120,300",
	"9,AAPL,1100,100,1120,150",
	"9,MSFT,,,,",
	"10,AAPL,,,1120,50",
}

func replay(t *testing.T, cfg Config, input string) (string, Stats, error) {
	t.Helper()
	var out bytes.Buffer
	stats, err := New(cfg, zerolog.Nop()).Run(context.Background(), strings.NewReader(input), &out)
	return out.String(), stats, err
}

func lines(output string) []string {
	return strings.Split(strings.TrimSuffix(output, "\n"), "\n")
}

func byTicker(lines []string) map[string][]string {
	grouped := make(map[string][]string)
	for _, line := range lines {
		ticker := strings.Split(line, ",")[1]
		grouped[ticker] = append(grouped[ticker], line)
	}
	return grouped
}

func TestRun_Sequential(t *testing.T) {
	output, stats, err := replay(t, Config{Shards: 1}, testFeed)
	require.NoError(t, err)

	assert.Equal(t, expectedLines, lines(output))
	assert.Equal(t, Stats{Events: 14, Updates: 11, Books: 2}, stats)
}

func TestRun_Sharded(t *testing.T) {
	output, stats, err := replay(t, Config{Shards: 4}, testFeed)
	require.NoError(t, err)

	got := lines(output)
	// Only the order within one ticker is kept across shards.
	assert.Equal(t, byTicker(expectedLines), byTicker(got))

	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	want := append([]string(nil), expectedLines...)
	sort.Strings(want)
	assert.Equal(t, want, sorted)
	assert.Equal(t, Stats{Events: 14, Updates: 11, Books: 2}, stats)
}

func TestRun_MalformedIsFatal(t *testing.T) {
	input := testFeed + "12,AAPL,7,B,many,1100\n13,AAPL,8,B,10,1200\n"

	for _, shards := range []int{1, 3} {
		_, _, err := replay(t, Config{Shards: shards}, input)
		var recErr *feed.RecordError
		require.ErrorAs(t, err, &recErr, "shards=%d", shards)
		assert.Equal(t, 17, recErr.Line)
		assert.ErrorIs(t, err, feed.ErrMalformedRecord)
	}

	// Updates before the bad record are still written.
	output, _, _ := replay(t, Config{Shards: 1}, input)
	assert.Equal(t, expectedLines, lines(output))
}

func TestRun_LenientSkipsMalformed(t *testing.T) {
	input := testFeed + "12,AAPL,7,B,many,1100\n12,AAPL\n13,AAPL,8,B,10,1200\n"

	output, stats, err := replay(t, Config{Shards: 1, Lenient: true}, input)
	require.NoError(t, err)
	assert.Equal(t, append(expectedLines, "13,AAPL,1200,10,1120,50"), lines(output))
	assert.Equal(t, uint64(2), stats.Skipped)
	assert.Equal(t, uint64(15), stats.Events)
}

func TestRun_DuplicateOrderIsFatal(t *testing.T) {
	input := testFeed + "12,AAPL,6,S,10,1300\n"

	for _, shards := range []int{1, 2} {
		_, _, err := replay(t, Config{Shards: shards, Lenient: true}, input)
		assert.ErrorIs(t, err, engine.ErrDuplicateOrder, "shards=%d", shards)
	}
}

func TestRun_ShardedFailureKeepsTickerOrder(t *testing.T) {
	input := testFeed + "12,AAPL,6,S,10,1300\n"
	want := byTicker(expectedLines)

	// Which lines the healthy shard writes before the tomb dies depends on
	// scheduling. Whatever was written is still in order per ticker.
	for i := 0; i < 20; i++ {
		output, _, err := replay(t, Config{Shards: 2}, input)
		require.ErrorIs(t, err, engine.ErrDuplicateOrder)
		if output == "" {
			continue
		}
		for ticker, got := range byTicker(lines(output)) {
			require.LessOrEqual(t, len(got), len(want[ticker]))
			assert.Equal(t, want[ticker][:len(got)], got, ticker)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := New(Config{}, zerolog.Nop()).Run(ctx, strings.NewReader(testFeed), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
