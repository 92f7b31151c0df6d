package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		expected Event
	}{
		{
			name:     "buy",
			record:   "28800538,AAPL,b1,B,150,1110",
			expected: Event{Time: 28800538, Ticker: "AAPL", OrderID: "b1", Kind: KindBuy, Tag: 'B', Shares: 150, Price: 1110},
		},
		{
			name:     "sell with trailing fields",
			record:   "1,MSFT,s1,S,10,2000,extra,fields",
			expected: Event{Time: 1, Ticker: "MSFT", OrderID: "s1", Kind: KindSell, Tag: 'S', Shares: 10, Price: 2000},
		},
		{
			name:     "decrease",
			record:   "2,AAPL,b1,C,50,0",
			expected: Event{Time: 2, Ticker: "AAPL", OrderID: "b1", Kind: KindDecrease, Tag: 'C', Shares: 50},
		},
		{
			name:     "delete",
			record:   "3,AAPL,b1,D,0,0",
			expected: Event{Time: 3, Ticker: "AAPL", OrderID: "b1", Kind: KindDelete, Tag: 'D'},
		},
		{
			name:     "execute",
			record:   "4,AAPL,b1,E,25,0",
			expected: Event{Time: 4, Ticker: "AAPL", OrderID: "b1", Kind: KindExecute, Tag: 'E', Shares: 25},
		},
		{
			name:     "fill",
			record:   "5,AAPL,b1,F,0,0",
			expected: Event{Time: 5, Ticker: "AAPL", OrderID: "b1", Kind: KindFill, Tag: 'F'},
		},
		{
			name:     "trade",
			record:   "6,AAPL,b1,T,10,1110",
			expected: Event{Time: 6, Ticker: "AAPL", OrderID: "b1", Kind: KindTrade, Tag: 'T', Shares: 10, Price: 1110},
		},
		{
			name:     "cross trade",
			record:   "7,AAPL,,X,10,1110",
			expected: Event{Time: 7, Ticker: "AAPL", Kind: KindCrossTrade, Tag: 'X', Shares: 10, Price: 1110},
		},
		{
			name:     "widest shares and price",
			record:   "18446744073709551615,AAPL,b1,B,4294967295,4294967295",
			expected: Event{Time: 18446744073709551615, Ticker: "AAPL", OrderID: "b1", Kind: KindBuy, Tag: 'B', Shares: 4294967295, Price: 4294967295},
		},
		{
			name:     "unknown tag",
			record:   "8,AAPL,b1,Q,1,2",
			expected: Event{Time: 8, Ticker: "AAPL", OrderID: "b1", Kind: KindOther, Tag: 'Q', Shares: 1, Price: 2},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseEvent(tc.record)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ev)
		})
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	records := map[string]string{
		"too few fields":  "1,AAPL,b1,B,150",
		"empty":           "",
		"bad time":        "x,AAPL,b1,B,150,1110",
		"negative shares": "1,AAPL,b1,B,-150,1110",
		"bad price":       "1,AAPL,b1,B,150,11.10",
		"empty type":      "1,AAPL,b1,,150,1110",
		"long type":       "1,AAPL,b1,BS,150,1110",
		"padded type":     "1,AAPL,b1, B,150,1110",
		"trailing type":   "1,AAPL,b1,B ,150,1110",
		"shares too wide": "1,AAPL,b1,B,4294967296,1110",
		"huge shares":     "1,AAPL,b1,B,9223372036854775808,1110",
		"price too wide":  "1,AAPL,b1,B,150,4294967296",
		"time too wide":   "18446744073709551616,AAPL,b1,B,150,1110",
	}
	for name, record := range records {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent(record)
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "buy", KindBuy.String())
	assert.Equal(t, "cross-trade", KindCrossTrade.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
