package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse-go/internal/watchlist"
	"github.com/stockpulse/stockpulse-go/marketdata"
	"github.com/stockpulse/stockpulse-go/marketdata/stream"
)

func TestPrintSnapshot(t *testing.T) {
	items := []watchlist.Item{
		{Symbol: "AAPL", Name: "Apple Inc.", Currency: "$", Price: 189.5, Change: 1.25, PercentChange: 0.66},
		{Symbol: "TSLA", Name: "Tesla Inc.", Currency: "$", Price: 175.2, Change: -3.1, PercentChange: -1.74},
		{Symbol: "XXXX", Currency: "$", Err: errors.New("no data")},
	}
	snap := watchlist.Snapshot{
		Items:       items,
		Summary:     watchlist.Summarize(items),
		RefreshedAt: time.Date(2024, 3, 1, 15, 4, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, printSnapshot(&buf, snap))
	out := buf.String()

	assert.Contains(t, out, "Watchlist at 3:04PM")
	assert.Contains(t, out, "$189.50")
	assert.Contains(t, out, "+1.25")
	assert.Contains(t, out, "+0.66%")
	assert.Contains(t, out, "-3.10")
	assert.Contains(t, out, "-1.74%")
	assert.Contains(t, out, "Failed to load")
	assert.Contains(t, out, "2 loaded, 1 failed")
	assert.Contains(t, out, "364.70")
	assert.Contains(t, out, "-1.85")
	assert.Contains(t, out, "down")
}

func TestPrintAnalysis(t *testing.T) {
	day := civil.Date{Year: 2024, Month: 3, Day: 1}
	a := &marketdata.Analysis{
		Symbol:        "AAPL",
		Candles:       []marketdata.Candle{{Date: day, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100}},
		ADTV:          marketdata.ADTV{AverageVolume: 100, Days: 1},
		MovingAverage: 10.5,
		AverageWindow: 1,
		Patterns: []marketdata.Pattern{
			{Date: day, Kind: marketdata.Hammer, Sentiment: marketdata.Bullish},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printAnalysis(&buf, "Apple Inc.", a))
	out := buf.String()
	assert.Contains(t, out, "Apple Inc. (AAPL)")
	assert.Contains(t, out, "10.50 on 2024-03-01")
	assert.Contains(t, out, "100 over 1 days")
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "Hammer")

	buf.Reset()
	a.Patterns = nil
	require.NoError(t, printAnalysis(&buf, "Apple Inc.", a))
	assert.Contains(t, buf.String(), "No patterns detected")
}

func TestPrintTrade(t *testing.T) {
	var buf bytes.Buffer
	printTrade(&buf, stream.Trade{Symbol: "TCS.NS", Price: 3900.456, Timestamp: time.Now()})
	assert.Contains(t, buf.String(), "TCS.NS ₹3900.46")
}
