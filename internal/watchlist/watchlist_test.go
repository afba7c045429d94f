package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse-go/marketdata"
)

type mockQuotes struct {
	quotes   map[string]marketdata.Quote
	policies []marketdata.BatchPolicy
	calls    int32
}

func (m *mockQuotes) GetQuotes(_ context.Context, symbols []string, policy marketdata.BatchPolicy) []marketdata.Quote {
	atomic.AddInt32(&m.calls, 1)
	m.policies = append(m.policies, policy)
	res := make([]marketdata.Quote, len(symbols))
	for i, s := range symbols {
		q, ok := m.quotes[s]
		if !ok {
			q = marketdata.Quote{Err: fmt.Errorf("%s: %w", s, marketdata.ErrNoData)}
		}
		q.Symbol = s
		res[i] = q
	}
	return res
}

type mockProfiles struct {
	mu       sync.Mutex
	names    map[string]string
	requests []string
}

func (m *mockProfiles) GetProfile(_ context.Context, symbol string) (*marketdata.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, symbol)
	n, ok := m.names[symbol]
	if !ok {
		return nil, &marketdata.HTTPError{StatusCode: 403, Message: "no access"}
	}
	return &marketdata.Profile{Name: n, Ticker: symbol}, nil
}

func TestRefresh(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]marketdata.Quote{
		"AAPL":        {Price: 189.5, Change: 1.25, PercentChange: 0.66},
		"TSLA":        {Price: 175.2, Change: -3.1, PercentChange: -1.74},
		"RELIANCE.NS": {Price: 2950.1, Change: 10, PercentChange: 0.34},
	}}
	profiles := &mockProfiles{names: map[string]string{"RELIANCE.NS": "Reliance Industries Ltd"}}
	w := New(Options{
		Symbols:  []string{"AAPL", "TSLA", "XXXX", "RELIANCE.NS"},
		Names:    map[string]string{"aapl": "Apple Inc.", "TSLA": "Tesla Inc."},
		Policy:   marketdata.BatchPolicy{Concurrency: 2},
		Quotes:   quotes,
		Profiles: profiles,
	})
	refreshedAt := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return refreshedAt }

	_, ok := w.Latest()
	assert.False(t, ok)

	snap := w.Refresh(context.Background())
	require.Len(t, snap.Items, 4)
	assert.Equal(t, []marketdata.BatchPolicy{{Concurrency: 2}}, quotes.policies)
	assert.Equal(t, refreshedAt, snap.RefreshedAt)

	assert.Equal(t, Item{
		Symbol: "AAPL", Name: "Apple Inc.", Currency: "$",
		Price: 189.5, Change: 1.25, PercentChange: 0.66,
	}, snap.Items[0])
	assert.Equal(t, "Tesla Inc.", snap.Items[1].Name)
	assert.False(t, snap.Items[1].Positive())

	failed := snap.Items[2]
	assert.Equal(t, "XXXX", failed.Symbol)
	assert.False(t, failed.OK())
	assert.ErrorIs(t, failed.Err, marketdata.ErrNoData)
	assert.Empty(t, failed.Name)
	assert.Zero(t, failed.Price)

	assert.Equal(t, "Reliance Industries Ltd", snap.Items[3].Name)
	assert.Equal(t, "₹", snap.Items[3].Currency)

	assert.Equal(t, 3, snap.Summary.Loaded)
	assert.Equal(t, 1, snap.Summary.Failed)
	assert.True(t, snap.Summary.TotalValue.Equal(decimal.RequireFromString("3314.8")), snap.Summary.TotalValue.String())
	assert.True(t, snap.Summary.TotalChange.Equal(decimal.RequireFromString("8.15")), snap.Summary.TotalChange.String())
	assert.True(t, snap.Summary.Positive())

	latest, ok := w.Latest()
	assert.True(t, ok)
	assert.Equal(t, snap.Summary.Loaded, latest.Summary.Loaded)

	// resolved profile names are cached, failed symbols are never looked up
	w.Refresh(context.Background())
	assert.Equal(t, []string{"RELIANCE.NS"}, profiles.requests)
}

func TestRefreshProfileFailureFallsBackToSymbol(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]marketdata.Quote{"NFLX": {Price: 600}}}
	profiles := &mockProfiles{}
	w := New(Options{Symbols: []string{"NFLX"}, Quotes: quotes, Profiles: profiles})

	snap := w.Refresh(context.Background())
	require.Len(t, snap.Items, 1)
	assert.True(t, snap.Items[0].OK())
	assert.Equal(t, "NFLX", snap.Items[0].Name)

	// without a profile source the symbol is used as well
	w = New(Options{Symbols: []string{"NFLX"}, Quotes: quotes})
	assert.Equal(t, "NFLX", w.Refresh(context.Background()).Items[0].Name)
}

func TestSummarize(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Loaded)
	assert.True(t, s.TotalValue.IsZero())
	assert.True(t, s.Positive())

	s = Summarize([]Item{
		{Symbol: "A", Price: 0.1, Change: -0.2},
		{Symbol: "B", Price: 0.2, Change: 0.1},
		{Symbol: "C", Err: errors.New("failed"), Price: 100},
	})
	assert.Equal(t, 2, s.Loaded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, "0.3", s.TotalValue.String())
	assert.Equal(t, "-0.1", s.TotalChange.String())
	assert.False(t, s.Positive())
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", CurrencySymbol("AAPL"))
	assert.Equal(t, "₹", CurrencySymbol("TCS.NS"))
	assert.Equal(t, "₹", CurrencySymbol("infy.ns"))
}

func TestSymbolsIsACopy(t *testing.T) {
	w := New(Options{Symbols: []string{"AAPL"}, Quotes: &mockQuotes{}})
	s := w.Symbols()
	s[0] = "MSFT"
	assert.Equal(t, []string{"AAPL"}, w.Symbols())
}
