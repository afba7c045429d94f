package watchlist

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/stockpulse/stockpulse-go/internal/trace"
	"github.com/stockpulse/stockpulse-go/marketdata"
)

// QuoteSource fetches quotes for a batch of symbols. *marketdata.Client implements it.
type QuoteSource interface {
	GetQuotes(ctx context.Context, symbols []string, policy marketdata.BatchPolicy) []marketdata.Quote
}

// ProfileSource looks up company profiles. *marketdata.Client implements it.
type ProfileSource interface {
	GetProfile(ctx context.Context, symbol string) (*marketdata.Profile, error)
}

// Item is one row of the watchlist.
type Item struct {
	Symbol string
	// Name is empty for failed quotes.
	Name          string
	Currency      string
	Price         float64
	Change        float64
	PercentChange float64
	Err           error
}

// OK returns whether the quote of the item was loaded.
func (i Item) OK() bool {
	return i.Err == nil
}

// Positive returns whether the daily change is not negative.
func (i Item) Positive() bool {
	return i.Change >= 0
}

// Summary aggregates the successfully loaded items.
type Summary struct {
	Loaded      int
	Failed      int
	TotalValue  decimal.Decimal
	TotalChange decimal.Decimal
}

// Positive returns whether the total change is not negative.
func (s Summary) Positive() bool {
	return !s.TotalChange.IsNegative()
}

// Snapshot is the result of one refresh.
type Snapshot struct {
	Items       []Item
	Summary     Summary
	RefreshedAt time.Time
}

// Options configures a Watchlist.
type Options struct {
	Symbols []string
	// Names maps symbols to display names. Symbols missing from it are
	// looked up with Profiles.
	Names    map[string]string
	Policy   marketdata.BatchPolicy
	Quotes   QuoteSource
	Profiles ProfileSource
	Logger   *zap.Logger
}

// Watchlist is a static set of symbols that is refreshed as a batch.
type Watchlist struct {
	symbols  []string
	names    map[string]string
	policy   marketdata.BatchPolicy
	quotes   QuoteSource
	profiles ProfileSource
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	resolved map[string]string
	latest   *Snapshot
}

// New creates a watchlist. Quotes defaults to marketdata.DefaultClient.
func New(opts Options) *Watchlist {
	names := make(map[string]string, len(opts.Names))
	for k, v := range opts.Names {
		names[strings.ToUpper(k)] = v
	}
	quotes := opts.Quotes
	if quotes == nil {
		quotes = marketdata.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watchlist{
		symbols:  append([]string(nil), opts.Symbols...),
		names:    names,
		policy:   opts.Policy,
		quotes:   quotes,
		profiles: opts.Profiles,
		logger:   logger,
		now:      time.Now,
		resolved: make(map[string]string),
	}
}

// Symbols returns the symbols of the watchlist in display order.
func (w *Watchlist) Symbols() []string {
	return append([]string(nil), w.symbols...)
}

// Refresh fetches a quote for every symbol. A failing symbol never fails the
// whole refresh, it shows up as an item with Err set.
func (w *Watchlist) Refresh(ctx context.Context) Snapshot {
	ctx, span := trace.StartSpan(ctx, "watchlist.refresh")
	defer span.End()
	span.SetAttributes(attribute.Int("watchlist.symbols", len(w.symbols)))

	quotes := w.quotes.GetQuotes(ctx, w.symbols, w.policy)
	items := make([]Item, len(quotes))
	for i, q := range quotes {
		item := Item{
			Symbol:   q.Symbol,
			Currency: CurrencySymbol(q.Symbol),
			Err:      q.Err,
		}
		if q.Err != nil {
			w.logger.Warn("quote failed", zap.String("symbol", q.Symbol), zap.Error(q.Err))
		} else {
			item.Name = w.name(ctx, q.Symbol)
			item.Price = q.Price
			item.Change = q.Change
			item.PercentChange = q.PercentChange
		}
		items[i] = item
	}

	snap := Snapshot{
		Items:       items,
		Summary:     Summarize(items),
		RefreshedAt: w.now(),
	}
	span.SetAttributes(
		attribute.Int("watchlist.loaded", snap.Summary.Loaded),
		attribute.Int("watchlist.failed", snap.Summary.Failed),
	)
	w.logger.Debug("watchlist refreshed",
		zap.Int("loaded", snap.Summary.Loaded),
		zap.Int("failed", snap.Summary.Failed),
		zap.Stringer("total_value", snap.Summary.TotalValue))

	w.mu.Lock()
	w.latest = &snap
	w.mu.Unlock()
	return snap
}

// Latest returns the snapshot of the most recent refresh.
func (w *Watchlist) Latest() (Snapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.latest == nil {
		return Snapshot{}, false
	}
	return *w.latest, true
}

// name resolves the display name of symbol. Profile lookup failures fall
// back to the symbol itself.
func (w *Watchlist) name(ctx context.Context, symbol string) string {
	if n, ok := w.names[strings.ToUpper(symbol)]; ok {
		return n
	}
	w.mu.RLock()
	n, ok := w.resolved[symbol]
	w.mu.RUnlock()
	if ok {
		return n
	}
	if w.profiles == nil {
		return symbol
	}

	ctx, span := trace.StartSpan(ctx, "watchlist.profile")
	defer span.End()
	span.SetAttributes(trace.Symbol(symbol))

	p, err := w.profiles.GetProfile(ctx, symbol)
	if err != nil {
		trace.RecordError(span, err)
		w.logger.Debug("profile lookup failed", zap.String("symbol", symbol), zap.Error(err))
		return symbol
	}
	w.mu.Lock()
	w.resolved[symbol] = p.Name
	w.mu.Unlock()
	return p.Name
}

// Summarize totals the prices and changes of the loaded items.
func Summarize(items []Item) Summary {
	s := Summary{
		TotalValue:  decimal.Zero,
		TotalChange: decimal.Zero,
	}
	for _, item := range items {
		if !item.OK() {
			s.Failed++
			continue
		}
		s.Loaded++
		s.TotalValue = s.TotalValue.Add(decimal.NewFromFloat(item.Price))
		s.TotalChange = s.TotalChange.Add(decimal.NewFromFloat(item.Change))
	}
	return s
}

// CurrencySymbol returns the currency sign prices of symbol are quoted in.
// NSE listings (".NS") trade in rupees, everything else in dollars.
func CurrencySymbol(symbol string) string {
	if strings.Contains(strings.ToUpper(symbol), ".NS") {
		return "₹"
	}
	return "$"
}
