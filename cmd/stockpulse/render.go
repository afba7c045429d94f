package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/stockpulse/stockpulse-go/internal/watchlist"
	"github.com/stockpulse/stockpulse-go/marketdata"
	"github.com/stockpulse/stockpulse-go/marketdata/stream"
)

func printSnapshot(out io.Writer, snap watchlist.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Watchlist at %s\n", snap.RefreshedAt.Format(time.Kitchen))
	fmt.Fprintln(w, "SYMBOL\tNAME\tPRICE\tCHANGE\t%")
	for _, item := range snap.Items {
		if !item.OK() {
			fmt.Fprintf(w, "%s\tFailed to load\t\t\t\n", item.Symbol)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s%.2f\t%s\t%s\n",
			item.Symbol, item.Name, item.Currency, item.Price,
			signed(item.Change, "%.2f"), signed(item.PercentChange, "%.2f%%"))
	}
	s := snap.Summary
	direction := "up"
	if !s.Positive() {
		direction = "down"
	}
	fmt.Fprintf(w, "Total\t%d loaded, %d failed\t%s\t%s\t%s\n",
		s.Loaded, s.Failed, s.TotalValue.StringFixed(2), s.TotalChange.StringFixed(2), direction)
	return w.Flush()
}

func printAnalysis(out io.Writer, name string, a *marketdata.Analysis) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s (%s)\n", name, a.Symbol)
	if c, ok := a.Latest(); ok {
		fmt.Fprintf(w, "Last close\t%.2f on %s\n", c.Close, c.Date)
	}
	fmt.Fprintf(w, "Avg daily volume\t%.0f over %d days\n", a.ADTV.AverageVolume, a.ADTV.Days)
	fmt.Fprintf(w, "Moving average\t%.2f over %d closes\n", a.MovingAverage, a.AverageWindow)
	if len(a.Patterns) == 0 {
		fmt.Fprintln(w, "No patterns detected")
		return w.Flush()
	}
	fmt.Fprintln(w, "Recent patterns")
	for _, p := range a.Patterns {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Date, p.Kind, p.Sentiment)
	}
	return w.Flush()
}

func printTrade(out io.Writer, t stream.Trade) {
	fmt.Fprintf(out, "%s %s %s%.2f\n",
		t.Timestamp.Local().Format(time.TimeOnly), t.Symbol, watchlist.CurrencySymbol(t.Symbol), t.Price)
}

func signed(v float64, format string) string {
	s := fmt.Sprintf(format, v)
	if v >= 0 {
		return "+" + s
	}
	return s
}
