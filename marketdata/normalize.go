package marketdata

import (
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/civil"
)

// NormalizeCandles converts a raw candle series into candles ordered as in the
// series. Each timestamp is converted to its UTC calendar date.
func NormalizeCandles(series CandleSeries) ([]Candle, error) {
	if series.Status != StatusOK {
		return nil, fmt.Errorf("status %q: %w", series.Status, ErrDataUnavailable)
	}
	n := len(series.Timestamps)
	if n == 0 {
		return nil, fmt.Errorf("empty series: %w", ErrDataUnavailable)
	}
	if len(series.Open) != n || len(series.High) != n || len(series.Low) != n ||
		len(series.Close) != n || len(series.Volume) != n {
		return nil, fmt.Errorf("ragged series: %w", ErrDataUnavailable)
	}

	candles := make([]Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = Candle{
			Date:   civil.DateOf(time.Unix(series.Timestamps[i], 0).UTC()),
			Open:   series.Open[i],
			High:   series.High[i],
			Low:    series.Low[i],
			Close:  series.Close[i],
			Volume: uint64(math.Round(math.Max(series.Volume[i], 0))),
		}
	}
	return candles, nil
}
