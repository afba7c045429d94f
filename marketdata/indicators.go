package marketdata

import (
	"context"
	"fmt"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
)

// TechnicalIndicators can be used to analyse the candle history of a symbol.
type TechnicalIndicators interface {
	// Patterns returns the most recent candlestick patterns of the symbol.
	Patterns(ctx context.Context, symbol string, params AnalysisParams) ([]Pattern, error)
	// ADTV calculates the average daily trading volume.
	ADTV(ctx context.Context, symbol string, params AnalysisParams) (*ADTV, error)
	// Analyze fetches the candles once and derives every indicator from them.
	Analyze(ctx context.Context, symbol string, params AnalysisParams) (*Analysis, error)
}

// AnalysisParams contains optional parameters for the indicators.
type AnalysisParams struct {
	// Start is the inclusive beginning of the interval.
	// Defaults to LookbackDays before End.
	Start time.Time
	// End is the inclusive end of the interval. Defaults to now.
	End time.Time
	// LookbackDays is used when Start is empty. Defaults to 90.
	LookbackDays int
	// MovingAverageWindow is the number of closes averaged by Analyze.
	// Defaults to 20.
	MovingAverageWindow int
}

const (
	defaultLookbackDays        = 90
	defaultMovingAverageWindow = 20
)

func (p AnalysisParams) interval(now time.Time) (time.Time, time.Time) {
	end := p.End
	if end.IsZero() {
		end = now
	}
	start := p.Start
	if start.IsZero() {
		days := p.LookbackDays
		if days <= 0 {
			days = defaultLookbackDays
		}
		start = end.AddDate(0, 0, -days)
	}
	return start, end
}

type indicators struct {
	// mockable functions
	getCandles func(ctx context.Context, symbol string, req GetCandlesRequest) ([]Candle, error)
	now        func() time.Time
}

type IndicatorsOpts struct {
	Client *Client
}

func NewIndicators(opts IndicatorsOpts) TechnicalIndicators {
	c := opts.Client
	if c == nil {
		c = DefaultClient
	}
	return &indicators{
		getCandles: c.GetCandles,
		now:        time.Now,
	}
}

// Indicators can be used to query technical indicators using the default client.
var Indicators = NewIndicators(IndicatorsOpts{})

func (i *indicators) candles(ctx context.Context, symbol string, params AnalysisParams) ([]Candle, error) {
	start, end := params.interval(i.now())
	candles, err := i.getCandles(ctx, symbol, GetCandlesRequest{
		Resolution: Daily,
		From:       start,
		To:         end,
	})
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	return candles, nil
}

// Patterns returns the most recent candlestick patterns of the symbol.
func (i *indicators) Patterns(ctx context.Context, symbol string, params AnalysisParams) ([]Pattern, error) {
	candles, err := i.candles(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	return DetectPatterns(candles), nil
}

// ADTV calculates the average daily trading volume.
func (i *indicators) ADTV(ctx context.Context, symbol string, params AnalysisParams) (*ADTV, error) {
	candles, err := i.candles(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	adtv := adtvOf(candles)
	return &adtv, nil
}

// Analyze fetches the candles once and derives every indicator from them.
func (i *indicators) Analyze(ctx context.Context, symbol string, params AnalysisParams) (*Analysis, error) {
	candles, err := i.candles(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	window := params.MovingAverageWindow
	if window <= 0 {
		window = defaultMovingAverageWindow
	}
	ma := movingaverage.New(window)
	for _, c := range candles {
		ma.Add(c.Close)
	}

	return &Analysis{
		Symbol:        symbol,
		Candles:       candles,
		Patterns:      DetectPatterns(candles),
		ADTV:          adtvOf(candles),
		MovingAverage: ma.Avg(),
		AverageWindow: ma.Count(),
	}, nil
}

func adtvOf(candles []Candle) ADTV {
	if len(candles) == 0 {
		return ADTV{}
	}
	var totalVolume uint64
	for _, c := range candles {
		totalVolume += c.Volume
	}
	return ADTV{
		AverageVolume: float64(totalVolume) / float64(len(candles)),
		Days:          len(candles),
	}
}

// ADTV is the average daily trading volume. It also contains the number of trading days
// the average contains.
type ADTV struct {
	AverageVolume float64
	Days          int
}

// Analysis is everything the detail view of a symbol shows.
type Analysis struct {
	Symbol   string
	Candles  []Candle
	Patterns []Pattern
	ADTV     ADTV
	// MovingAverage is the simple moving average of the last AverageWindow closes.
	MovingAverage float64
	AverageWindow int
}

// Latest returns the last candle of the analysis.
func (a *Analysis) Latest() (Candle, bool) {
	if len(a.Candles) == 0 {
		return Candle{}, false
	}
	return a.Candles[len(a.Candles)-1], true
}
