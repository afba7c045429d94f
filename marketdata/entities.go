package marketdata

import (
	"cloud.google.com/go/civil"
)

// Resolution defines the size of a candle.
type Resolution string

const (
	OneMin  Resolution = "1"
	FiveMin Resolution = "5"
	OneHour Resolution = "60"
	Daily   Resolution = "D"
	Weekly  Resolution = "W"
	Monthly Resolution = "M"
)

// QuoteStatus is the outcome of a single quote lookup.
type QuoteStatus string

const (
	QuoteOK    QuoteStatus = "ok"
	QuoteError QuoteStatus = "error"
)

// Quote is the current price of a symbol together with its daily change.
type Quote struct {
	Symbol        string
	Price         float64
	Change        float64
	PercentChange float64

	// Err is set when the lookup of this symbol failed. The numeric fields
	// are zero in that case.
	Err error
}

// Status returns QuoteError if the lookup failed and QuoteOK otherwise.
func (q Quote) Status() QuoteStatus {
	if q.Err != nil {
		return QuoteError
	}
	return QuoteOK
}

// Reason returns the failure reason, or an empty string for a successful quote.
func (q Quote) Reason() string {
	if q.Err == nil {
		return ""
	}
	return q.Err.Error()
}

type quoteResponse struct {
	Price         *float64 `json:"c"`
	Change        *float64 `json:"d"`
	PercentChange *float64 `json:"dp"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	Open          *float64 `json:"o"`
	PreviousClose *float64 `json:"pc"`
	Timestamp     int64    `json:"t"`
}

// CandleSeries is a raw candle series as returned by the candle endpoint:
// parallel arrays indexed by candle plus a status flag.
type CandleSeries struct {
	Status     string    `json:"s"`
	Timestamps []int64   `json:"t"`
	Open       []float64 `json:"o"`
	High       []float64 `json:"h"`
	Low        []float64 `json:"l"`
	Close      []float64 `json:"c"`
	Volume     []float64 `json:"v"`
}

// StatusOK is the status of a candle series that carries data.
const StatusOK = "ok"

// Candle is a single OHLC bar with day granularity.
type Candle struct {
	Date   civil.Date
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume uint64
}

// Profile is the company profile of a symbol.
type Profile struct {
	Name                 string  `json:"name"`
	Ticker               string  `json:"ticker"`
	Exchange             string  `json:"exchange"`
	Currency             string  `json:"currency"`
	Country              string  `json:"country"`
	Industry             string  `json:"finnhubIndustry"`
	IPO                  string  `json:"ipo"`
	Logo                 string  `json:"logo"`
	WebURL               string  `json:"weburl"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	ShareOutstanding     float64 `json:"shareOutstanding"`
}
