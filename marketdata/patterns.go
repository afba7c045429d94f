package marketdata

import (
	"math"

	"cloud.google.com/go/civil"
)

// PatternKind is a recognized candlestick pattern.
type PatternKind string

const (
	Hammer           PatternKind = "Hammer"
	ShootingStar     PatternKind = "Shooting Star"
	BullishEngulfing PatternKind = "Bullish Engulfing"
	BearishEngulfing PatternKind = "Bearish Engulfing"
	Doji             PatternKind = "Doji"
)

// Sentiment is the market direction a pattern hints at.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Neutral Sentiment = "neutral"
)

// Pattern is a pattern recognized on the candle of Date.
type Pattern struct {
	Date      civil.Date
	Kind      PatternKind
	Sentiment Sentiment
}

// MaxPatterns is the number of most recent patterns DetectPatterns keeps.
const MaxPatterns = 10

// DetectPatterns scans adjacent candle pairs and returns the last MaxPatterns
// recognized patterns in candle order.
//
// Every kind is tested independently, so a single candle may produce several
// patterns, even ones with opposite sentiments.
func DetectPatterns(candles []Candle) []Pattern {
	all := detectAllPatterns(candles)
	if len(all) > MaxPatterns {
		all = all[len(all)-MaxPatterns:]
	}
	return all
}

func detectAllPatterns(candles []Candle) []Pattern {
	patterns := []Pattern{}
	for i := 1; i < len(candles); i++ {
		p, c := candles[i-1], candles[i]
		add := func(kind PatternKind, sentiment Sentiment) {
			patterns = append(patterns, Pattern{Date: c.Date, Kind: kind, Sentiment: sentiment})
		}

		if isHammer(c) {
			add(Hammer, Bullish)
		}
		if isShootingStar(c) {
			add(ShootingStar, Bearish)
		}
		if isBullishEngulfing(p, c) {
			add(BullishEngulfing, Bullish)
		}
		if isBearishEngulfing(p, c) {
			add(BearishEngulfing, Bearish)
		}
		if isDoji(c) {
			add(Doji, Neutral)
		}
	}
	return patterns
}

func isHammer(c Candle) bool {
	body := c.Close - c.Open
	return c.Close > c.Open &&
		c.Open-c.Low > 2*body &&
		c.High-c.Close < 0.3*body
}

func isShootingStar(c Candle) bool {
	body := c.Open - c.Close
	return c.Close < c.Open &&
		c.High-c.Open > 2*body &&
		c.Close-c.Low < 0.3*body
}

func isBullishEngulfing(p, c Candle) bool {
	return p.Close < p.Open &&
		c.Close > c.Open &&
		c.Open <= p.Close &&
		c.Close >= p.Open
}

func isBearishEngulfing(p, c Candle) bool {
	return p.Close > p.Open &&
		c.Close < c.Open &&
		c.Open >= p.Close &&
		c.Close <= p.Open
}

func isDoji(c Candle) bool {
	// a zero range candle is not a doji
	if c.High == c.Low {
		return false
	}
	return math.Abs(c.Close-c.Open) < 0.05*(c.High-c.Low)
}
