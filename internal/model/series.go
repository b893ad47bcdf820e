package model

import (
	"math"
	"time"
)

// PriceBar represents a single OHLCV bar.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the price history for one asset, ascending by time.
// The core packages only read trailing windows and never mutate it.
type PriceSeries struct {
	Asset     string
	Ticker    string
	Bars      []PriceBar
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar and whether one exists.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close price column.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// LastClose returns the most recent close, or NaN if the series is empty.
func (s PriceSeries) LastClose() float64 {
	if len(s.Bars) == 0 {
		return math.NaN()
	}
	return s.Bars[len(s.Bars)-1].Close
}
