package fetcher

import (
	"context"
	"math"
	"sort"

	"CommoditySentinel/internal/model"
)

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	// FetchDaily returns up to `days` daily bars for ticker, ascending by time.
	FetchDaily(ctx context.Context, asset, ticker string, days int) (model.PriceSeries, error)
	Name() string
}

// Normalize brings a raw series into canonical shape: bars sorted ascending
// by time, all-zero placeholder bars dropped. Every fetcher runs its output
// through this so the core packages never re-check shape.
func Normalize(series model.PriceSeries) model.PriceSeries {
	bars := make([]model.PriceBar, 0, len(series.Bars))
	for _, b := range series.Bars {
		if b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 {
			continue // null bar (holiday etc.)
		}
		if math.IsInf(b.Close, 0) {
			continue
		}
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	series.Bars = bars
	return series
}
