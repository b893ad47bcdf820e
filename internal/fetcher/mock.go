package fetcher

import (
	"context"
	"fmt"
	"time"

	"CommoditySentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	// Series maps ticker to a canned series. When a ticker is missing and
	// BasePrice is set, a synthetic drifting series is generated instead.
	Series    map[string]model.PriceSeries
	BasePrice float64
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context, asset, ticker string, days int) (model.PriceSeries, error) {
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	if s, ok := m.Series[ticker]; ok {
		s.Asset = asset
		s.Ticker = ticker
		return Normalize(s), nil
	}
	if m.BasePrice == 0 {
		return model.PriceSeries{}, fmt.Errorf("mock: no series for %s", ticker)
	}
	return Normalize(model.PriceSeries{
		Asset:     asset,
		Ticker:    ticker,
		Bars:      GenerateBars(m.BasePrice, days, time.Now().UTC()),
		FetchedAt: time.Now().UTC(),
	}), nil
}

// GenerateBars builds a synthetic daily series drifting gently around basePrice,
// ending at the bar for `end`.
func GenerateBars(basePrice float64, count int, end time.Time) []model.PriceBar {
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceBar{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
