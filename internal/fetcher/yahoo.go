package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"CommoditySentinel/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	Client    *http.Client
	SymbolMap map[string]string // maps asset ticker aliases to Yahoo symbols
	limiter   *rate.Limiter
}

// NewYahooFetcher creates a Yahoo Finance fetcher with optional proxy support.
// Requests are rate limited to stay under Yahoo's unauthenticated quota.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"GOLD":        "GC=F",
			"SILVER":      "SI=F",
			"COPPER":      "HG=F",
			"NATURAL GAS": "NG=F",
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(ticker string) string {
	if mapped, ok := f.SymbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func rangeForDays(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// FetchDaily fetches daily bars for ticker and trims to the requested count.
func (f *YahooFetcher) FetchDaily(ctx context.Context, asset, ticker string, days int) (model.PriceSeries, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return model.PriceSeries{}, err
	}

	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=%s",
		url.PathEscape(f.yahooSymbol(ticker)), rangeForDays(days))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.PriceSeries{}, fmt.Errorf("yahoo: no data returned for %s", ticker)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.PriceSeries{}, fmt.Errorf("yahoo: no quote data for %s", ticker)
	}
	quote := result.Indicators.Quote[0]

	at := func(vals []interface{}, i int) float64 {
		if i >= len(vals) {
			return 0
		}
		return toFloat(vals[i])
	}
	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, model.PriceBar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}

	series := Normalize(model.PriceSeries{
		Asset:     asset,
		Ticker:    ticker,
		Bars:      bars,
		FetchedAt: time.Now().UTC(),
	})
	if series.Len() > days {
		series.Bars = series.Bars[series.Len()-days:]
	}
	return series, nil
}
