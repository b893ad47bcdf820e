package scorer

import (
	"math"
	"testing"
	"time"

	"CommoditySentinel/internal/model"
)

func seriesFromCloses(closes []float64) model.PriceSeries {
	bars := make([]model.PriceBar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Time:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return model.PriceSeries{Asset: "GOLD", Ticker: "GC=F", Bars: bars}
}

// trendingCloses produces a noisy uptrend (or downtrend for negative drift)
// with enough variance to keep volatility non-degenerate.
func trendingCloses(n int, drift float64) []float64 {
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		wiggle := 0.004 * math.Sin(float64(i)*1.7)
		price *= 1 + drift + wiggle
		closes[i] = price
	}
	return closes
}

func TestMomentumScore_Bounded(t *testing.T) {
	s := NewMomentumScorer(DefaultMomentumConfig())
	tests := []struct {
		name  string
		drift float64
	}{
		{"strong uptrend", 0.01},
		{"mild uptrend", 0.002},
		{"flat-ish", 0.0001},
		{"mild downtrend", -0.002},
		{"strong downtrend", -0.01},
	}
	for _, tt := range tests {
		score := s.Score(seriesFromCloses(trendingCloses(60, tt.drift)))
		if score <= 0.0 || score >= 1.0 {
			t.Errorf("%s: score %v escapes (0,1)", tt.name, score)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			t.Errorf("%s: score %v not finite", tt.name, score)
		}
	}
}

func TestMomentumScore_DirectionFollowsTrend(t *testing.T) {
	s := NewMomentumScorer(DefaultMomentumConfig())
	up := s.Score(seriesFromCloses(trendingCloses(60, 0.008)))
	down := s.Score(seriesFromCloses(trendingCloses(60, -0.008)))
	if up <= 0.5 {
		t.Errorf("uptrend score = %v, want > 0.5", up)
	}
	if down >= 0.5 {
		t.Errorf("downtrend score = %v, want < 0.5", down)
	}
}

func TestMomentumScore_FailOpen(t *testing.T) {
	s := NewMomentumScorer(DefaultMomentumConfig())

	// Too few bars
	if got := s.Score(seriesFromCloses(trendingCloses(20, 0.01))); got != NeutralScore {
		t.Errorf("short series: got %v, want %v", got, NeutralScore)
	}

	// Empty series
	if got := s.Score(model.PriceSeries{}); got != NeutralScore {
		t.Errorf("empty series: got %v, want %v", got, NeutralScore)
	}

	// NaN close in the scored window
	closes := trendingCloses(60, 0.005)
	closes[len(closes)-3] = math.NaN()
	if got := s.Score(seriesFromCloses(closes)); got != NeutralScore {
		t.Errorf("NaN close: got %v, want %v", got, NeutralScore)
	}

	// Flat series: volatility below epsilon
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 100.0
	}
	if got := s.Score(seriesFromCloses(flat)); got != NeutralScore {
		t.Errorf("degenerate volatility: got %v, want %v", got, NeutralScore)
	}
}

func TestMomentumScore_Deterministic(t *testing.T) {
	s := NewMomentumScorer(DefaultMomentumConfig())
	series := seriesFromCloses(trendingCloses(80, 0.003))
	first := s.Score(series)
	for i := 0; i < 5; i++ {
		if got := s.Score(series); got != first {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

func TestLinearScore_ClampAndRound(t *testing.T) {
	s := NewLinearScorer()

	// Huge rally clamps at the upper bound.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	closes[len(closes)-1] = 200
	if got := s.Score(seriesFromCloses(closes)); got != 0.70 {
		t.Errorf("rally: got %v, want 0.70", got)
	}

	// Crash clamps at the lower bound.
	closes[len(closes)-1] = 50
	if got := s.Score(seriesFromCloses(closes)); got != 0.30 {
		t.Errorf("crash: got %v, want 0.30", got)
	}

	// Short history falls open.
	if got := s.Score(seriesFromCloses(closes[:10])); got != NeutralScore {
		t.Errorf("short: got %v, want %v", got, NeutralScore)
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"momentum", "linear"} {
		s, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Name() = %q, want %q", s.Name(), name)
		}
	}
	if _, err := Get("no-such-scorer"); err == nil {
		t.Error("expected error for unknown scorer")
	}
}
