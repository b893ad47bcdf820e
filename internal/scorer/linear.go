package scorer

import "CommoditySentinel/internal/model"

// LinearScorer is the earlier linear-clip formula kept behind the same
// interface: 21-bar return scaled ×3, clipped to ±0.2 around 0.5, clamped
// to [0.30, 0.70].
type LinearScorer struct {
	window int
}

func NewLinearScorer() *LinearScorer { return &LinearScorer{window: 21} }

func (l *LinearScorer) Name() string { return "linear" }

func (l *LinearScorer) Score(series model.PriceSeries) float64 {
	closes := series.Closes()
	if len(closes) < l.window+1 {
		return NeutralScore
	}
	last := closes[len(closes)-1]
	past := closes[len(closes)-1-l.window]
	if !isFinite(last) || !isFinite(past) || past <= 0 {
		return NeutralScore
	}

	r := (last - past) / past
	raw := 0.5 + clip(r*3.0, -0.2, 0.2)
	return round3(clip(raw, 0.30, 0.70))
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
