package scorer

import (
	"math"

	"CommoditySentinel/internal/model"
)

// NeutralScore is the fail-open default when the input cannot be scored.
const NeutralScore = 0.50

// MomentumConfig tunes the volatility-normalized momentum formula.
type MomentumConfig struct {
	LongWindow  int     // bars for the long-horizon return
	ShortWindow int     // bars for the short-horizon return
	LongWeight  float64 // weight of the long-horizon component
	ShortWeight float64 // weight of the short-horizon component
	MinBars     int     // below this, score falls open to 0.50
	VolEpsilon  float64 // volatility floor against division blow-up
}

// DefaultMomentumConfig returns the backtest-validated parameters.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		LongWindow:  21,
		ShortWindow: 5,
		LongWeight:  0.65,
		ShortWeight: 0.35,
		MinBars:     30,
		VolEpsilon:  1e-8,
	}
}

// MomentumScorer maps volatility-normalized two-horizon momentum through
// tanh into probability space. Output stays well inside (0,1): the tanh core
// is scaled by 0.25 around 0.5, so the reachable range is (0.25, 0.75).
type MomentumScorer struct {
	cfg MomentumConfig
}

// NewMomentumScorer builds a scorer, falling back to defaults for
// non-positive config fields.
func NewMomentumScorer(cfg MomentumConfig) *MomentumScorer {
	def := DefaultMomentumConfig()
	if cfg.LongWindow <= 0 {
		cfg.LongWindow = def.LongWindow
	}
	if cfg.ShortWindow <= 0 {
		cfg.ShortWindow = def.ShortWindow
	}
	if cfg.LongWeight <= 0 {
		cfg.LongWeight = def.LongWeight
	}
	if cfg.ShortWeight <= 0 {
		cfg.ShortWeight = def.ShortWeight
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = def.MinBars
	}
	if cfg.VolEpsilon <= 0 {
		cfg.VolEpsilon = def.VolEpsilon
	}
	return &MomentumScorer{cfg: cfg}
}

func (m *MomentumScorer) Name() string { return "momentum" }

// Score computes the bounded upward-move probability. Insufficient history,
// non-finite closes, and degenerate volatility all fall open to 0.50.
func (m *MomentumScorer) Score(series model.PriceSeries) float64 {
	closes := series.Closes()
	minBars := m.cfg.MinBars
	if need := m.cfg.LongWindow + 1; need > minBars {
		minBars = need
	}
	if len(closes) < minBars {
		return NeutralScore
	}
	for _, c := range closes[len(closes)-minBars:] {
		if !isFinite(c) || c <= 0 {
			return NeutralScore
		}
	}

	last := closes[len(closes)-1]
	rLong := relReturn(last, closes[len(closes)-1-m.cfg.LongWindow])
	rShort := relReturn(last, closes[len(closes)-1-m.cfg.ShortWindow])

	vol := logReturnStddev(closes, m.cfg.LongWindow)
	if !isFinite(vol) || vol < m.cfg.VolEpsilon {
		return NeutralScore
	}

	zLong := rLong / (vol * math.Sqrt(float64(m.cfg.LongWindow)))
	zShort := rShort / (vol * math.Sqrt(float64(m.cfg.ShortWindow)))
	core := math.Tanh(m.cfg.LongWeight*zLong + m.cfg.ShortWeight*zShort)

	score := round3(0.5 + core*0.25)
	if !isFinite(score) {
		return NeutralScore
	}
	return score
}

func relReturn(last, past float64) float64 {
	return (last - past) / past
}

// logReturnStddev computes the population standard deviation of single-step
// log-returns over the trailing `window` steps.
func logReturnStddev(closes []float64, window int) float64 {
	n := len(closes)
	rets := make([]float64, 0, window)
	for i := n - window; i < n; i++ {
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var sumSq float64
	for _, r := range rets {
		d := r - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(rets)))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
