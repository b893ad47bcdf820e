package scorer

import "CommoditySentinel/internal/model"

// TrendBreakpoints are the relative-return boundaries between trend labels.
type TrendBreakpoints struct {
	StrongUp   float64 // above this: STRONG_UP
	Up         float64 // above this: UP
	Down       float64 // below this: DOWN
	StrongDown float64 // below this: STRONG_DOWN
}

// DefaultTrendBreakpoints returns the standard ±1.5% / ±0.5% buckets.
func DefaultTrendBreakpoints() TrendBreakpoints {
	return TrendBreakpoints{
		StrongUp:   0.015,
		Up:         0.005,
		Down:       -0.005,
		StrongDown: -0.015,
	}
}

// ClassifyTrend buckets the relative return over horizonDays bars into a
// descriptive label. Insufficient history classifies as neutral.
func ClassifyTrend(series model.PriceSeries, horizonDays int, bp TrendBreakpoints) model.TrendLabel {
	closes := series.Closes()
	if horizonDays <= 0 || len(closes) < horizonDays+1 {
		return model.TrendNeutral
	}
	last := closes[len(closes)-1]
	past := closes[len(closes)-1-horizonDays]
	if !isFinite(last) || !isFinite(past) || past <= 0 {
		return model.TrendNeutral
	}

	r := (last - past) / past
	switch {
	case r > bp.StrongUp:
		return model.TrendStrongUp
	case r > bp.Up:
		return model.TrendUp
	case r < bp.StrongDown:
		return model.TrendStrongDown
	case r < bp.Down:
		return model.TrendDown
	default:
		return model.TrendNeutral
	}
}
