// Package guard validates a price series before any directive built from it
// may be trusted. A failing verdict forces the directive into the blocked
// NO_TRADE_DATA state downstream.
package guard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"CommoditySentinel/internal/model"
)

// Field names a bar column checked by the guard.
type Field string

const (
	FieldOpen   Field = "Open"
	FieldHigh   Field = "High"
	FieldLow    Field = "Low"
	FieldClose  Field = "Close"
	FieldVolume Field = "Volume"
)

const (
	fallbackTimeframeSec int64 = 86400         // 1 day
	maxTimeframeSec      int64 = 7 * 86400     // clamp ceiling
	unknownAgeSeconds    int64 = 1_000_000_000 // reported when age cannot be computed
)

// Options configures the guard checks. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	// RequiredFields must carry data somewhere in the series.
	RequiredFields []Field
	// CriticalLastFields must be finite on the last bar.
	CriticalLastFields []Field
	// MinRows is the minimum bar count (raise for intraday use).
	MinRows int
	// TimeframeSeconds pins the expected bar interval; 0 infers it from the
	// series (median inter-bar delta over the trailing 50 bars).
	TimeframeSeconds int64
	// StaleMultiplier: stale when age > timeframe * multiplier.
	StaleMultiplier int
}

// DefaultOptions returns the daily-bars profile.
func DefaultOptions() Options {
	return Options{
		RequiredFields:     []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume},
		CriticalLastFields: []Field{FieldClose},
		MinRows:            30,
		TimeframeSeconds:   0,
		StaleMultiplier:    2,
	}
}

// Validate runs all checks against the series and accumulates failure
// reasons. Checks are independent; OK is the AND of all of them.
func Validate(asset string, series model.PriceSeries, now time.Time, opts Options) model.Verdict {
	v := model.Verdict{Asset: asset, OK: true, TimeframeSec: opts.TimeframeSeconds}

	if series.Len() == 0 {
		v.OK = false
		v.NaNLast = true
		v.Stale = true
		v.AgeSeconds = unknownAgeSeconds
		v.Reasons = append(v.Reasons, model.ReasonEmptySeries)
		return v
	}
	v.Rows = series.Len()

	if missing := missingFields(series, opts.RequiredFields); len(missing) > 0 {
		v.OK = false
		v.Reasons = append(v.Reasons, fmt.Sprintf("%s:%s", model.ReasonMissingField, joinFields(missing)))
	}

	if v.Rows < opts.MinRows {
		v.OK = false
		v.Reasons = append(v.Reasons, model.ReasonHistoryShort)
	}

	last := series.Bars[series.Len()-1]
	badIndex := last.Time.IsZero()
	if !badIndex && series.Len() > 1 && last.Time.Before(series.Bars[series.Len()-2].Time) {
		badIndex = true
	}

	if badIndex {
		v.OK = false
		v.Stale = true
		v.AgeSeconds = unknownAgeSeconds
		v.Reasons = append(v.Reasons, model.ReasonBadIndex)
	} else {
		v.LastBar = last.Time.UTC()
		tf := opts.TimeframeSeconds
		if tf <= 0 {
			tf = inferTimeframeSeconds(series)
		}
		v.TimeframeSec = tf

		v.AgeSeconds = int64(now.UTC().Sub(v.LastBar).Seconds())
		if v.AgeSeconds > tf*int64(opts.StaleMultiplier) {
			v.OK = false
			v.Stale = true
			v.Reasons = append(v.Reasons, model.ReasonStaleData)
		}
	}

	for _, f := range opts.CriticalLastFields {
		if !isFinite(fieldValue(last, f)) {
			v.OK = false
			v.NaNLast = true
			v.Reasons = append(v.Reasons, model.ReasonNaNLastRow)
			break
		}
	}

	return v
}

// inferTimeframeSeconds estimates the bar interval as the median of the
// inter-bar deltas over the trailing 50 bars, clamped to [1s, 7d]. Series
// too short to measure fall back to 1 day.
func inferTimeframeSeconds(series model.PriceSeries) int64 {
	n := series.Len()
	if n < 3 {
		return fallbackTimeframeSec
	}
	start := n - 50
	if start < 0 {
		start = 0
	}

	deltas := make([]float64, 0, n-start-1)
	for i := start + 1; i < n; i++ {
		d := series.Bars[i].Time.Sub(series.Bars[i-1].Time).Seconds()
		if !math.IsNaN(d) {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return fallbackTimeframeSec
	}

	sort.Float64s(deltas)
	var median float64
	mid := len(deltas) / 2
	if len(deltas)%2 == 1 {
		median = deltas[mid]
	} else {
		median = (deltas[mid-1] + deltas[mid]) / 2
	}

	tf := int64(math.Round(median))
	if tf <= 0 {
		return fallbackTimeframeSec
	}
	if tf < 1 {
		tf = 1
	}
	if tf > maxTimeframeSec {
		tf = maxTimeframeSec
	}
	return tf
}

// missingFields reports required fields with no data anywhere in the series.
func missingFields(series model.PriceSeries, required []Field) []Field {
	var missing []Field
	for _, f := range required {
		present := false
		for _, b := range series.Bars {
			val := fieldValue(b, f)
			if val != 0 && isFinite(val) {
				present = true
				break
			}
		}
		if !present {
			missing = append(missing, f)
		}
	}
	return missing
}

func fieldValue(b model.PriceBar, f Field) float64 {
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldClose:
		return b.Close
	case FieldVolume:
		return b.Volume
	default:
		return math.NaN()
	}
}

func joinFields(fields []Field) string {
	s := ""
	for i, f := range fields {
		if i > 0 {
			s += ","
		}
		s += string(f)
	}
	return s
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
