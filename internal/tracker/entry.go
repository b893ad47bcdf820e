package tracker

import (
	"fmt"
	"math"
	"time"

	"CommoditySentinel/internal/model"
)

// DateLayout is the calendar-date form used for signal and exit dates.
const DateLayout = "2006-01-02"

// TimeLayout is the UTC timestamp form used for the logged-at column.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is one issued trade signal in the log. Entries are appended once,
// mutated exactly once (when the tracker fills in the exit fields), and
// never deleted.
type Entry struct {
	LoggedAt    time.Time
	Asset       string
	Ticker      string
	SignalDate  string // calendar date, DateLayout
	Direction   model.Action
	EntryClose  float64
	HorizonDays int
	Evaluated   bool
	// Exit fields are meaningful only when Evaluated is true.
	ExitDate  string
	ExitClose float64
	Return    float64
	Correct   bool
}

// Key is the uniqueness key: at most one entry per (asset, signal date,
// direction). First write wins.
func (e Entry) Key() string {
	return fmt.Sprintf("%s|%s|%s", e.Asset, e.SignalDate, e.Direction)
}

// AssetStats aggregates outcomes for one asset (or overall).
type AssetStats struct {
	Trades  int
	Correct int
	Wrong   int
	// Accuracy is nil when no trades have been evaluated; zero evaluated
	// trades do not mean 0% accuracy.
	Accuracy *float64
}

// Stats is the aggregate accuracy report over evaluated entries.
type Stats struct {
	Overall AssetStats
	ByAsset map[string]AssetStats
}

// ComputeStats aggregates accuracy over the evaluated entries of the log.
func ComputeStats(entries []Entry) Stats {
	stats := Stats{ByAsset: make(map[string]AssetStats)}

	for _, e := range entries {
		if !e.Evaluated {
			continue
		}
		stats.Overall = tally(stats.Overall, e.Correct)
		stats.ByAsset[e.Asset] = tally(stats.ByAsset[e.Asset], e.Correct)
	}

	stats.Overall = finalize(stats.Overall)
	for asset, s := range stats.ByAsset {
		stats.ByAsset[asset] = finalize(s)
	}
	return stats
}

func tally(s AssetStats, correct bool) AssetStats {
	s.Trades++
	if correct {
		s.Correct++
	} else {
		s.Wrong++
	}
	return s
}

func finalize(s AssetStats) AssetStats {
	if s.Trades > 0 {
		acc := round4(float64(s.Correct) / float64(s.Trades))
		s.Accuracy = &acc
	}
	return s
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
