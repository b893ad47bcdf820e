// Package tracker keeps the append-only log of issued trade signals and
// retroactively scores them once their holding horizon has elapsed, closing
// the signal -> log -> evaluate -> accuracy feedback loop.
package tracker

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"CommoditySentinel/internal/fetcher"
	"CommoditySentinel/internal/model"
)

// evaluationLookbackDays covers the forward window needed to score a trade:
// roughly two years of daily bars, matching what the signal pipeline fetches.
const evaluationLookbackDays = 504

// Tracker records directives and evaluates their realized outcomes.
type Tracker struct {
	store   Store
	fetcher fetcher.Fetcher
}

// New creates a Tracker on top of a store and a price fetcher.
func New(store Store, f fetcher.Fetcher) *Tracker {
	return &Tracker{store: store, fetcher: f}
}

// Record appends one log entry per guard-passed LONG/SHORT directive. The
// signal date comes from the verdict's last-bar timestamp, normalized to a
// UTC calendar date. Duplicate keys are dropped, first write wins. The
// whole dedup-and-append cycle runs inside one store Update, so concurrent
// recorders cannot overwrite each other's additions.
func (t *Tracker) Record(directives []model.Directive, horizonDays int, now time.Time) (int, error) {
	added := 0
	err := t.store.Update(func(entries []Entry) ([]Entry, error) {
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			seen[e.Key()] = true
		}

		for _, d := range directives {
			if !d.Verdict.OK || !d.Action.Tradable() {
				continue
			}
			if d.Verdict.LastBar.IsZero() {
				continue
			}
			e := Entry{
				LoggedAt:    now.UTC(),
				Asset:       d.Asset,
				Ticker:      d.Ticker,
				SignalDate:  d.Verdict.LastBar.UTC().Format(DateLayout),
				Direction:   d.Action,
				EntryClose:  d.Close,
				HorizonDays: horizonDays,
			}
			if seen[e.Key()] {
				continue
			}
			seen[e.Key()] = true
			entries = append(entries, e)
			added++
		}

		if added == 0 {
			return nil, ErrNoChange
		}
		return entries, nil
	})
	if err != nil {
		return 0, fmt.Errorf("record trade log: %w", err)
	}
	return added, nil
}

// Evaluate scores every unevaluated entry with a matching horizon whose exit
// bar exists by now, then returns aggregate accuracy over the whole log.
// Entries whose exit bar is still in the future stay open for a later run.
// Re-running with unchanged price data reproduces the same log.
//
// Prices are fetched from a preliminary snapshot of the log so the network
// calls happen outside the store lock; the scoring itself re-reads the log
// inside one Update cycle, so a concurrent Record cannot be overwritten.
func (t *Tracker) Evaluate(ctx context.Context, horizonDays int) (Stats, error) {
	snapshot, err := t.store.Load()
	if err != nil {
		return Stats{}, fmt.Errorf("load trade log: %w", err)
	}

	tickers := make(map[string]model.PriceSeries)
	for _, e := range snapshot {
		if e.Evaluated || e.HorizonDays != horizonDays {
			continue
		}
		tickers[e.Ticker] = model.PriceSeries{}
	}
	if len(tickers) == 0 {
		return ComputeStats(snapshot), nil
	}

	// One fetch per distinct ticker; a failed fetch leaves that ticker's
	// entries open without aborting the rest.
	for ticker := range tickers {
		series, err := t.fetcher.FetchDaily(ctx, "", ticker, evaluationLookbackDays)
		if err != nil {
			log.Printf("[WARN] evaluate: fetch %s failed, entries stay open: %v", ticker, err)
			continue
		}
		tickers[ticker] = series
	}

	var final []Entry
	err = t.store.Update(func(entries []Entry) ([]Entry, error) {
		changed := false
		for i, e := range entries {
			if e.Evaluated || e.HorizonDays != horizonDays {
				continue
			}
			series := tickers[e.Ticker]
			if series.Len() == 0 {
				continue
			}
			if outcome, ok := scoreEntry(e, series); ok {
				entries[i] = outcome
				changed = true
			}
		}
		final = entries
		if !changed {
			return nil, ErrNoChange
		}
		return entries, nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("evaluate trade log: %w", err)
	}
	return ComputeStats(final), nil
}

// Stats recomputes aggregate accuracy without touching any entry.
func (t *Tracker) Stats() (Stats, error) {
	entries, err := t.store.Load()
	if err != nil {
		return Stats{}, fmt.Errorf("load trade log: %w", err)
	}
	return ComputeStats(entries), nil
}

// scoreEntry fills in the exit fields for one entry. Returns ok=false when
// the entry cannot be scored yet (signal date beyond the series, or exit bar
// not yet available).
func scoreEntry(e Entry, series model.PriceSeries) (Entry, bool) {
	pos := findSignalBar(series, e.SignalDate)
	if pos < 0 {
		return e, false
	}

	exitPos := pos + e.HorizonDays
	if exitPos >= series.Len() {
		return e, false // not enough future data yet
	}

	entryClose := series.Bars[pos].Close
	exitClose := series.Bars[exitPos].Close
	if entryClose <= 0 || !isFinite(entryClose) || !isFinite(exitClose) {
		return e, false
	}

	ret := exitClose/entryClose - 1.0
	e.Evaluated = true
	e.ExitDate = series.Bars[exitPos].Time.UTC().Format(DateLayout)
	e.ExitClose = round6(exitClose)
	e.Return = round6(ret)
	e.Correct = (e.Direction == model.ActionLong && ret > 0) ||
		(e.Direction == model.ActionShort && ret < 0)
	return e, true
}

// findSignalBar locates the bar for signalDate, advancing to the next
// trading day when the exact date is absent (weekend, holiday).
func findSignalBar(series model.PriceSeries, signalDate string) int {
	for i, b := range series.Bars {
		if b.Time.UTC().Format(DateLayout) >= signalDate {
			return i
		}
	}
	return -1
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
