// Package forecast runs the per-asset signal pipeline: fetch, validate,
// score, classify, decide, gate.
package forecast

import (
	"context"
	"log"
	"time"

	"CommoditySentinel/internal/decision"
	"CommoditySentinel/internal/fetcher"
	"CommoditySentinel/internal/guard"
	"CommoditySentinel/internal/model"
	"CommoditySentinel/internal/scorer"
)

// Asset identifies one tracked instrument.
type Asset struct {
	Name   string
	Ticker string
	Unit   string
}

// Horizons for the descriptive trend annotations, in trading days.
const (
	ShortTrendHorizon = 5
	MidTrendHorizon   = 21
)

// Engine wires the pipeline stages together for a fixed asset universe.
type Engine struct {
	fetcher      fetcher.Fetcher
	scorer       scorer.Scorer
	decider      *decision.Engine
	guardOpts    guard.Options
	breakpoints  scorer.TrendBreakpoints
	assets       []Asset
	lookbackDays int
}

// NewEngine builds the pipeline.
func NewEngine(f fetcher.Fetcher, s scorer.Scorer, d *decision.Engine,
	guardOpts guard.Options, bp scorer.TrendBreakpoints, assets []Asset, lookbackDays int) *Engine {
	if lookbackDays <= 0 {
		lookbackDays = 504 // ~2 years of trading days
	}
	return &Engine{
		fetcher:      f,
		scorer:       s,
		decider:      d,
		guardOpts:    guardOpts,
		breakpoints:  bp,
		assets:       assets,
		lookbackDays: lookbackDays,
	}
}

// Run produces one directive per tracked asset as of now. One asset's fetch
// failure never aborts the others: it surfaces as a guard-blocked directive.
func (e *Engine) Run(ctx context.Context, now time.Time) []model.Directive {
	directives := make([]model.Directive, 0, len(e.assets))
	for _, asset := range e.assets {
		directives = append(directives, e.runOne(ctx, asset, now))
	}
	return directives
}

func (e *Engine) runOne(ctx context.Context, asset Asset, now time.Time) model.Directive {
	series, err := e.fetcher.FetchDaily(ctx, asset.Name, asset.Ticker, e.lookbackDays)
	if err != nil {
		log.Printf("[WARN] fetch %s (%s): %v", asset.Name, asset.Ticker, err)
		series = model.PriceSeries{Asset: asset.Name, Ticker: asset.Ticker}
	}

	verdict := guard.Validate(asset.Name, series, now, e.guardOpts)

	// Score and trends are computed even when the guard fails, so the
	// report can show what the model saw; the gate decides trust.
	score := scorer.NeutralScore
	if series.Len() > 0 {
		score = e.scorer.Score(series)
	}

	d := e.decider.Decide(asset.Name, score)
	d.Ticker = asset.Ticker
	d.Close = series.LastClose()
	d.TrendShort = scorer.ClassifyTrend(series, ShortTrendHorizon, e.breakpoints)
	d.TrendMid = scorer.ClassifyTrend(series, MidTrendHorizon, e.breakpoints)
	return decision.Gate(d, verdict)
}

// Assets returns the tracked asset universe.
func (e *Engine) Assets() []Asset { return e.assets }
