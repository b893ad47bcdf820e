// Package decision maps a momentum score into an actionable directive via
// per-asset threshold tables. The engine is stateless and memoryless: each
// call depends only on the current score, with no averaging or hysteresis.
package decision

import (
	"fmt"

	"CommoditySentinel/internal/model"
)

// Engine evaluates per-asset rule tables.
type Engine struct {
	tables map[string][]Rule
}

// NewEngine creates an Engine. A nil table map falls back to the defaults.
func NewEngine(tables map[string][]Rule) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Engine{tables: tables}
}

// Decide evaluates the asset's rule table top-to-bottom and returns the
// directive for the first matching rule, or NO_TRADE when nothing matches
// (including unknown assets).
func (e *Engine) Decide(asset string, score float64) model.Directive {
	d := model.Directive{
		Asset:  asset,
		Action: model.ActionNoTrade,
		Sizing: model.SizeNone,
		Score:  score,
	}

	rules, ok := e.tables[asset]
	if !ok {
		d.Rationale = fmt.Sprintf("%s: unknown asset", asset)
		return d
	}

	for _, r := range rules {
		if r.Matches(score) {
			d.Action = model.Action(r.Action)
			d.Sizing = model.Sizing(r.Sizing)
			d.Rationale = r.Rationale
			return d
		}
	}

	d.Rationale = fmt.Sprintf("%s: score %.3f in neutral zone", asset, score)
	return d
}

// Gate applies the data-quality verdict. An invalid verdict forces the
// directive into the blocked state regardless of what the rules said.
func Gate(d model.Directive, v model.Verdict) model.Directive {
	d.Verdict = v
	if !v.OK {
		d.Action = model.ActionNoTradeData
		d.Sizing = model.SizeNone
		d.Rationale = "data guard: " + v.Reason()
	}
	return d
}

// Rules returns the table for one asset, for report rendering.
func (e *Engine) Rules(asset string) []Rule {
	return e.tables[asset]
}

// Assets returns the assets the engine has tables for.
func (e *Engine) Assets() []string {
	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	return names
}
