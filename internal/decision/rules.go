package decision

import "CommoditySentinel/internal/model"

// Rule is one row of an asset's threshold table. A nil bound is open-ended.
// Rules are evaluated top-to-bottom; the first match wins.
type Rule struct {
	MinScore  *float64 `yaml:"min_score"`
	MaxScore  *float64 `yaml:"max_score"`
	Action    string   `yaml:"action"`
	Sizing    string   `yaml:"sizing"`
	Rationale string   `yaml:"rationale"`
}

// Matches reports whether score falls within the rule's bounds (inclusive).
func (r Rule) Matches(score float64) bool {
	if r.MinScore != nil && score < *r.MinScore {
		return false
	}
	if r.MaxScore != nil && score > *r.MaxScore {
		return false
	}
	return true
}

func f(v float64) *float64 { return &v }

// DefaultTables returns the backtest-tuned per-asset rule tables. Thresholds
// are retuned per backtest cycle, so production deployments override these
// via configuration.
func DefaultTables() map[string][]Rule {
	return map[string][]Rule{
		"GOLD": {
			{MinScore: f(0.55), Action: string(model.ActionLong), Sizing: string(model.SizeFull), Rationale: "Gold: score >= 0.55 -> full long"},
			{MinScore: f(0.53), Action: string(model.ActionLong), Sizing: string(model.SizeHalf), Rationale: "Gold: score 0.53-0.55 -> half long"},
		},
		"SILVER": {
			{MinScore: f(0.96), Action: string(model.ActionLong), Sizing: string(model.SizeFull), Rationale: "Silver: score >= 0.96"},
		},
		"COPPER": {
			{MinScore: f(0.56), Action: string(model.ActionLong), Sizing: string(model.SizeFull), Rationale: "Copper: score >= 0.56"},
		},
		"NATURAL GAS": {
			{MinScore: f(0.56), Action: string(model.ActionLong), Sizing: string(model.SizeFull), Rationale: "Gas: prob_up >= 0.56"},
			{MaxScore: f(0.44), Action: string(model.ActionShort), Sizing: string(model.SizeFull), Rationale: "Gas: prob_up <= 0.44"},
		},
	}
}
