package model

// Action is the trade directive for one asset on one evaluation cycle.
type Action string

const (
	ActionLong    Action = "LONG"
	ActionShort   Action = "SHORT"
	ActionNoTrade Action = "NO_TRADE"
	// ActionNoTradeData marks a directive vetoed by the data guard.
	// Distinct from ActionNoTrade so consumers can tell "the model said no"
	// from "we don't trust the data".
	ActionNoTradeData Action = "NO_TRADE_DATA"
)

// Tradable reports whether the action opens a position.
func (a Action) Tradable() bool { return a == ActionLong || a == ActionShort }

// Sizing indicates the position size attached to an action.
type Sizing string

const (
	SizeFull Sizing = "FULL"
	SizeHalf Sizing = "HALF"
	SizeNone Sizing = "NONE"
)

// TrendLabel is a descriptive trend bucket over a horizon window.
// It annotates the report and never gates the trade decision.
type TrendLabel string

const (
	TrendStrongUp   TrendLabel = "STRONG_UP"
	TrendUp         TrendLabel = "UP"
	TrendNeutral    TrendLabel = "NEUTRAL"
	TrendDown       TrendLabel = "DOWN"
	TrendStrongDown TrendLabel = "STRONG_DOWN"
)

// Symbol returns the compact display form used in reports.
func (t TrendLabel) Symbol() string {
	switch t {
	case TrendStrongUp:
		return "++"
	case TrendUp:
		return "+"
	case TrendDown:
		return "-"
	case TrendStrongDown:
		return "--"
	default:
		return "0"
	}
}

// Directive is the final output of one evaluation cycle for one asset.
// Created fresh each cycle, never mutated.
type Directive struct {
	Asset      string
	Ticker     string
	Action     Action
	Sizing     Sizing
	Score      float64
	Close      float64
	Rationale  string
	TrendShort TrendLabel // 5-day horizon
	TrendMid   TrendLabel // 21-day horizon
	Verdict    Verdict
}
