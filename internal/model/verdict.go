package model

import (
	"strings"
	"time"
)

// Guard failure reason codes, accumulated in check order.
const (
	ReasonEmptySeries  = "EMPTY_SERIES"
	ReasonMissingField = "MISSING_FIELDS"
	ReasonHistoryShort = "HISTORY_SHORT"
	ReasonBadIndex     = "BAD_INDEX"
	ReasonStaleData    = "STALE_DATA"
	ReasonNaNLastRow   = "NAN_LAST_ROW"
)

// Verdict is the data-quality result for one asset's price series.
// Computed fresh per evaluation cycle and never persisted on its own.
type Verdict struct {
	Asset        string
	OK           bool
	LastBar      time.Time
	AgeSeconds   int64
	Rows         int
	NaNLast      bool
	Stale        bool
	TimeframeSec int64
	Reasons      []string
}

// Reason returns "OK" for a valid series, otherwise the semicolon-joined
// failure codes in check order.
func (v Verdict) Reason() string {
	if v.OK {
		return "OK"
	}
	return strings.Join(v.Reasons, ";")
}
