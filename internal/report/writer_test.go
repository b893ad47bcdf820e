package report

import (
	"strings"
	"testing"
	"time"

	"CommoditySentinel/internal/decision"
	"CommoditySentinel/internal/model"
	"CommoditySentinel/internal/tracker"
)

func sampleDirectives(t *testing.T) []model.Directive {
	t.Helper()
	now := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	return []model.Directive{
		{
			Asset: "GOLD", Ticker: "GC=F",
			Action: model.ActionLong, Sizing: model.SizeFull,
			Score: 0.583, Close: 2180.40,
			TrendShort: model.TrendUp, TrendMid: model.TrendStrongUp,
			Verdict: model.Verdict{Asset: "GOLD", OK: true, LastBar: now.Add(-12 * time.Hour), AgeSeconds: 43200, Rows: 120},
		},
		{
			Asset: "SILVER", Ticker: "SI=F",
			Action: model.ActionNoTradeData, Sizing: model.SizeNone,
			Score: 0.5,
			Verdict: model.Verdict{
				Asset: "SILVER", OK: false, Stale: true,
				Reasons: []string{model.ReasonStaleData},
			},
		},
	}
}

func TestWrite_ContainsDirectivesAndBlocked(t *testing.T) {
	w := NewWriter(decision.NewEngine(nil))
	var sb strings.Builder
	w.Write(&sb, sampleDirectives(t), time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC))
	got := sb.String()

	for _, want := range []string{
		"2024-03-16",
		"GOLD", "2180.40", "0.583", "LONG", "FULL",
		">>> BLOCKED SILVER: STALE_DATA",
		"ACTIVE RULES",
		">=0.55 -> LONG FULL",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q\n%s", want, got)
		}
	}
}

func TestWriteStats(t *testing.T) {
	acc := 0.75
	stats := tracker.Stats{
		Overall: tracker.AssetStats{Trades: 4, Correct: 3, Wrong: 1, Accuracy: &acc},
		ByAsset: map[string]tracker.AssetStats{
			"GOLD": {Trades: 4, Correct: 3, Wrong: 1, Accuracy: &acc},
		},
	}
	var sb strings.Builder
	WriteStats(&sb, stats)
	got := sb.String()

	if !strings.Contains(got, "75.0%") {
		t.Errorf("missing accuracy:\n%s", got)
	}
	if !strings.Contains(got, "TOTAL") {
		t.Errorf("missing total row:\n%s", got)
	}
}

func TestWriteStats_Empty(t *testing.T) {
	var sb strings.Builder
	WriteStats(&sb, tracker.Stats{})
	if !strings.Contains(sb.String(), "no evaluated trades") {
		t.Errorf("empty stats not handled:\n%s", sb.String())
	}
}
