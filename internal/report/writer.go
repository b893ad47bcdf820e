// Package report renders the daily directive table and tracker statistics
// as plain text, for the console, a file, and the notifier.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"CommoditySentinel/internal/decision"
	"CommoditySentinel/internal/model"
	"CommoditySentinel/internal/tracker"
)

// Writer renders directives against the rule tables that produced them.
type Writer struct {
	decider *decision.Engine
}

// NewWriter creates a report writer.
func NewWriter(decider *decision.Engine) *Writer {
	return &Writer{decider: decider}
}

// Write renders the full daily report: header, directive table, blocked-asset
// details, and the active trading rules.
func (w *Writer) Write(out io.Writer, directives []model.Directive, now time.Time) {
	fmt.Fprintf(out, "COMMODITY SENTINEL DAILY REPORT  %s\n\n", now.UTC().Format("2006-01-02 15:04 UTC"))

	table := tablewriter.NewTable(out,
		tablewriter.WithHeader([]string{
			"ASSET", "CLOSE", "SCORE", "SIGNAL", "SIZE", "1-5D", "2-3W",
			"DATA", "LAST BAR", "AGE(s)", "NAN", "STALE",
		}),
	)
	for _, d := range directives {
		table.Append(directiveRow(d))
	}
	table.Render()

	blocked := blockedDirectives(directives)
	if len(blocked) > 0 {
		fmt.Fprintln(out)
		for _, d := range blocked {
			fmt.Fprintf(out, ">>> BLOCKED %s: %s\n", d.Asset, d.Verdict.Reason())
		}
	}

	fmt.Fprintln(out)
	w.writeRules(out, directives)
}

func directiveRow(d model.Directive) []string {
	dataCol := "OK"
	if !d.Verdict.OK {
		dataCol = "BAD"
	}
	lastBar := "-"
	if !d.Verdict.LastBar.IsZero() {
		lastBar = d.Verdict.LastBar.UTC().Format("2006-01-02")
	}
	return []string{
		d.Asset,
		formatClose(d.Close),
		fmt.Sprintf("%.3f", d.Score),
		string(d.Action),
		string(d.Sizing),
		d.TrendShort.Symbol(),
		d.TrendMid.Symbol(),
		dataCol,
		lastBar,
		fmt.Sprintf("%d", d.Verdict.AgeSeconds),
		flag(d.Verdict.NaNLast),
		flag(d.Verdict.Stale),
	}
}

func flag(b bool) string {
	if b {
		return "Y"
	}
	return "-"
}

// formatClose picks precision by magnitude: metals quote in the thousands,
// gas in single digits.
func formatClose(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return "-"
	}
	if v >= 100 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

func blockedDirectives(directives []model.Directive) []model.Directive {
	var out []model.Directive
	for _, d := range directives {
		if d.Action == model.ActionNoTradeData {
			out = append(out, d)
		}
	}
	return out
}

func (w *Writer) writeRules(out io.Writer, directives []model.Directive) {
	fmt.Fprintln(out, "ACTIVE RULES")
	for _, d := range directives {
		rules := w.decider.Rules(d.Asset)
		if len(rules) == 0 {
			continue
		}
		parts := make([]string, 0, len(rules))
		for _, r := range rules {
			parts = append(parts, describeRule(r))
		}
		fmt.Fprintf(out, "  %-12s %s\n", d.Asset, strings.Join(parts, "; "))
	}
}

func describeRule(r decision.Rule) string {
	switch {
	case r.MinScore != nil && r.MaxScore != nil:
		return fmt.Sprintf("%.2f-%.2f -> %s %s", *r.MinScore, *r.MaxScore, r.Action, r.Sizing)
	case r.MinScore != nil:
		return fmt.Sprintf(">=%.2f -> %s %s", *r.MinScore, r.Action, r.Sizing)
	case r.MaxScore != nil:
		return fmt.Sprintf("<=%.2f -> %s %s", *r.MaxScore, r.Action, r.Sizing)
	default:
		return fmt.Sprintf("always -> %s %s", r.Action, r.Sizing)
	}
}

// WriteStats renders the evaluated-trade statistics table.
func WriteStats(out io.Writer, stats tracker.Stats) {
	fmt.Fprintln(out, "TRACK RECORD")
	if stats.Overall.Trades == 0 {
		fmt.Fprintln(out, "  no evaluated trades yet")
		return
	}

	table := tablewriter.NewTable(out,
		tablewriter.WithHeader([]string{"ASSET", "TRADES", "CORRECT", "WRONG", "ACCURACY"}),
	)
	assets := make([]string, 0, len(stats.ByAsset))
	for asset := range stats.ByAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		table.Append(statsRow(asset, stats.ByAsset[asset]))
	}
	table.Append(statsRow("TOTAL", stats.Overall))
	table.Render()
}

func statsRow(label string, s tracker.AssetStats) []string {
	acc := "n/a"
	if s.Accuracy != nil {
		acc = fmt.Sprintf("%.1f%%", *s.Accuracy*100)
	}
	return []string{
		label,
		fmt.Sprintf("%d", s.Trades),
		fmt.Sprintf("%d", s.Correct),
		fmt.Sprintf("%d", s.Wrong),
		acc,
	}
}

// String renders the full report to a string.
func (w *Writer) String(directives []model.Directive, stats tracker.Stats, now time.Time) string {
	var sb strings.Builder
	w.Write(&sb, directives, now)
	sb.WriteString("\n")
	WriteStats(&sb, stats)
	return sb.String()
}

// WriteFile renders the report and writes it to path, creating parent
// directories as needed.
func (w *Writer) WriteFile(path string, directives []model.Directive, stats tracker.Stats, now time.Time) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(w.String(directives, stats, now)), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
