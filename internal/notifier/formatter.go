package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"CommoditySentinel/internal/model"
	"CommoditySentinel/internal/tracker"
)

var actionEmoji = map[model.Action]string{
	model.ActionLong:        "🟢",
	model.ActionShort:       "🔴",
	model.ActionNoTrade:     "⚪",
	model.ActionNoTradeData: "🚫",
}

// FormatDailyReport formats the day's directives into a Telegram message.
func FormatDailyReport(directives []model.Directive, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>CommoditySentinel Daily</b> | %s\n\n", now.UTC().Format("2006-01-02")))

	for _, d := range directives {
		emoji := actionEmoji[d.Action]
		if emoji == "" {
			emoji = "⚪"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> (%s)\n", emoji, d.Asset, d.Ticker))
		if d.Close > 0 {
			b.WriteString(fmt.Sprintf("  close %.2f | score %.3f\n", d.Close, d.Score))
		} else {
			b.WriteString(fmt.Sprintf("  score %.3f\n", d.Score))
		}
		b.WriteString(fmt.Sprintf("  trend 1-5d %s | 2-3w %s\n", d.TrendShort.Symbol(), d.TrendMid.Symbol()))
		if d.Action == model.ActionNoTradeData {
			b.WriteString(fmt.Sprintf("  ⚠️ data blocked: %s\n", d.Verdict.Reason()))
		} else {
			b.WriteString(fmt.Sprintf("  → %s %s\n", d.Action, d.Sizing))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatStats formats the evaluated-trade track record for display.
func FormatStats(stats tracker.Stats) string {
	var b strings.Builder
	b.WriteString("📈 <b>Track Record</b>\n\n")

	if stats.Overall.Trades == 0 {
		b.WriteString("No evaluated trades yet.\n")
		return b.String()
	}

	assets := make([]string, 0, len(stats.ByAsset))
	for asset := range stats.ByAsset {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		s := stats.ByAsset[asset]
		b.WriteString(fmt.Sprintf("%s: %d trades, %s\n", asset, s.Trades, formatAccuracy(s)))
	}
	b.WriteString(fmt.Sprintf("\n<b>Total</b>: %d trades, %s\n", stats.Overall.Trades, formatAccuracy(stats.Overall)))
	return b.String()
}

func formatAccuracy(s tracker.AssetStats) string {
	if s.Accuracy == nil {
		return "accuracy n/a"
	}
	return fmt.Sprintf("%d/%d correct (%.1f%%)", s.Correct, s.Trades, *s.Accuracy*100)
}

// FormatRules formats the per-asset threshold tables for the /rules command.
func FormatRules(describe map[string][]string) string {
	var b strings.Builder
	b.WriteString("📋 <b>Active Rules</b>\n\n")
	assets := make([]string, 0, len(describe))
	for asset := range describe {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		b.WriteString(fmt.Sprintf("<b>%s</b>\n", asset))
		for _, line := range describe[asset] {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}
