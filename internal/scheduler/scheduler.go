// Package scheduler drives the daily signal cycle on a cron schedule and
// answers interactive bot commands.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"CommoditySentinel/internal/decision"
	"CommoditySentinel/internal/forecast"
	"CommoditySentinel/internal/notifier"
	"CommoditySentinel/internal/report"
	"CommoditySentinel/internal/tracker"
)

// Scheduler manages the cron tasks and the command loop.
type Scheduler struct {
	Cron        *cron.Cron
	Forecast    *forecast.Engine
	Tracker     *tracker.Tracker
	Report      *report.Writer
	Decider     *decision.Engine
	Notifier    *notifier.TelegramNotifier
	Ctx         context.Context
	HorizonDays int
	ReportPath  string
}

// NewScheduler creates a Scheduler. A nil notifier is allowed: results are
// still written to the report file and the log.
func NewScheduler(ctx context.Context, fe *forecast.Engine, tr *tracker.Tracker,
	rw *report.Writer, de *decision.Engine, tn *notifier.TelegramNotifier, horizonDays int, reportPath string) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Forecast:    fe,
		Tracker:     tr,
		Report:      rw,
		Decider:     de,
		Notifier:    tn,
		Ctx:         ctx,
		HorizonDays: horizonDays,
		ReportPath:  reportPath,
	}
}

// RegisterDaily registers the daily signal cycle.
func (s *Scheduler) RegisterDaily(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the daily cycle immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily cycle")
	now := time.Now().UTC()

	directives := s.Forecast.Run(s.Ctx, now)

	added, err := s.Tracker.Record(directives, s.HorizonDays, now)
	if err != nil {
		log.Printf("[ERROR] record directives: %v", err)
	} else if added > 0 {
		log.Printf("[INFO] logged %d new trade(s)", added)
	}

	stats, err := s.Tracker.Evaluate(s.Ctx, s.HorizonDays)
	if err != nil {
		log.Printf("[ERROR] evaluate trades: %v", err)
	}

	if s.ReportPath != "" {
		if err := s.Report.WriteFile(s.ReportPath, directives, stats, now); err != nil {
			log.Printf("[ERROR] write report: %v", err)
		}
	}

	msg := notifier.FormatDailyReport(directives, now)
	if stats.Overall.Trades > 0 {
		msg += "\n" + notifier.FormatStats(stats)
	}
	s.trySend(msg)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/forecast":
		s.dailyTask()
		return ""
	case "/stats":
		stats, err := s.Tracker.Stats()
		if err != nil {
			return fmt.Sprintf("stats unavailable: %v", err)
		}
		return notifier.FormatStats(stats)
	case "/rules":
		return notifier.FormatRules(s.ruleSummaries())
	default:
		return "Commands:\n• /forecast\n• /stats\n• /rules"
	}
}

func (s *Scheduler) ruleSummaries() map[string][]string {
	out := make(map[string][]string)
	for _, asset := range s.Forecast.Assets() {
		for _, r := range s.Decider.Rules(asset.Name) {
			out[asset.Name] = append(out[asset.Name], describeRule(r))
		}
	}
	return out
}

func describeRule(r decision.Rule) string {
	var b strings.Builder
	switch {
	case r.MinScore != nil && r.MaxScore != nil:
		fmt.Fprintf(&b, "score %.2f-%.2f", *r.MinScore, *r.MaxScore)
	case r.MinScore != nil:
		fmt.Fprintf(&b, "score >= %.2f", *r.MinScore)
	case r.MaxScore != nil:
		fmt.Fprintf(&b, "score <= %.2f", *r.MaxScore)
	default:
		b.WriteString("any score")
	}
	fmt.Fprintf(&b, " -> %s %s", r.Action, r.Sizing)
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
