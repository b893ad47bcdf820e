package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"CommoditySentinel/internal/config"
	"CommoditySentinel/internal/decision"
	"CommoditySentinel/internal/fetcher"
	"CommoditySentinel/internal/forecast"
	"CommoditySentinel/internal/guard"
	"CommoditySentinel/internal/notifier"
	"CommoditySentinel/internal/report"
	"CommoditySentinel/internal/scheduler"
	"CommoditySentinel/internal/scorer"
	"CommoditySentinel/internal/tracker"
)

var cfgFile string

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Daily trading-signal generator for commodity futures",
		Long: `CommoditySentinel fetches daily futures prices, scores momentum per
asset, applies per-asset threshold rules, and logs tradable signals for
later outcome evaluation.

Examples:
  sentinel run
  sentinel stats
  sentinel daemon --config configs/config.yaml`,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "config file path")

	rootCmd.AddCommand(runCmd(), evaluateCmd(), statsCmd(), daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired components for one invocation.
type app struct {
	cfg      *config.Config
	forecast *forecast.Engine
	tracker  *tracker.Tracker
	decider  *decision.Engine
	report   *report.Writer
	store    tracker.Store
}

func buildApp() (*app, error) {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgFile = v
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	var f fetcher.Fetcher
	switch cfg.Fetcher {
	case "mock":
		f = &fetcher.MockFetcher{BasePrice: 100}
	default:
		f = fetcher.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", f.Name())

	sc, err := buildScorer(cfg)
	if err != nil {
		return nil, err
	}

	decider := decision.NewEngine(cfg.RuleTables())

	guardOpts := guard.DefaultOptions()
	if cfg.Guard.MinRows > 0 {
		guardOpts.MinRows = cfg.Guard.MinRows
	}
	if cfg.Guard.TimeframeSeconds > 0 {
		guardOpts.TimeframeSeconds = cfg.Guard.TimeframeSeconds
	}
	if cfg.Guard.StaleMultiplier > 0 {
		guardOpts.StaleMultiplier = cfg.Guard.StaleMultiplier
	}

	assets := make([]forecast.Asset, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		assets = append(assets, forecast.Asset{Name: a.Name, Ticker: a.Ticker, Unit: a.Unit})
	}

	fe := forecast.NewEngine(f, sc, decider, guardOpts,
		cfg.TrendBreakpoints(), assets, cfg.LookbackDays)

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		forecast: fe,
		tracker:  tracker.New(store, f),
		decider:  decider,
		report:   report.NewWriter(decider),
		store:    store,
	}, nil
}

func buildScorer(cfg *config.Config) (scorer.Scorer, error) {
	if cfg.Scorer.Name == "momentum" && cfg.Scorer.LongWindow > 0 {
		mc := scorer.DefaultMomentumConfig()
		mc.LongWindow = cfg.Scorer.LongWindow
		if cfg.Scorer.ShortWindow > 0 {
			mc.ShortWindow = cfg.Scorer.ShortWindow
		}
		if cfg.Scorer.LongWeight > 0 {
			mc.LongWeight = cfg.Scorer.LongWeight
		}
		if cfg.Scorer.ShortWeight > 0 {
			mc.ShortWeight = cfg.Scorer.ShortWeight
		}
		if cfg.Scorer.MinBars > 0 {
			mc.MinBars = cfg.Scorer.MinBars
		}
		return scorer.NewMomentumScorer(mc), nil
	}
	return scorer.Get(cfg.Scorer.Name)
}

func buildStore(cfg *config.Config) (tracker.Store, error) {
	switch cfg.Tracker.Store {
	case "sqlite":
		st, err := tracker.NewSQLiteStore(cfg.Tracker.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return st, nil
	default:
		st, err := tracker.NewCSVStore(cfg.Tracker.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("init csv store: %w", err)
		}
		return st, nil
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close store: %v", err)
	}
}

func runCmd() *cobra.Command {
	var noLog bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one signal cycle and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			now := time.Now().UTC()
			directives := a.forecast.Run(ctx, now)

			if !noLog {
				added, err := a.tracker.Record(directives, a.cfg.Tracker.HorizonDays, now)
				if err != nil {
					return fmt.Errorf("record directives: %w", err)
				}
				if added > 0 {
					log.Printf("[INFO] logged %d new trade(s)", added)
				}
			}

			stats, err := a.tracker.Stats()
			if err != nil {
				log.Printf("[WARN] stats: %v", err)
			}

			a.report.Write(os.Stdout, directives, now)
			fmt.Println()
			report.WriteStats(os.Stdout, stats)

			if a.cfg.Report.OutputPath != "" {
				if err := a.report.WriteFile(a.cfg.Report.OutputPath, directives, stats, now); err != nil {
					log.Printf("[WARN] write report file: %v", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noLog, "no-log", false, "do not record signals to the trade log")
	return cmd
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate open trades whose horizon has elapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.tracker.Evaluate(cmd.Context(), a.cfg.Tracker.HorizonDays)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}
			report.WriteStats(os.Stdout, stats)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the evaluated-trade track record",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.tracker.Stats()
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			report.WriteStats(os.Stdout, stats)
			return nil
		},
	}
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run on a cron schedule with Telegram notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var tn *notifier.TelegramNotifier
			if a.cfg.Telegram.BotToken != "" && a.cfg.Telegram.ChatID != "" {
				tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
			} else {
				log.Println("[WARN] telegram not configured, notifications disabled")
			}

			sched := scheduler.NewScheduler(ctx, a.forecast, a.tracker, a.report,
				a.decider, tn, a.cfg.Tracker.HorizonDays, a.cfg.Report.OutputPath)
			if err := sched.RegisterDaily(a.cfg.Schedule.DailyCron); err != nil {
				return fmt.Errorf("register cron tasks: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Println("[INFO] Telegram polling started")
			}

			if os.Getenv("RUN_ON_START") == "true" {
				log.Println("[INFO] RUN_ON_START enabled, executing daily cycle now")
				go sched.RunDailyNow()
			}

			log.Println("[INFO] CommoditySentinel is running. Press Ctrl+C to stop.")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Println("[INFO] shutdown signal received, stopping...")
			cancel()
			return nil
		},
	}
}
