package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CryptoSentinel/internal/api"
	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/logger"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/scheduler"
	"CryptoSentinel/internal/strategy"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "Power-law deviation index for long-running crypto assets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "path to the YAML config")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
		if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(serveCmd(load), reportCmd(load), bandsCmd(load))
	return root
}

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, Telegram bot and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log.Info().Msg("CryptoSentinel starting")
			metrics.Register()

			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			var n notifier.Notifier = notifier.NoopNotifier{}
			var tn *notifier.TelegramNotifier
			if cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				n = tn
			} else {
				log.Warn().Msg("telegram not configured, notifications disabled")
			}

			sched := scheduler.NewScheduler(ctx, app.Collector, n, app.Recorder)
			if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.ReportCron); err != nil {
				return fmt.Errorf("register cron tasks: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}

			srv := api.NewServer(api.NewHandler(app.Collector),
				api.WithHost(cfg.HTTP.Host),
				api.WithPort(cfg.HTTP.Port),
			)
			srv.Start()

			if cfg.Schedule.RunOnStart {
				log.Info().Msg("run_on_start enabled, refreshing now")
				go sched.RunNow()
			}

			log.Info().Msg("CryptoSentinel is running. Press Ctrl+C to stop.")
			<-ctx.Done()

			log.Info().Msg("shutdown signal received, stopping...")
			shutdownCtx, cancel := contextWithTimeout(10 * time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
}

func reportCmd(load func() (*config.Config, error)) *cobra.Command {
	var asJSON, send bool
	cmd := &cobra.Command{
		Use:   "report [asset...]",
		Short: "Fetch, evaluate and print the dashboard once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			var snaps []*model.Snapshot
			if len(args) == 0 {
				snaps = app.Collector.CollectAll(ctx)
			} else {
				for _, a := range args {
					p, ok := app.Collector.Lookup(a)
					if !ok {
						return fmt.Errorf("unknown asset %q", a)
					}
					snaps = append(snaps, app.Collector.Collect(ctx, p))
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reportRows(snaps))
			}
			text := notifier.FormatReport(snaps, time.Now())
			fmt.Fprint(out, stripTags(text))

			if send {
				if !cfg.TelegramEnabled() {
					return fmt.Errorf("--send needs telegram.bot_token and telegram.chat_id")
				}
				tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				return tn.SendWithRetry(ctx, text, 3)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON summaries instead of text")
	cmd.Flags().BoolVar(&send, "send", false, "also send the report to Telegram")
	return cmd
}

func bandsCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "bands [asset]",
		Short: "Print the fixed deviation bands, or the bands of one asset's policy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprint(out, stripTags(notifier.FormatBands("", strategy.FixedThresholds{})))
				return nil
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			p, ok := app.Collector.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown asset %q", args[0])
			}
			snap := app.Collector.Collect(ctx, p)
			if !snap.OK() {
				return fmt.Errorf("%s: %w", p.ID, snap.Err)
			}
			policy, err := strategy.ForProfile(p.Policy, snap.Valuation)
			if err != nil {
				return err
			}
			fmt.Fprint(out, stripTags(notifier.FormatBands(p.Name, policy)))
			return nil
		},
	}
}

type reportRow struct {
	Asset     string     `json:"asset"`
	Source    string     `json:"source,omitempty"`
	Note      string     `json:"note,omitempty"`
	Price     float64    `json:"price,omitempty"`
	Deviation *float64   `json:"deviation"`
	Band      model.Band `json:"band"`
	Label     string     `json:"label"`
	Error     string     `json:"error,omitempty"`
}

func reportRows(snaps []*model.Snapshot) []reportRow {
	rows := make([]reportRow, 0, len(snaps))
	for _, s := range snaps {
		r := reportRow{Asset: s.Profile.ID, Source: s.Source, Band: s.Classification.Band, Label: s.Classification.Label}
		if s.OK() {
			r.Note, r.Price, r.Deviation = s.Valuation.Note, s.Valuation.CurrentPrice, s.Valuation.CurrentDeviation
		} else if s.Err != nil {
			r.Error = s.Err.Error()
		}
		rows = append(rows, r)
	}
	return rows
}

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "", "&amp;", "&", "&lt;", "<", "&gt;", ">")

func stripTags(s string) string { return tagStripper.Replace(s) }
