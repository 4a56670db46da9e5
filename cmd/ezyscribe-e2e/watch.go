package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/metrics"
	"github.com/ezyscribe/ezyscribe-e2e/internal/runner"
	"github.com/ezyscribe/ezyscribe-e2e/internal/status"
	"github.com/ezyscribe/ezyscribe-e2e/internal/suite"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:       "watch [login|tasks|all]",
	Short:     "Run the browser scenarios on a schedule",
	ValidArgs: suite.Suites(),
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	Long: `Watch repeats the selected suite on a cron schedule (seconds field first)
and serves /healthz, /metrics and /api/v1/runs/last while it runs.

Changes to the config file are picked up before the next run.`,
	RunE: runWatch,
}

var (
	scheduleFlag   string
	listenFlag     string
	runTimeoutFlag time.Duration
	immediateFlag  bool
)

func init() {
	addRunFlags(watchCmd)
	f := watchCmd.Flags()
	f.StringVar(&scheduleFlag, "schedule", "0 */15 * * * *", "Cron schedule with seconds, or @every <duration>")
	f.StringVar(&listenFlag, "listen", ":9464", "Address of the status server (empty disables it)")
	f.DurationVar(&runTimeoutFlag, "run-timeout", 30*time.Minute, "Upper bound for one scheduled run")
	f.BoolVar(&immediateFlag, "now", true, "Run once immediately before waiting for the schedule")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, loader, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = logger.L().Sync() }()

	var current atomic.Pointer[config.Config]
	current.Store(cfg)
	loader.Watch(func(c *config.Config) {
		logger.Info("Configuration reloaded")
		current.Store(c)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var srv *status.Server
	if listenFlag != "" {
		srv = status.NewServer(listenFlag, m)
	}

	which := selectedSuite(args)
	job := runner.FuncJob{
		JobName:     "suite-" + which,
		Spec:        scheduleFlag,
		MaxDuration: runTimeoutFlag,
		Fn: func(ctx context.Context) error {
			cfg := current.Load()
			run, err := executeRun(ctx, cfg, which, m)
			if run != nil && srv != nil {
				srv.SetLastRun(run)
			}
			return finishRun(cmd, cfg, run, m, err)
		},
	}
	registry := runner.NewRegistry()
	registry.Register(job)
	sched := runner.NewRunner(registry)

	g, gctx := errgroup.WithContext(ctx)
	if srv != nil {
		g.Go(func() error { return srv.Serve(gctx) })
	}
	g.Go(func() error {
		if immediateFlag {
			if err := sched.RunNow(gctx, job.Name()); err != nil && !errors.Is(err, errTestsFailed) {
				logger.Warn("initial run: %v", err)
			}
		}
		return sched.Start(gctx)
	})
	return g.Wait()
}
