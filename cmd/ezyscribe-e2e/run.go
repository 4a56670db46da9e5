package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/fixtures"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/metrics"
	"github.com/ezyscribe/ezyscribe-e2e/internal/report"
	"github.com/ezyscribe/ezyscribe-e2e/internal/suite"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errTestsFailed makes the process exit non-zero without printing usage.
var errTestsFailed = errors.New("one or more scenarios failed")

var runCmd = &cobra.Command{
	Use:       "run [login|tasks|all]",
	Short:     "Run the browser scenarios",
	ValidArgs: suite.Suites(),
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	Long: `Run executes the selected suite (default: all) once per configured
browser project. Login cases run in parallel, each in its own browser context;
the task dashboard scenarios share one logged-in page and run in order.

Every command line flag overrides the matching config file key and
EZYSCRIBE_* environment variable.`,
	RunE: runRun,
}

var (
	fixturesPathFlag string
	metricsFileFlag  string
)

// runFlags maps run flags to configuration keys.
var runFlags = map[string]string{
	"project":   "browser.projects",
	"headless":  "browser.headless",
	"base-url":  "app.base_url",
	"retries":   "run.retries",
	"workers":   "run.workers",
	"html":      "reporting.html",
	"json":      "reporting.json",
	"github":    "reporting.github",
	"log-file":  "logging.file",
	"log-level": "logging.level",
	"skip":      "run.skip",
	"status":    "tasks.status_filter",
	"priority":  "tasks.priority_filter",
}

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("project", nil, "Browser projects to run (chromium, firefox, webkit)")
	f.Bool("headless", true, "Run browsers without a window")
	f.String("base-url", "", "Base URL of the app under test")
	f.Int("retries", 0, "Extra attempts for a failing scenario")
	f.Int("workers", 0, "Parallel login cases per project (0 = one per CPU)")
	f.String("html", "", "Write an HTML report to this path")
	f.String("json", "", "Write a JSON report to this path")
	f.Bool("github", false, "Emit GitHub Actions annotations for failures")
	f.String("log-file", "", "Plain text log file")
	f.String("log-level", "", "Log level (debug, info, warn, error)")
	f.StringSlice("skip", nil, "Scenario IDs to record as skipped without running (e.g. TC014,TP006)")
	f.String("status", "", "Status used by the single status filter scenario")
	f.String("priority", "", "Priority used by the single priority filter scenario")
	f.StringVar(&fixturesPathFlag, "fixtures", "", "Login fixture file (overrides fixtures.users)")
	f.StringVar(&metricsFileFlag, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")
}

// loadRunConfig binds the flags the user set on cmd and resolves the configuration.
func loadRunConfig(cmd *cobra.Command) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	for name, key := range runFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := loader.BindFlag(key, flag); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := loader.Load(configPathFlag)
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

func loadCases(cfg *config.Config) ([]fixtures.LoginCase, error) {
	path := fixturesPathFlag
	if path == "" {
		path = cfg.Fixtures.Users
	}
	if path == "" {
		return fixtures.Default()
	}
	return fixtures.Load(path)
}

func selectedSuite(args []string) string {
	if len(args) == 0 {
		return suite.SuiteAll
	}
	return args[0]
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = logger.L().Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	run, err := executeRun(ctx, cfg, selectedSuite(args), m)
	return finishRun(cmd, cfg, run, m, err)
}

// finishRun reports a run that got far enough to produce results. An aborted run is
// still reported and its abort error is returned alongside any report error.
func finishRun(cmd *cobra.Command, cfg *config.Config, run *report.Run, m *metrics.Metrics, runErr error) error {
	if run == nil {
		return runErr
	}
	reportErr := writeReports(cmd, cfg, run, m)
	if runErr == nil {
		return reportErr
	}
	if errors.Is(reportErr, errTestsFailed) {
		reportErr = nil
	}
	return errors.Join(runErr, reportErr)
}

func setupLogger(cfg *config.Config) error {
	log, err := logger.New(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}

// executeRun runs one suite selection across every configured project. When the run
// is aborted the partial report is returned together with the abort error.
func executeRun(ctx context.Context, cfg *config.Config, which string, m *metrics.Metrics) (*report.Run, error) {
	if !slices.Contains(suite.Suites(), which) {
		return nil, fmt.Errorf("unknown suite %q", which)
	}

	var cases []fixtures.LoginCase
	if which != suite.SuiteTasks {
		var err error
		if cases, err = loadCases(cfg); err != nil {
			return nil, err
		}
	}

	run := report.NewRun()
	logger.Info("Run %s: suite=%s projects=%v base_url=%s", run.ID, which, cfg.Browser.Projects, cfg.App.BaseURL)

	err := runProjects(ctx, cfg, which, cases, run, m)
	run.Finish()
	if err != nil {
		logger.Error("run aborted: %v", err)
		return run, fmt.Errorf("run aborted: %w", err)
	}
	return run, nil
}

// runProjects runs every browser project concurrently; each project owns its browser.
func runProjects(ctx context.Context, cfg *config.Config, which string, cases []fixtures.LoginCase, run *report.Run, m *metrics.Metrics) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, project := range cfg.Browser.Projects {
		plan := suite.Plan{Project: project, Suite: which, Cases: cases}
		g.Go(func() error {
			return suite.RunProject(gctx, cfg, plan, run, m)
		})
	}
	return g.Wait()
}

func writeReports(cmd *cobra.Command, cfg *config.Config, run *report.Run, m *metrics.Metrics) error {
	out := cmd.OutOrStdout()
	report.WriteTable(out, run)
	if cfg.Reporting.GitHub {
		report.WriteGitHub(out, run)
	}

	var errs []error
	if cfg.Reporting.HTML != "" {
		if err := report.WriteHTML(cfg.Reporting.HTML, run); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("HTML report written to %s", cfg.Reporting.HTML)
		}
	}
	if cfg.Reporting.JSON != "" {
		if err := run.WriteJSON(cfg.Reporting.JSON); err != nil {
			errs = append(errs, err)
		}
	}

	stats := run.Stats()
	m.RecordRun(run.ID, map[string]int{
		string(report.StatusPassed):  stats.Passed,
		string(report.StatusFailed):  stats.Failed,
		string(report.StatusSkipped): stats.Skipped,
		string(report.StatusFlaky):   stats.Flaky,
	})
	if metricsFileFlag != "" {
		if err := m.WriteTextfile(metricsFileFlag); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	if run.Failed() {
		return errTestsFailed
	}
	return nil
}
