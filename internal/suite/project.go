package suite

import (
	"context"
	"fmt"

	"github.com/ezyscribe/ezyscribe-e2e/internal/browser"
	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/fixtures"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/metrics"
	"github.com/ezyscribe/ezyscribe-e2e/internal/report"
)

// Suites that can be selected on the command line.
const (
	SuiteLogin = "login"
	SuiteTasks = "tasks"
	SuiteAll   = "all"
)

// Suites lists the selectable suite names
func Suites() []string {
	return []string{SuiteLogin, SuiteTasks, SuiteAll}
}

// Plan describes what to run in one browser project
type Plan struct {
	Project string
	Suite   string
	Cases   []fixtures.LoginCase
}

func (p Plan) wants(suite string) bool {
	return p.Suite == SuiteAll || p.Suite == suite
}

// RunProject launches the project's browser, runs the selected suites and records
// every scenario in run. A browser that fails to start marks the planned scenarios failed.
// When ctx ends early the scenarios not yet run are recorded as skipped and ctx's error
// is returned.
func RunProject(ctx context.Context, cfg *config.Config, plan Plan, run *report.Run, m *metrics.Metrics) error {
	runner := &Runner{
		Project: plan.Project,
		Retries: cfg.Run.Retries,
		Workers: cfg.Run.Workers,
		Report:  run,
		Metrics: m,
	}
	skip := func(scenarios []Scenario) []Scenario {
		return Skip(scenarios, cfg.Run.Skip, "skipped by run.skip")
	}

	rt, err := browser.Launch(cfg, plan.Project)
	if err != nil {
		logger.Error("[%s] could not start browser: %v", plan.Project, err)
		failed := fmt.Errorf("browser start failed: %w", err)
		if plan.wants(SuiteLogin) {
			runner.failAll(skip(LoginScenarios(nil, plan.Cases, nil)), failed)
		}
		if plan.wants(SuiteTasks) {
			runner.failAll(skip(newTaskSuite(nil, cfg).Scenarios()), failed)
		}
		return nil
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("[%s] %v", plan.Project, err)
		}
	}()

	ts := NewTaskSuite(rt)
	taskScenarios := skip(ts.Scenarios())

	if plan.wants(SuiteLogin) {
		if err := runner.Execute(ctx, skip(LoginScenarios(rt, plan.Cases, m)), true); err != nil {
			if plan.wants(SuiteTasks) {
				runner.skipAll(taskScenarios, err)
			}
			return err
		}
	}
	if !plan.wants(SuiteTasks) {
		return nil
	}

	if err := ts.Setup(ctx); err != nil {
		logger.Error("[%s] task suite setup failed: %v", plan.Project, err)
		ts.Teardown(true)
		runner.failAll(taskScenarios, fmt.Errorf("setup failed: %w", err))
		return ctx.Err()
	}
	execErr := runner.Execute(ctx, taskScenarios, false)
	ts.Teardown(execErr != nil || (run != nil && run.Failed()))
	return execErr
}

// failAll records every scenario as failed without running it. Scenarios marked to be
// skipped stay skipped.
func (r *Runner) failAll(scenarios []Scenario, err error) {
	for _, sc := range scenarios {
		res := report.Result{
			ID:      sc.ID,
			Name:    sc.Name,
			Suite:   sc.Suite,
			Project: r.Project,
			Status:  report.StatusFailed,
			Error:   err.Error(),
		}
		if sc.SkipReason != "" {
			res.Status = report.StatusSkipped
			res.Error = sc.SkipReason
		}
		r.record(res)
	}
}
