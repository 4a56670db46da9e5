package suite

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/metrics"
	"github.com/ezyscribe/ezyscribe-e2e/internal/report"
	"golang.org/x/sync/errgroup"
)

// Attempt is handed to a scenario for each try
type Attempt struct {
	// N is 1-based
	N         int
	artifacts []string
}

// Attach records artifact files produced by the attempt. Empty paths are ignored.
func (a *Attempt) Attach(paths ...string) {
	for _, p := range paths {
		if p != "" {
			a.artifacts = append(a.artifacts, p)
		}
	}
}

// Scenario is one named test case
type Scenario struct {
	ID    string
	Name  string
	Suite string
	// SkipReason marks the scenario skipped without running it.
	SkipReason string
	Run        func(ctx context.Context, a *Attempt) error
}

// Runner executes scenarios for one browser project
type Runner struct {
	Project string
	// Retries is the number of extra attempts after a failure.
	Retries int
	// Workers bounds parallel scenarios; 0 means one per CPU.
	Workers int
	Report  *report.Run
	Metrics *metrics.Metrics
}

// Execute runs scenarios and records one result per scenario. Parallel scenarios must not
// share browser state. Scenario failures land in the report. When ctx ends the run early the
// scenarios that never started are recorded as skipped and ctx's error is returned.
func (r *Runner) Execute(ctx context.Context, scenarios []Scenario, parallel bool) error {
	if !parallel {
		for i, sc := range scenarios {
			if err := ctx.Err(); err != nil {
				r.skipAll(scenarios[i:], err)
				return err
			}
			r.runOne(ctx, sc)
		}
		return ctx.Err()
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sc := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				r.skipAll([]Scenario{sc}, err)
				return err
			}
			r.runOne(gctx, sc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// skipAll records scenarios that were not started because the run ended.
func (r *Runner) skipAll(scenarios []Scenario, cause error) {
	for _, sc := range scenarios {
		r.record(report.Result{
			ID:      sc.ID,
			Name:    sc.Name,
			Suite:   sc.Suite,
			Project: r.Project,
			Status:  report.StatusSkipped,
			Error:   "not run: " + cause.Error(),
		})
	}
}

// Skip marks the scenarios whose ID is listed as skipped with reason.
func Skip(scenarios []Scenario, ids []string, reason string) []Scenario {
	for i := range scenarios {
		if slices.Contains(ids, scenarios[i].ID) {
			scenarios[i].SkipReason = reason
		}
	}
	return scenarios
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) report.Result {
	res := report.Result{ID: sc.ID, Name: sc.Name, Suite: sc.Suite, Project: r.Project}

	if sc.SkipReason != "" {
		res.Status = report.StatusSkipped
		res.Error = sc.SkipReason
		logger.Info("[%s] %s skipped: %s", r.Project, sc.Name, sc.SkipReason)
		r.record(res)
		return res
	}

	start := time.Now()
	var lastErr error
	for n := 1; n <= r.Retries+1; n++ {
		a := &Attempt{N: n}
		logger.Info("[%s] Test started: %s (attempt %d)", r.Project, sc.Name, n)
		lastErr = runSafely(ctx, sc, a)
		res.Attempts = n
		res.Artifacts = append(res.Artifacts, a.artifacts...)
		if lastErr == nil {
			break
		}
		logger.Error("[%s] %s failed on attempt %d: %v", r.Project, sc.Name, n, lastErr)
		if errors.Is(lastErr, context.Canceled) || ctx.Err() != nil {
			break
		}
	}
	res.Duration = time.Since(start)

	switch {
	case lastErr != nil:
		res.Status = report.StatusFailed
		res.Error = lastErr.Error()
	case res.Attempts > 1:
		res.Status = report.StatusFlaky
		logger.Warn("[%s] %s passed after %d attempts", r.Project, sc.Name, res.Attempts)
	default:
		res.Status = report.StatusPassed
		logger.Info("[%s] %s passed", r.Project, sc.Name)
	}
	r.record(res)
	return res
}

func (r *Runner) record(res report.Result) {
	if r.Report != nil {
		r.Report.Add(res)
	}
	if r.Metrics != nil {
		r.Metrics.ObserveScenario(res.Project, string(res.Status), res.Attempts, res.Duration)
	}
}

// runSafely turns a panic inside a scenario into a failed attempt.
func runSafely(ctx context.Context, sc Scenario, a *Attempt) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	return sc.Run(ctx, a)
}

// PanicError reports a scenario that panicked
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("scenario panicked: %v", e.Value)
}
