// Package runner repeats suite runs on a cron schedule for synthetic monitoring.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/robfig/cron/v3"
)

// Runner manages and executes scheduled jobs
type Runner struct {
	cron     *cron.Cron
	registry *Registry
	wg       sync.WaitGroup
}

// NewRunner creates a runner for the jobs in registry. A job still running when its
// next tick fires is skipped for that tick.
func NewRunner(registry *Registry) *Runner {
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
			cron.WithLogger(cronLogger{}),
		),
		registry: registry,
	}
}

// Start schedules every job and blocks until ctx is done, then waits for running jobs.
func (r *Runner) Start(ctx context.Context) error {
	logger.Info("Starting scheduler...")

	for _, name := range r.registry.Names() {
		job, _ := r.registry.Get(name)
		logger.Info("Registering job: %s with schedule: %s", name, job.Schedule())

		if _, err := r.cron.AddFunc(job.Schedule(), func() {
			r.execute(ctx, job)
		}); err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", name, err)
		}
	}

	r.cron.Start()
	logger.Info("Scheduler started")

	<-ctx.Done()
	r.Stop()
	return nil
}

// RunNow executes a registered job immediately
func (r *Runner) RunNow(ctx context.Context, name string) error {
	job, ok := r.registry.Get(name)
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return r.execute(ctx, job)
}

func (r *Runner) execute(ctx context.Context, job Job) error {
	r.wg.Add(1)
	defer r.wg.Done()

	jobCtx := ctx
	if job.Timeout() > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, job.Timeout())
		defer cancel()
	}

	logger.Info("Executing job: %s", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start).Round(time.Millisecond)

	if err != nil {
		logger.Error("Job %s failed after %v: %v", job.Name(), duration, err)
	} else {
		logger.Info("Job %s completed in %v", job.Name(), duration)
	}
	return err
}

// Stop stops scheduling and waits for running jobs to finish
func (r *Runner) Stop() {
	logger.Info("Stopping scheduler...")
	<-r.cron.Stop().Done()
	r.wg.Wait()
	logger.Info("Scheduler stopped")
}

// cronLogger routes cron's own messages to the suite log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.L().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.L().Errorw(msg, append(keysAndValues, "error", err)...)
}
