package runner

import (
	"context"
	"sort"
	"time"
)

// Job is a suite run that fires on a cron schedule
type Job interface {
	// Name returns the unique name of the job
	Name() string

	// Schedule returns the cron expression, seconds field first
	Schedule() string

	Run(ctx context.Context) error

	// Timeout bounds one run
	Timeout() time.Duration
}

// Registry holds the jobs a Runner schedules
type Registry struct {
	jobs map[string]Job
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Job)}
}

// Register adds a job, replacing one with the same name
func (r *Registry) Register(job Job) {
	r.jobs[job.Name()] = job
}

// Get returns a job by name
func (r *Registry) Get(name string) (Job, bool) {
	job, ok := r.jobs[name]
	return job, ok
}

// Names returns the registered job names in order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FuncJob adapts a function to Job
type FuncJob struct {
	JobName     string
	Spec        string
	MaxDuration time.Duration
	Fn          func(ctx context.Context) error
}

func (f FuncJob) Name() string                  { return f.JobName }
func (f FuncJob) Schedule() string              { return f.Spec }
func (f FuncJob) Timeout() time.Duration        { return f.MaxDuration }
func (f FuncJob) Run(ctx context.Context) error { return f.Fn(ctx) }
