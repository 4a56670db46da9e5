package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one scenario
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	// StatusFlaky marks a scenario that failed at least once before passing.
	StatusFlaky Status = "flaky"
)

// Result is the outcome of one scenario in one browser project
type Result struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Suite     string        `json:"suite"`
	Project   string        `json:"project"`
	Status    Status        `json:"status"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty"`
}

// Stats summarises a run
type Stats struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Flaky   int `json:"flaky"`
}

// Run collects results. It is safe for concurrent use.
type Run struct {
	ID       string        `json:"id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []Result      `json:"results"`

	mu sync.Mutex
}

// NewRun starts a run with a fresh ID
func NewRun() *Run {
	return &Run{ID: uuid.NewString(), Started: time.Now()}
}

// Add records a result
func (r *Run) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
}

// Finish stamps the run duration and orders results by suite, project and ID
func (r *Run) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = time.Since(r.Started)
	sort.SliceStable(r.Results, func(i, j int) bool {
		a, b := r.Results[i], r.Results[j]
		if a.Suite != b.Suite {
			return a.Suite < b.Suite
		}
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		return a.ID < b.ID
	})
}

// Snapshot returns a copy of the recorded results
func (r *Run) Snapshot() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.Results))
	copy(out, r.Results)
	return out
}

// Stats counts results per status
func (r *Run) Stats() Stats {
	var s Stats
	for _, res := range r.Snapshot() {
		s.Total++
		switch res.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusFlaky:
			s.Flaky++
		}
	}
	return s
}

// Failed reports whether any scenario failed
func (r *Run) Failed() bool {
	return r.Stats().Failed > 0
}

// WriteJSON stores the run as JSON at path
func (r *Run) WriteJSON(path string) error {
	r.mu.Lock()
	data, err := json.MarshalIndent(struct {
		ID       string        `json:"id"`
		Started  time.Time     `json:"started"`
		Duration time.Duration `json:"duration"`
		Results  []Result      `json:"results"`
	}{r.ID, r.Started, r.Duration, r.Results}, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
