package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScenario(t *testing.T) {
	m := New()
	m.ObserveScenario("chromium", "passed", 1, 2*time.Second)
	m.ObserveScenario("chromium", "flaky", 2, 5*time.Second)
	m.ObserveScenario("firefox", "failed", 3, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scenarios.WithLabelValues("chromium", "passed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.attempts.WithLabelValues("chromium")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.attempts.WithLabelValues("firefox")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestRateLimitedAndRecordRun(t *testing.T) {
	m := New()
	m.RateLimited()
	m.RateLimited()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimited))

	m.RecordRun("run-1", map[string]int{"passed": 4, "failed": 1})
	m.RecordRun("run-2", map[string]int{"passed": 5})
	assert.Equal(t, 1, testutil.CollectAndCount(m.lastRun))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.lastRun.WithLabelValues("run-2", "passed")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveScenario("webkit", "passed", 1, time.Second)

	path := filepath.Join(t.TempDir(), "textfile", "ezyscribe_e2e.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ezyscribe_e2e_scenarios_total{project="webkit",status="passed"} 1`)
}
