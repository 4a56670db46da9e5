package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *Run {
	r := NewRun()
	r.Add(Result{ID: "TP002", Name: "TP002 - Search Task by ID", Suite: "tasks", Project: "chromium", Status: StatusPassed, Attempts: 1, Duration: 1500 * time.Millisecond})
	r.Add(Result{ID: "TC003", Name: "Login Test - TC003", Suite: "login", Project: "chromium", Status: StatusFailed, Attempts: 3, Error: "email error: expected a message,\nfound none", Artifacts: []string{"test-results/screenshots/chromium/TC003_Failed_AllAttempts.png"}})
	r.Add(Result{ID: "TC001", Name: "Login Test - TC001", Suite: "login", Project: "chromium", Status: StatusFlaky, Attempts: 2})
	r.Add(Result{ID: "TP006", Name: "TP006 - Filter by Upload Date", Suite: "tasks", Project: "chromium", Status: StatusSkipped})
	r.Finish()
	return r
}

func TestRunStatsAndOrdering(t *testing.T) {
	r := sampleRun()
	assert.Equal(t, Stats{Total: 4, Passed: 1, Failed: 1, Skipped: 1, Flaky: 1}, r.Stats())
	assert.True(t, r.Failed())
	assert.NotEmpty(t, r.ID)

	ids := []string{}
	for _, res := range r.Snapshot() {
		ids = append(ids, res.ID)
	}
	assert.Equal(t, []string{"TC001", "TC003", "TP002", "TP006"}, ids)
}

func TestRunConcurrentAdd(t *testing.T) {
	r := NewRun()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(Result{Status: StatusPassed})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Stats().Passed)
	assert.False(t, r.Failed())
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, sampleRun())
	out := buf.String()
	assert.Contains(t, out, "EzyScribe E2E Results")
	assert.Contains(t, out, "TC003")
	assert.Contains(t, out, "TP002 - Search Task by ID")
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playwright-report", "index.html")
	require.NoError(t, WriteHTML(path, sampleRun()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<table")
	assert.Contains(t, html, "Login Test - TC003")
}

func TestWriteGitHub(t *testing.T) {
	var buf bytes.Buffer
	WriteGitHub(&buf, sampleRun())
	out := buf.String()

	assert.Contains(t, out, "::error title=[chromium] Login Test - TC003::email error: expected a message,%0Afound none\n")
	assert.Contains(t, out, "::warning title=[chromium] Login Test - TC001::passed after 2 attempts\n")
	assert.Contains(t, out, "::notice title=EzyScribe E2E::1 passed, 1 failed, 1 flaky, 1 skipped")
	assert.NotContains(t, out, "TP002")
}

func TestWriteJSON(t *testing.T) {
	r := sampleRun()
	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, r.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		ID      string   `json:"id"`
		Results []Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.ID, decoded.ID)
	require.Len(t, decoded.Results, 4)
	assert.Equal(t, StatusFailed, decoded.Results[1].Status)
}

func TestEscapes(t *testing.T) {
	assert.Equal(t, "50%25 done%0Anext", escapeData("50% done\nnext"))
	assert.Equal(t, "a%3Ab%2Cc", escapeProperty("a:b,c"))
}
