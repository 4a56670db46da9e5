package browser

import (
	"path/filepath"
	"testing"

	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRecorded(t *testing.T) {
	tests := []struct {
		mode    config.ArtifactMode
		attempt int
		want    bool
	}{
		{config.ModeOff, 1, false},
		{config.ModeOff, 2, false},
		{config.ModeOn, 1, true},
		{config.ModeRetainOnFailure, 3, true},
		{config.ModeOnFirstRetry, 1, false},
		{config.ModeOnFirstRetry, 2, true},
		{config.ModeOnFirstRetry, 3, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, traceRecorded(tt.mode, tt.attempt), "%s attempt %d", tt.mode, tt.attempt)
	}
}

func TestTraceKept(t *testing.T) {
	assert.True(t, traceKept(config.ModeOn, false))
	assert.True(t, traceKept(config.ModeOnFirstRetry, false))
	assert.True(t, traceKept(config.ModeRetainOnFailure, true))
	assert.False(t, traceKept(config.ModeRetainOnFailure, false))
}

// fakeTracing records chunk calls; unimplemented Tracing methods panic.
type fakeTracing struct {
	playwright.Tracing
	calls []string
	saved []string
}

func (f *fakeTracing) StartChunk(...playwright.TracingStartChunkOptions) error {
	f.calls = append(f.calls, "start")
	return nil
}

func (f *fakeTracing) StopChunk(path ...string) error {
	if len(path) > 0 {
		f.calls = append(f.calls, "save")
		f.saved = append(f.saved, path[0])
		return nil
	}
	f.calls = append(f.calls, "discard")
	return nil
}

type fakeContext struct {
	playwright.BrowserContext
	tracing *fakeTracing
}

func (f *fakeContext) Tracing() playwright.Tracing { return f.tracing }

func sharedSession(t *testing.T, mode config.ArtifactMode) (*Session, *fakeTracing) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Artifacts.Trace = mode
	tr := &fakeTracing{}
	s := &Session{
		Name:    "tasks",
		Attempt: 1,
		Context: &fakeContext{tracing: tr},
		rt:      &Runtime{Project: "chromium", cfg: cfg},
		tracing: mode != config.ModeOff,
		shared:  true,
	}
	return s, tr
}

func TestSharedSessionTracesFirstRetry(t *testing.T) {
	s, tr := sharedSession(t, config.ModeOnFirstRetry)

	s.BeginAttempt("TP005", 1)
	assert.Empty(t, s.EndAttempt(true), "first attempt is not traced under on-first-retry")

	s.BeginAttempt("TP005", 2)
	path := s.EndAttempt(false)
	require.NotEmpty(t, path)
	assert.Equal(t, filepath.Join(s.rt.ArtifactDir("traces"), "TP005_attempt2.zip"), path)

	assert.Equal(t, []string{"discard", "start", "discard", "start", "discard", "start", "save", "start"}, tr.calls)
	assert.Equal(t, []string{path}, tr.saved)
}

func TestSharedSessionRetainOnFailure(t *testing.T) {
	s, tr := sharedSession(t, config.ModeRetainOnFailure)

	s.BeginAttempt("TP001", 1)
	assert.Empty(t, s.EndAttempt(false))
	s.BeginAttempt("TP002", 1)
	assert.NotEmpty(t, s.EndAttempt(true))
	assert.Len(t, tr.saved, 1)
}

func TestSharedSessionWithoutTracing(t *testing.T) {
	s, tr := sharedSession(t, config.ModeOff)
	s.BeginAttempt("TP001", 2)
	assert.Empty(t, s.EndAttempt(true))
	assert.Empty(t, tr.calls)
}
