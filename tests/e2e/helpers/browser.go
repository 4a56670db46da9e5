// Package helpers wires the browser runtime into go test for the live suites.
package helpers

import (
	"os"
	"testing"

	"github.com/ezyscribe/ezyscribe-e2e/internal/browser"
	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"go.uber.org/zap/zaptest"
)

// RequireLive skips t unless EZYSCRIBE_E2E=1 and the run is not -short.
func RequireLive(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("EZYSCRIBE_E2E") != "1" {
		t.Skip("set EZYSCRIBE_E2E=1 to run against the live app")
	}
}

// BrowserHelper provides browser setup and teardown for tests
type BrowserHelper struct {
	Config  *config.Config
	Runtime *browser.Runtime
}

// NewBrowserHelper loads the configuration and launches the first configured project.
// The browser is closed when the test finishes.
func NewBrowserHelper(t *testing.T) *BrowserHelper {
	t.Helper()
	RequireLive(t)

	logger.SetGlobal(zaptest.NewLogger(t).Sugar())

	cfg, err := config.Load(os.Getenv("EZYSCRIBE_CONFIG"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if err := browser.Install(cfg.Browser.Projects[:1]); err != nil {
		t.Skipf("could not install browsers: %v", err)
	}
	rt, err := browser.Launch(cfg, cfg.Browser.Projects[0])
	if err != nil {
		t.Skipf("could not start playwright: %v", err)
	}
	t.Cleanup(func() {
		if err := rt.Close(); err != nil {
			t.Logf("close browser: %v", err)
		}
	})
	return &BrowserHelper{Config: cfg, Runtime: rt}
}

// Session opens a fresh browser context for t. Artifacts are kept according to the
// configured modes and whether t failed.
func (b *BrowserHelper) Session(t *testing.T) *browser.Session {
	t.Helper()
	s, err := b.Runtime.NewSession(t.Name(), 1)
	if err != nil {
		t.Fatalf("could not create session: %v", err)
	}
	t.Cleanup(func() {
		for _, p := range s.Close(t.Failed()).Paths() {
			t.Logf("artifact: %s", p)
		}
	})
	return s
}
