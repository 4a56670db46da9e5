package browser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/playwright-community/playwright-go"
)

// Session is one isolated browser context with a single page
type Session struct {
	Name    string
	Attempt int
	Context playwright.BrowserContext
	Page    playwright.Page

	rt      *Runtime
	tracing bool
	shared  bool

	// current trace chunk of a shared session
	chunkName    string
	chunkAttempt int
}

// Artifacts lists the files kept for a finished session
type Artifacts struct {
	Screenshot string `json:"screenshot,omitempty"`
	Video      string `json:"video,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

// Paths lists the kept files
func (a Artifacts) Paths() []string {
	var out []string
	for _, p := range []string{a.Screenshot, a.Video, a.Trace} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewSession opens a new context and page. attempt is 1-based; trace mode on-first-retry
// records only attempt 2.
func (r *Runtime) NewSession(name string, attempt int) (*Session, error) {
	return r.newSession(name, attempt, false)
}

// NewSharedSession opens a session that several scenarios reuse. Its trace is cut into
// one chunk per scenario attempt with BeginAttempt and EndAttempt.
func (r *Runtime) NewSharedSession(name string) (*Session, error) {
	return r.newSession(name, 1, true)
}

func (r *Runtime) newSession(name string, attempt int, shared bool) (*Session, error) {
	ctx, err := r.Browser.NewContext(r.contextOptions())
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}

	s := &Session{Name: name, Attempt: attempt, Context: ctx, rt: r, shared: shared}

	mode := r.cfg.Artifacts.Trace
	if traceRecorded(mode, attempt) || (shared && mode != config.ModeOff) {
		if err := ctx.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
		}); err != nil {
			logger.Warn("could not start tracing for %s: %v", name, err)
		} else {
			s.tracing = true
		}
	}

	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	page.SetDefaultTimeout(float64(r.cfg.Browser.ActionTimeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(r.cfg.Browser.NavigationTimeout.Milliseconds()))
	s.Page = page

	return s, nil
}

// traceRecorded reports whether attempt is traced under mode.
func traceRecorded(mode config.ArtifactMode, attempt int) bool {
	switch mode {
	case config.ModeOn, config.ModeRetainOnFailure:
		return true
	case config.ModeOnFirstRetry:
		return attempt == 2
	}
	return false
}

// traceKept reports whether a recorded trace is saved once the attempt is over.
func traceKept(mode config.ArtifactMode, failed bool) bool {
	return mode != config.ModeRetainOnFailure || failed
}

// BeginAttempt starts a fresh trace chunk for one attempt of a scenario on a shared
// session. It is a no-op when the session is not traced.
func (s *Session) BeginAttempt(name string, attempt int) {
	if !s.shared || !s.tracing {
		return
	}
	tr := s.Context.Tracing()
	if err := tr.StopChunk(); err != nil {
		logger.Debug("could not discard trace chunk for %s: %v", s.Name, err)
	}
	if err := tr.StartChunk(playwright.TracingStartChunkOptions{
		Title: playwright.String(fmt.Sprintf("%s attempt %d", name, attempt)),
	}); err != nil {
		logger.Warn("could not start trace chunk for %s: %v", name, err)
		return
	}
	s.chunkName, s.chunkAttempt = name, attempt
}

// EndAttempt closes the chunk opened by BeginAttempt and returns the saved trace, or ""
// when the configured mode does not keep it.
func (s *Session) EndAttempt(failed bool) string {
	if s.chunkName == "" {
		return ""
	}
	name, attempt := s.chunkName, s.chunkAttempt
	s.chunkName, s.chunkAttempt = "", 0

	tr := s.Context.Tracing()
	var path string
	mode := s.rt.cfg.Artifacts.Trace
	if traceRecorded(mode, attempt) && traceKept(mode, failed) {
		path = filepath.Join(s.rt.ArtifactDir("traces"), ArtifactName(fmt.Sprintf("%s_attempt%d", name, attempt))+".zip")
		if err := tr.StopChunk(path); err != nil {
			logger.Warn("could not save trace for %s: %v", name, err)
			path = ""
		}
	} else if err := tr.StopChunk(); err != nil {
		logger.Debug("could not discard trace chunk for %s: %v", name, err)
	}
	// keep a chunk open so the session can be stopped or chunked again
	if err := tr.StartChunk(); err != nil {
		logger.Warn("could not restart tracing for %s: %v", s.Name, err)
		s.tracing = false
	}
	return path
}

// Config returns the configuration the session was created with
func (s *Session) Config() *config.Config {
	return s.rt.cfg
}

// Goto navigates to a path relative to the base URL. waitIdle waits for the network to settle.
func (s *Session) Goto(path string, waitIdle bool) error {
	url := s.rt.cfg.URL(path)
	opts := playwright.PageGotoOptions{}
	if waitIdle {
		opts.WaitUntil = playwright.WaitUntilStateNetworkidle
	}
	if _, err := s.Page.Goto(url, opts); err != nil {
		if strings.Contains(err.Error(), "ERR_TOO_MANY_REDIRECTS") {
			return fmt.Errorf("redirect loop navigating to %s: %w", url, err)
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Screenshot captures the full page into the project's screenshot directory
func (s *Session) Screenshot(name string) string {
	return Capture(s.Page, s.rt.ArtifactDir("screenshots"), name)
}

// Close ends the session and keeps or discards artifacts according to the configured modes.
// On a shared session the trace saved here covers whatever ran outside scenario attempts.
func (s *Session) Close(failed bool) Artifacts {
	var a Artifacts
	base := ArtifactName(fmt.Sprintf("%s_attempt%d", s.Name, s.Attempt))
	cfg := s.rt.cfg

	if s.Page != nil {
		switch cfg.Artifacts.Screenshots {
		case config.ModeOn:
			a.Screenshot = s.Screenshot(base)
		case config.ModeOnlyOnFailure:
			if failed {
				a.Screenshot = s.Screenshot(base + "_" + time.Now().Format("20060102T150405"))
			}
		}
	}

	if s.tracing {
		if traceRecorded(cfg.Artifacts.Trace, s.Attempt) && traceKept(cfg.Artifacts.Trace, failed) {
			path := filepath.Join(s.rt.ArtifactDir("traces"), base+".zip")
			if err := s.Context.Tracing().Stop(path); err != nil {
				logger.Warn("could not save trace for %s: %v", s.Name, err)
			} else {
				a.Trace = path
			}
		} else if err := s.Context.Tracing().Stop(); err != nil {
			logger.Warn("could not stop tracing for %s: %v", s.Name, err)
		}
	}

	var video playwright.Video
	if s.Page != nil {
		if cfg.Artifacts.Video != config.ModeOff {
			video = s.Page.Video()
		}
		_ = s.Page.Close()
	}
	if s.Context != nil {
		_ = s.Context.Close()
	}

	if video != nil {
		if cfg.Artifacts.Video == config.ModeRetainOnFailure && !failed {
			if err := video.Delete(); err != nil {
				logger.Debug("could not delete video for %s: %v", s.Name, err)
			}
		} else if path, err := video.Path(); err == nil {
			a.Video = path
		}
	}
	return a
}
