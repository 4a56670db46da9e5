package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/playwright-community/playwright-go"
)

// Device descriptors applied per project, matching the desktop profiles of each engine.
var projectDevices = map[string]string{
	config.ProjectChromium: "Desktop Chrome",
	config.ProjectFirefox:  "Desktop Firefox",
	config.ProjectWebKit:   "Desktop Safari",
}

// Install downloads the playwright driver and the browsers for the given projects.
// PLAYWRIGHT_PREINSTALLED=1 skips the download on images that already ship them.
func Install(projects []string) error {
	if os.Getenv("PLAYWRIGHT_PREINSTALLED") == "1" {
		return nil
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: projects}); err != nil {
		return fmt.Errorf("could not install playwright browsers: %w", err)
	}
	return nil
}

// Runtime is a running playwright driver with one launched browser
type Runtime struct {
	Project    string
	Playwright *playwright.Playwright
	Browser    playwright.Browser
	cfg        *config.Config
}

// Launch starts playwright and the browser for project
func Launch(cfg *config.Config, project string) (*Runtime, error) {
	pw, err := playwright.Run()
	if err != nil {
		// Fallback: install the driver explicitly then retry
		if installErr := Install([]string{project}); installErr != nil {
			logger.Warn("playwright install before retry failed: %v", installErr)
		}
		pw, err = playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("could not start playwright after retry: %w", err)
		}
	}

	var bt playwright.BrowserType
	switch project {
	case config.ProjectChromium:
		bt = pw.Chromium
	case config.ProjectFirefox:
		bt = pw.Firefox
	case config.ProjectWebKit:
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unknown browser project %q", project)
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Browser.Headless),
		SlowMo:   playwright.Float(float64(cfg.Browser.SlowMo.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch %s: %w", project, err)
	}

	return &Runtime{Project: project, Playwright: pw, Browser: b, cfg: cfg}, nil
}

// Close shuts the browser and the driver down
func (r *Runtime) Close() error {
	var errs []string
	if r.Browser != nil {
		if err := r.Browser.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if r.Playwright != nil {
		if err := r.Playwright.Stop(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close %s runtime: %s", r.Project, strings.Join(errs, "; "))
	}
	return nil
}

// Config returns the configuration the runtime was launched with. A nil runtime has none.
func (r *Runtime) Config() *config.Config {
	if r == nil {
		return nil
	}
	return r.cfg
}

// ArtifactDir returns the per-project directory for kind (screenshots, videos, traces).
func (r *Runtime) ArtifactDir(kind string) string {
	return filepath.Join(r.cfg.Artifacts.Dir, kind, r.Project)
}

func (r *Runtime) contextOptions() playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{}
	if name, ok := projectDevices[r.Project]; ok {
		if dev, ok := r.Playwright.Devices[name]; ok && dev != nil {
			opts.UserAgent = playwright.String(dev.UserAgent)
			opts.DeviceScaleFactor = playwright.Float(dev.DeviceScaleFactor)
			opts.IsMobile = playwright.Bool(dev.IsMobile)
			opts.HasTouch = playwright.Bool(dev.HasTouch)
		}
	}
	opts.Viewport = &playwright.Size{
		Width:  r.cfg.Browser.Viewport.Width,
		Height: r.cfg.Browser.Viewport.Height,
	}
	if r.cfg.Artifacts.Video != config.ModeOff {
		opts.RecordVideo = &playwright.RecordVideo{Dir: r.ArtifactDir("videos")}
	}
	return opts
}
