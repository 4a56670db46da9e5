package browser

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/playwright-community/playwright-go"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactName turns a test title into a file name
func ArtifactName(name string) string {
	name = unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "unnamed"
	}
	return name
}

// Capture saves a full-page screenshot as dir/<name>.png and returns the path.
// Failures are logged and yield an empty path; a broken screenshot never fails a test.
func Capture(page playwright.Page, dir, name string) string {
	if page == nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("Failed to take screenshot: %v", err)
		return ""
	}
	path := filepath.Join(dir, ArtifactName(name)+".png")
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		logger.Error("Failed to take screenshot: %v", err)
		return ""
	}
	logger.Info("Screenshot saved: %s", path)
	return path
}
