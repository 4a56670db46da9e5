package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so stray e2e.yaml/.env files are not picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CI", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("HEADLESS", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.App.BaseURL)
	assert.Equal(t, "https://appv2.ezyscribe.com/tasks", cfg.TasksURL())
	assert.Equal(t, []string{ProjectChromium}, cfg.Browser.Projects)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10*time.Second, cfg.Browser.ActionTimeout)
	assert.Equal(t, 1280, cfg.Browser.Viewport.Width)
	assert.Equal(t, 720, cfg.Browser.Viewport.Height)
	assert.Equal(t, ModeOnlyOnFailure, cfg.Artifacts.Screenshots)
	assert.Equal(t, ModeRetainOnFailure, cfg.Artifacts.Video)
	assert.Equal(t, ModeOnFirstRetry, cfg.Artifacts.Trace)
	assert.Equal(t, 0, cfg.Run.Retries)
	assert.False(t, cfg.Reporting.GitHub)
	assert.Equal(t, "logs/execution.log", cfg.Logging.File)
	assert.Empty(t, cfg.Run.Skip)
	assert.Equal(t, "Completed", cfg.Tasks.StatusFilter)
	assert.Equal(t, "Low", cfg.Tasks.PriorityFilter)
}

func TestLoadCIProfile(t *testing.T) {
	isolate(t)
	t.Setenv("CI", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Run.Retries)
	assert.Equal(t, 1, cfg.Run.Workers)
	assert.True(t, cfg.Reporting.GitHub)
}

func TestLoadFilePrecedence(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "custom.yaml")
	content := `
app:
  base_url: https://staging.ezyscribe.com/
browser:
  projects: [chromium, firefox]
  action_timeout: 5s
run:
  retries: 1
  skip: [TC014, TP006]
tasks:
  status_filter: In Progress
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Run("file values applied", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://staging.ezyscribe.com", cfg.App.BaseURL)
		assert.Equal(t, []string{"chromium", "firefox"}, cfg.Browser.Projects)
		assert.Equal(t, 5*time.Second, cfg.Browser.ActionTimeout)
		assert.Equal(t, 1, cfg.Run.Retries)
		assert.Equal(t, []string{"TC014", "TP006"}, cfg.Run.Skip)
		assert.Equal(t, "In Progress", cfg.Tasks.StatusFilter)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("EZYSCRIBE_RUN_RETRIES", "3")
		t.Setenv("BASE_URL", "http://localhost:3000")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Run.Retries)
		assert.Equal(t, "http://localhost:3000", cfg.App.BaseURL)
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("EZYSCRIBE_RUN_RETRIES", "3")
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.Int("retries", 0, "")
		require.NoError(t, fs.Parse([]string{"--retries=5"}))

		loader := NewLoader()
		require.NoError(t, loader.BindFlag("run.retries", fs.Lookup("retries")))
		cfg, err := loader.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Run.Retries)
	})
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("EZYSCRIBE_CREDENTIALS_EMAIL=dotenv@example.com\nEZYSCRIBE_LOGGING_LEVEL=debug\n"), 0o644))
	t.Setenv("EZYSCRIBE_LOGGING_LEVEL", "warn")
	t.Setenv("EZYSCRIBE_CREDENTIALS_EMAIL", "")
	require.NoError(t, os.Unsetenv("EZYSCRIBE_CREDENTIALS_EMAIL"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv@example.com", cfg.Credentials.Email)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.App.BaseURL = "https://appv2.ezyscribe.com"
		cfg.Browser.Projects = []string{ProjectWebKit}
		cfg.Browser.Viewport.Width = 1280
		cfg.Browser.Viewport.Height = 720
		cfg.Artifacts.Screenshots = ModeOff
		cfg.Artifacts.Video = ModeOff
		cfg.Artifacts.Trace = ModeOff
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.App.BaseURL = "/tasks" }},
		{"ftp base url", func(c *Config) { c.App.BaseURL = "ftp://appv2.ezyscribe.com" }},
		{"no projects", func(c *Config) { c.Browser.Projects = nil }},
		{"unknown project", func(c *Config) { c.Browser.Projects = []string{"edge"} }},
		{"bad screenshot mode", func(c *Config) { c.Artifacts.Screenshots = ModeOnFirstRetry }},
		{"bad video mode", func(c *Config) { c.Artifacts.Video = "sometimes" }},
		{"negative retries", func(c *Config) { c.Run.Retries = -1 }},
		{"negative workers", func(c *Config) { c.Run.Workers = -2 }},
		{"empty viewport", func(c *Config) { c.Browser.Viewport.Width = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestURL(t *testing.T) {
	cfg := &Config{App: AppConfig{BaseURL: "https://appv2.ezyscribe.com", TasksPath: "tasks"}}
	assert.Equal(t, "https://appv2.ezyscribe.com", cfg.URL(""))
	assert.Equal(t, "https://appv2.ezyscribe.com/login", cfg.URL("/login"))
	assert.Equal(t, "https://appv2.ezyscribe.com/tasks", cfg.TasksURL())
}

func TestSettingsRenderDurations(t *testing.T) {
	isolate(t)
	loader := NewLoader()
	_, err := loader.Load("")
	require.NoError(t, err)

	settings := loader.Settings()
	browser, ok := settings["browser"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "10s", browser["action_timeout"])
	assert.Equal(t, "30s", browser["navigation_timeout"])

	app, ok := settings["app"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultBaseURL, app["base_url"])
}

func TestWatchReloadsFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "e2e.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  retries: 1\n"), 0o644))

	loader := NewLoader()
	cfg, err := loader.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Run.Retries)

	changed := make(chan *Config, 4)
	loader.Watch(func(c *Config) { changed <- c })

	require.NoError(t, os.WriteFile(path, []byte("run:\n  retries: 4\n"), 0o644))
	select {
	case c := <-changed:
		assert.Equal(t, 4, c.Run.Retries)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}
