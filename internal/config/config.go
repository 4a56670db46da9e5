package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the hosted EzyScribe app the suite targets when nothing else is configured.
const DefaultBaseURL = "https://appv2.ezyscribe.com"

// Browser projects the suite can run against.
const (
	ProjectChromium = "chromium"
	ProjectFirefox  = "firefox"
	ProjectWebKit   = "webkit"
)

// ArtifactMode controls when screenshots, videos and traces are kept.
type ArtifactMode string

const (
	ModeOff             ArtifactMode = "off"
	ModeOn              ArtifactMode = "on"
	ModeOnlyOnFailure   ArtifactMode = "only-on-failure"
	ModeRetainOnFailure ArtifactMode = "retain-on-failure"
	ModeOnFirstRetry    ArtifactMode = "on-first-retry"
)

// Config represents the suite configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Artifacts   ArtifactsConfig   `mapstructure:"artifacts"`
	Run         RunConfig         `mapstructure:"run"`
	Tasks       TasksConfig       `mapstructure:"tasks"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Fixtures    FixturesConfig    `mapstructure:"fixtures"`
	Reporting   ReportingConfig   `mapstructure:"reporting"`
}

type AppConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TasksPath string `mapstructure:"tasks_path"`
}

type BrowserConfig struct {
	Projects          []string      `mapstructure:"projects"`
	Headless          bool          `mapstructure:"headless"`
	SlowMo            time.Duration `mapstructure:"slow_mo"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	Viewport          struct {
		Width  int `mapstructure:"width"`
		Height int `mapstructure:"height"`
	} `mapstructure:"viewport"`
}

type ArtifactsConfig struct {
	Dir         string       `mapstructure:"dir"`
	Screenshots ArtifactMode `mapstructure:"screenshots"`
	Video       ArtifactMode `mapstructure:"video"`
	Trace       ArtifactMode `mapstructure:"trace"`
}

type RunConfig struct {
	Retries int `mapstructure:"retries"`
	Workers int `mapstructure:"workers"`
	// Skip lists scenario IDs (TC001, TP006, ...) reported as skipped instead of run.
	Skip []string `mapstructure:"skip"`
}

// TasksConfig holds the filter values the dashboard scenarios apply
type TasksConfig struct {
	StatusFilter   string `mapstructure:"status_filter"`
	PriorityFilter string `mapstructure:"priority_filter"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type CredentialsConfig struct {
	Email               string `mapstructure:"email"`
	Password            string `mapstructure:"password"`
	ForgotPasswordEmail string `mapstructure:"forgot_password_email"`
}

type FixturesConfig struct {
	Users string `mapstructure:"users"`
}

type ReportingConfig struct {
	HTML   string `mapstructure:"html"`
	JSON   string `mapstructure:"json"`
	GitHub bool   `mapstructure:"github"`
}

// Loader reads configuration from defaults, .env, a YAML file, the environment and flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults registered
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EZYSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names kept for compatibility with CI pipelines that export them directly.
	_ = v.BindEnv("app.base_url", "EZYSCRIBE_APP_BASE_URL", "BASE_URL")
	_ = v.BindEnv("browser.headless", "EZYSCRIBE_BROWSER_HEADLESS", "HEADLESS")

	return &Loader{v: v}
}

// BindFlag lets an explicitly set command line flag win over every other source.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("flag for %q not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.base_url", DefaultBaseURL)
	v.SetDefault("app.tasks_path", "/tasks")

	v.SetDefault("browser.projects", []string{ProjectChromium})
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo", time.Duration(0))
	v.SetDefault("browser.action_timeout", 10*time.Second)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.viewport.width", 1280)
	v.SetDefault("browser.viewport.height", 720)

	v.SetDefault("artifacts.dir", "test-results")
	v.SetDefault("artifacts.screenshots", string(ModeOnlyOnFailure))
	v.SetDefault("artifacts.video", string(ModeRetainOnFailure))
	v.SetDefault("artifacts.trace", string(ModeOnFirstRetry))

	v.SetDefault("run.retries", 0)
	v.SetDefault("run.workers", 0)
	v.SetDefault("run.skip", []string{})

	v.SetDefault("tasks.status_filter", "Completed")
	v.SetDefault("tasks.priority_filter", "Low")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "logs/execution.log")

	v.SetDefault("credentials.email", "testprovider@gmail.com")
	v.SetDefault("credentials.password", "12345678")
	v.SetDefault("credentials.forgot_password_email", "testprovid@gmail.com")

	v.SetDefault("fixtures.users", "")

	v.SetDefault("reporting.html", "playwright-report/index.html")
	v.SetDefault("reporting.json", "")
	v.SetDefault("reporting.github", false)

	if os.Getenv("CI") != "" {
		v.SetDefault("run.retries", 2)
		v.SetDefault("run.workers", 1)
		v.SetDefault("reporting.github", true)
	}
}

// Load resolves the configuration. An empty path looks for an optional e2e.yaml in the
// working directory or ./config; a non-empty path must exist.
func (l *Loader) Load(path string) (*Config, error) {
	loadDotEnv(".env")

	v := l.v
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("e2e")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch reloads the configuration when the file read by Load changes. onChange receives
// the new value only when it unmarshals and validates; otherwise the old one stays in use.
// It is a no-op when Load found no file.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg := &Config{}
		if err := l.v.Unmarshal(cfg); err != nil {
			logger.Warn("failed to reload config %s: %v", e.Name, err)
			return
		}
		cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")
		if err := cfg.Validate(); err != nil {
			logger.Warn("ignoring config change in %s: %v", e.Name, err)
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Settings returns the merged key/value tree after Load. Durations are rendered as
// strings so the tree can be written back as YAML and read again.
func (l *Loader) Settings() map[string]any {
	return durationsToStrings(l.v.AllSettings())
}

func durationsToStrings(m map[string]any) map[string]any {
	for k, v := range m {
		switch val := v.(type) {
		case time.Duration:
			m[k] = val.String()
		case map[string]any:
			m[k] = durationsToStrings(val)
		}
	}
	return m
}

// Load is a shortcut for NewLoader().Load(path)
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// loadDotEnv copies KEY=VALUE pairs from a .env file into the environment.
// Existing environment variables take precedence and are not overwritten.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return
	}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if val := v.GetString(key); val != "" {
			_ = os.Setenv(name, val)
		}
	}
}

// Validate checks the resolved values
func (c *Config) Validate() error {
	u, err := url.Parse(c.App.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid base url %q: must be an absolute http(s) URL", c.App.BaseURL)
	}
	if len(c.Browser.Projects) == 0 {
		return errors.New("at least one browser project is required")
	}
	for _, p := range c.Browser.Projects {
		if !slices.Contains(KnownProjects(), p) {
			return fmt.Errorf("unknown browser project %q (want one of %s)", p, strings.Join(KnownProjects(), ", "))
		}
	}
	checks := map[string]struct {
		mode    ArtifactMode
		allowed []ArtifactMode
	}{
		"artifacts.screenshots": {c.Artifacts.Screenshots, []ArtifactMode{ModeOff, ModeOn, ModeOnlyOnFailure}},
		"artifacts.video":       {c.Artifacts.Video, []ArtifactMode{ModeOff, ModeOn, ModeRetainOnFailure}},
		"artifacts.trace":       {c.Artifacts.Trace, []ArtifactMode{ModeOff, ModeOn, ModeRetainOnFailure, ModeOnFirstRetry}},
	}
	for key, check := range checks {
		if !slices.Contains(check.allowed, check.mode) {
			return fmt.Errorf("invalid %s mode %q", key, check.mode)
		}
	}
	if c.Run.Retries < 0 {
		return fmt.Errorf("run.retries must be >= 0, got %d", c.Run.Retries)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers must be >= 0, got %d", c.Run.Workers)
	}
	if c.Browser.Viewport.Width <= 0 || c.Browser.Viewport.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Browser.Viewport.Width, c.Browser.Viewport.Height)
	}
	return nil
}

// KnownProjects lists the supported browser projects
func KnownProjects() []string {
	return []string{ProjectChromium, ProjectFirefox, ProjectWebKit}
}

// URL joins a path onto the base URL
func (c *Config) URL(path string) string {
	if path == "" {
		return c.App.BaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.App.BaseURL + path
}

// TasksURL returns the task dashboard URL
func (c *Config) TasksURL() string {
	return c.URL(c.App.TasksPath)
}
