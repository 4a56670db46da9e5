package suite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/browser"
	"github.com/ezyscribe/ezyscribe-e2e/internal/fixtures"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/metrics"
	"github.com/ezyscribe/ezyscribe-e2e/internal/pages"
	"github.com/ezyscribe/ezyscribe-e2e/internal/retry"
)

// ErrRateLimited is returned when every login attempt hit the too-many-requests notice.
var ErrRateLimited = errors.New("login rate limited: too many requests")

// LoginOptions tunes the per-case retry loop
type LoginOptions struct {
	MaxAttempts    int
	RateLimitWait  time.Duration
	SuccessTimeout time.Duration
	// Screenshot captures the page under the given name and returns the file path.
	Screenshot    func(name string) string
	OnRateLimited func()
}

// DefaultLoginOptions mirrors the timings the app needs in practice
func DefaultLoginOptions() LoginOptions {
	return LoginOptions{
		MaxAttempts:    3,
		RateLimitWait:  5 * time.Second,
		SuccessTimeout: 30 * time.Second,
	}
}

// loginForm is the part of LoginPage a login case drives.
type loginForm interface {
	Goto() error
	Login(email, password string) error
	IsRateLimited() bool
	WaitForTasksURL(timeout time.Duration) error
	EmailErrorMessage() string
	PasswordErrorMessage() string
	CombinedErrorMessage(ctx context.Context) (string, error)
}

// RunLoginCase drives one fixture row through the login form. Each attempt navigates,
// submits and checks the expected outcome; a too-many-requests notice waits before the next
// attempt. When all attempts fail a screenshot named <TCID>_Failed_AllAttempts is taken and
// the last error returned together with the screenshot path.
func RunLoginCase(ctx context.Context, lp *pages.LoginPage, c fixtures.LoginCase, opts LoginOptions) (string, error) {
	return runLoginCase(ctx, lp, c, opts)
}

func runLoginCase(ctx context.Context, form loginForm, c fixtures.LoginCase, opts LoginOptions) (string, error) {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	err := retry.Do(ctx, opts.MaxAttempts, 0, func(attempt int) error {
		if err := form.Goto(); err != nil {
			return err
		}
		logger.Info("[%s] Attempt %d: Navigated to login page", c.TCID, attempt)

		if err := form.Login(c.Email, c.Password); err != nil {
			return err
		}
		logger.Info("[%s] Attempt %d: Submitted login with email: %s", c.TCID, attempt, c.Email)

		if form.IsRateLimited() {
			logger.Warn("[%s] Too many requests detected. Waiting %s before retry...", c.TCID, opts.RateLimitWait)
			if opts.OnRateLimited != nil {
				opts.OnRateLimited()
			}
			if err := retry.Sleep(ctx, opts.RateLimitWait); err != nil {
				return retry.Permanent(err)
			}
			return ErrRateLimited
		}

		return checkLoginOutcome(ctx, form, c, opts)
	}, func(attempt int, err error) {
		if !errors.Is(err, ErrRateLimited) {
			logger.Error("[%s] Test failed on attempt %d: %v", c.TCID, attempt, err)
		}
	})
	if err == nil {
		return "", nil
	}

	logger.Error("[%s] Test failed after %d attempts: %v", c.TCID, opts.MaxAttempts, err)
	var shot string
	if opts.Screenshot != nil {
		shot = opts.Screenshot(c.TCID + "_Failed_AllAttempts")
	}
	return shot, err
}

func checkLoginOutcome(ctx context.Context, form loginForm, c fixtures.LoginCase, opts LoginOptions) error {
	if c.ExpectedResult.IsSuccess() {
		// Both roles land on the task dashboard; the URL is the success signal.
		if err := form.WaitForTasksURL(opts.SuccessTimeout); err != nil {
			return err
		}
		logger.Info("[%s] Login successful", c.TCID)
		return nil
	}
	switch c.ExpectedResult {
	case fixtures.EmailError:
		if form.EmailErrorMessage() == "" {
			return &pages.AssertionError{What: "email error message", Row: -1, Want: "a message", Got: `""`}
		}
		return nil
	case fixtures.PasswordError:
		if form.PasswordErrorMessage() == "" {
			return &pages.AssertionError{What: "password error message", Row: -1, Want: "a message", Got: `""`}
		}
		return nil
	case fixtures.CombinedError:
		msg, err := form.CombinedErrorMessage(ctx)
		if err != nil {
			return err
		}
		if msg == "" {
			return &pages.AssertionError{What: "combined error message", Row: -1, Want: "a message", Got: `""`}
		}
		return nil
	}
	return retry.Permanent(fmt.Errorf("unknown expected result %q", c.ExpectedResult))
}

// LoginScenarios builds one scenario per fixture row plus the forgot-password flow.
// Every scenario gets its own browser context so they can run in parallel.
func LoginScenarios(rt *browser.Runtime, cases []fixtures.LoginCase, m *metrics.Metrics) []Scenario {
	out := make([]Scenario, 0, len(cases)+1)
	for _, c := range cases {
		out = append(out, Scenario{
			ID:    c.TCID,
			Name:  "Login Test - " + c.TCID,
			Suite: "login",
			Run: func(ctx context.Context, a *Attempt) (err error) {
				s, err := rt.NewSession(c.TCID, a.N)
				if err != nil {
					return err
				}
				defer func() { a.Attach(s.Close(err != nil).Paths()...) }()

				opts := DefaultLoginOptions()
				opts.Screenshot = s.Screenshot
				if m != nil {
					opts.OnRateLimited = m.RateLimited
				}
				shot, err := RunLoginCase(ctx, pages.NewLoginPage(s.Page, rt.Config().App.BaseURL), c, opts)
				a.Attach(shot)
				return err
			},
		})
	}
	out = append(out, Scenario{
		ID:    "TC014",
		Name:  "TC014 - Forgot Password",
		Suite: "login",
		Run: func(ctx context.Context, a *Attempt) (err error) {
			s, err := rt.NewSession("TC014", a.N)
			if err != nil {
				return err
			}
			defer func() { a.Attach(s.Close(err != nil).Paths()...) }()
			cfg := rt.Config()
			return pages.NewLoginPage(s.Page, cfg.App.BaseURL).ForgotPassword(cfg.Credentials.ForgotPasswordEmail)
		},
	})
	return out
}
