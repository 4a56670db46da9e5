// Package pages wraps the EzyScribe screens in page objects.
package pages

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/retry"
	"github.com/playwright-community/playwright-go"
)

const (
	roleButton           playwright.AriaRole = "button"
	roleCell             playwright.AriaRole = "cell"
	roleCombobox         playwright.AriaRole = "combobox"
	roleGridcell         playwright.AriaRole = "gridcell"
	roleHeading          playwright.AriaRole = "heading"
	roleMenuitem         playwright.AriaRole = "menuitem"
	roleMenuitemcheckbox playwright.AriaRole = "menuitemcheckbox"
	roleOption           playwright.AriaRole = "option"
	roleRow              playwright.AriaRole = "row"
	roleTextbox          playwright.AriaRole = "textbox"
	roleToolbar          playwright.AriaRole = "toolbar"
)

// Timings used by the page objects. Tests may shorten them.
var (
	// RefreshDelay is how long a filter gets to re-render the table.
	RefreshDelay = time.Second
	// CombinedRefreshDelay is the settle time after applying two filters at once.
	CombinedRefreshDelay = 10 * time.Second
	// MenuTimeout bounds how long a dropdown gets to open before it is clicked again.
	MenuTimeout = 2 * time.Second
	// PollInterval is the spacing of re-checks while waiting for UI state.
	PollInterval = 100 * time.Millisecond
	// ResubmitDelay is the pause between re-submitting the login form and checking again.
	ResubmitDelay = time.Second
)

func byRole(p playwright.Page, role playwright.AriaRole, name string) playwright.Locator {
	return p.GetByRole(role, playwright.PageGetByRoleOptions{Name: name})
}

func toolbarButton(p playwright.Page, name string) playwright.Locator {
	return p.GetByRole(roleToolbar).GetByRole(roleButton, playwright.LocatorGetByRoleOptions{Name: name})
}

func waitNetworkIdle(p playwright.Page) error {
	if err := p.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("failed waiting for network idle: %w", err)
	}
	return nil
}

// The narrow locator views below let the retry loops run against fakes.
type clicker interface {
	Click(options ...playwright.LocatorClickOptions) error
}

type waiter interface {
	WaitFor(options ...playwright.LocatorWaitForOptions) error
}

type textReader interface {
	InnerText(options ...playwright.LocatorInnerTextOptions) (string, error)
}

type textWaiter interface {
	waiter
	textReader
}

func waitVisible(l waiter, timeout time.Duration) error {
	opts := playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}
	if timeout > 0 {
		opts.Timeout = millis(timeout)
	}
	return l.WaitFor(opts)
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// innerTextWithin bounds a single InnerText call by what is left until deadline.
func innerTextWithin(l textReader, deadline time.Time) (string, error) {
	remaining := max(time.Until(deadline), time.Millisecond)
	return l.InnerText(playwright.LocatorInnerTextOptions{Timeout: millis(remaining)})
}

// expectText polls l until its trimmed inner text equals want.
func expectText(ctx context.Context, l textReader, want string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	return retry.Poll(ctx, timeout, PollInterval, func() error {
		got, err := innerTextWithin(l, deadline)
		if err != nil {
			return err
		}
		if strings.TrimSpace(got) != want {
			return fail("cell text", -1, want, strings.TrimSpace(got))
		}
		return nil
	})
}

// expectContains polls l until its inner text matches re.
func expectContains(ctx context.Context, l textReader, re *regexp.Regexp, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	return retry.Poll(ctx, timeout, PollInterval, func() error {
		got, err := innerTextWithin(l, deadline)
		if err != nil {
			return err
		}
		if !re.MatchString(got) {
			return fail("table body", -1, re.String(), got)
		}
		return nil
	})
}

// openMenu clicks button until item shows up, at most twice. Each click gives the menu
// timeout to open.
func openMenu(ctx context.Context, button clicker, item waiter, timeout time.Duration) error {
	return retry.Do(ctx, 2, 0, func(int) error {
		if err := button.Click(); err != nil {
			return fmt.Errorf("failed to open menu: %w", err)
		}
		return item.WaitFor(playwright.LocatorWaitForOptions{Timeout: millis(timeout)})
	}, func(attempt int, err error) {
		logger.Warn("menu did not open on attempt %d: %v", attempt, err)
	})
}

// awaitAfterSubmit waits up to timeout for msg. When it does not show, submit is clicked
// again and msg gets one more wait after delay.
func awaitAfterSubmit(ctx context.Context, msg textWaiter, submit clicker, timeout, delay time.Duration) (string, error) {
	var text string
	err := retry.Do(ctx, 2, delay, func(int) error {
		deadline := time.Now().Add(timeout)
		if err := waitVisible(msg, timeout); err != nil {
			return fmt.Errorf("message not visible: %w", err)
		}
		t, err := innerTextWithin(msg, deadline)
		if err != nil {
			return err
		}
		text = t
		return nil
	}, func(attempt int, err error) {
		logger.Warn("message not shown on attempt %d, submitting again: %v", attempt, err)
		if clickErr := submit.Click(); clickErr != nil {
			logger.Warn("re-submit failed: %v", clickErr)
		}
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
