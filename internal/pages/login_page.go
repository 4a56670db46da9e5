package pages

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// LoginPage is the sign-in screen served at the app root
type LoginPage struct {
	Page    playwright.Page
	BaseURL string

	EmailInput            playwright.Locator
	PasswordInput         playwright.Locator
	SubmitButton          playwright.Locator
	EmailError            playwright.Locator
	PasswordError         playwright.Locator
	CombinedError         playwright.Locator
	ForgotPasswordLink    playwright.Locator
	ForgotPasswordMessage playwright.Locator
	TooManyRequests       playwright.Locator
}

// CombinedErrorTimeout bounds each wait for the wrong-credentials message.
var CombinedErrorTimeout = 5 * time.Second

// NewLoginPage binds the login screen locators to p
func NewLoginPage(p playwright.Page, baseURL string) *LoginPage {
	return &LoginPage{
		Page:    p,
		BaseURL: strings.TrimRight(baseURL, "/"),

		EmailInput:    byRole(p, roleTextbox, "Email"),
		PasswordInput: p.Locator(`input[name="password"]`),
		SubmitButton:  byRole(p, roleButton, "Submit"),

		// Field-level messages
		EmailError:    p.GetByText("Invalid email format"),
		PasswordError: p.GetByText("Password must be at least 8"),
		// Shown when both fields are well formed but the credentials are wrong
		CombinedError: p.GetByText("Invalid email or password"),

		ForgotPasswordLink:    p.GetByText("Forgot your password?"),
		ForgotPasswordMessage: p.GetByText("Check your email for the reset password link"),
		TooManyRequests:       p.GetByText("Too many requests. Please try"),
	}
}

// Goto opens the login screen
func (l *LoginPage) Goto() error {
	if _, err := l.Page.Goto(l.BaseURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	return nil
}

func (l *LoginPage) EnterEmail(email string) error {
	if err := l.EmailInput.Fill(email); err != nil {
		return fmt.Errorf("failed to fill email: %w", err)
	}
	return nil
}

func (l *LoginPage) EnterPassword(password string) error {
	if err := l.PasswordInput.Fill(password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	return nil
}

func (l *LoginPage) Submit() error {
	if err := l.SubmitButton.Click(); err != nil {
		return fmt.Errorf("failed to click submit: %w", err)
	}
	return nil
}

// Login fills both fields and submits
func (l *LoginPage) Login(email, password string) error {
	if err := l.EnterEmail(email); err != nil {
		return err
	}
	if err := l.EnterPassword(password); err != nil {
		return err
	}
	return l.Submit()
}

// EmailErrorMessage returns the email validation message, or "" when none is shown
func (l *LoginPage) EmailErrorMessage() string {
	return innerTextOrEmpty(l.EmailError)
}

// PasswordErrorMessage returns the password validation message, or "" when none is shown
func (l *LoginPage) PasswordErrorMessage() string {
	return innerTextOrEmpty(l.PasswordError)
}

// CombinedErrorMessage waits for the wrong-credentials message. If it does not show up
// the form is submitted once more before giving up.
func (l *LoginPage) CombinedErrorMessage(ctx context.Context) (string, error) {
	if err := waitNetworkIdle(l.Page); err != nil {
		return "", err
	}

	text, err := awaitAfterSubmit(ctx, l.CombinedError, l.SubmitButton, CombinedErrorTimeout, ResubmitDelay)
	if err != nil {
		return "", fmt.Errorf("combined error message: %w", err)
	}
	return text, nil
}

// IsRateLimited reports whether the "Too many requests" notice is showing
func (l *LoginPage) IsRateLimited() bool {
	return isVisible(l.TooManyRequests)
}

// WaitForTasksURL waits for the post-login redirect to the task dashboard
func (l *LoginPage) WaitForTasksURL(timeout time.Duration) error {
	return WaitForTasksURL(l.Page, l.BaseURL, timeout)
}

// ForgotPassword requests a reset link for email and waits for the confirmation
func (l *LoginPage) ForgotPassword(email string) error {
	if err := l.Goto(); err != nil {
		return err
	}
	if err := waitNetworkIdle(l.Page); err != nil {
		return err
	}
	if err := l.EnterEmail(email); err != nil {
		return err
	}
	if err := l.ForgotPasswordLink.Click(); err != nil {
		return fmt.Errorf("failed to click forgot password: %w", err)
	}
	if err := waitVisible(l.ForgotPasswordMessage, 0); err != nil {
		return fmt.Errorf("reset link confirmation not shown: %w", err)
	}
	return nil
}

// TasksURLPattern matches the task dashboard under baseURL
func TasksURLPattern(baseURL string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(strings.TrimRight(baseURL, "/")) + "/tasks")
}

// WaitForTasksURL waits until p is on the task dashboard
func WaitForTasksURL(p playwright.Page, baseURL string, timeout time.Duration) error {
	if err := p.WaitForURL(TasksURLPattern(baseURL), playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("expected task dashboard URL, still on %s: %w", p.URL(), err)
	}
	return nil
}

func innerTextOrEmpty(l playwright.Locator) string {
	text, err := l.InnerText()
	if err != nil {
		return ""
	}
	return text
}

func isVisible(l playwright.Locator) bool {
	v, err := l.IsVisible()
	return err == nil && v
}
