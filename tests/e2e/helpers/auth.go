package helpers

import (
	"fmt"
	"testing"

	"github.com/ezyscribe/ezyscribe-e2e/internal/browser"
	"github.com/ezyscribe/ezyscribe-e2e/internal/pages"
	"github.com/ezyscribe/ezyscribe-e2e/internal/suite"
)

// AuthHelper provides authentication utilities for tests
type AuthHelper struct {
	browser *BrowserHelper
}

// NewAuthHelper creates a new authentication helper
func NewAuthHelper(browser *BrowserHelper) *AuthHelper {
	return &AuthHelper{browser: browser}
}

// Login signs in with the given credentials and waits for the task dashboard
func (a *AuthHelper) Login(s *browser.Session, email, password string) error {
	lp := pages.NewLoginPage(s.Page, a.browser.Config.App.BaseURL)
	if err := lp.Goto(); err != nil {
		return fmt.Errorf("failed to navigate to login: %w", err)
	}
	if err := lp.Login(email, password); err != nil {
		return err
	}
	if lp.IsRateLimited() {
		return suite.ErrRateLimited
	}
	return lp.WaitForTasksURL(suite.DashboardURLTimeout)
}

// LoginAsProvider logs in with the configured provider account
func (a *AuthHelper) LoginAsProvider(s *browser.Session) error {
	creds := a.browser.Config.Credentials
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("provider credentials not configured")
	}
	return a.Login(s, creds.Email, creds.Password)
}

// TaskDashboard returns a task page signed in as the provider, failing t otherwise.
func (a *AuthHelper) TaskDashboard(t *testing.T) *pages.TaskPage {
	t.Helper()
	s := a.browser.Session(t)
	if err := a.LoginAsProvider(s); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return pages.NewTaskPage(s.Page)
}
