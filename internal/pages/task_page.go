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

// ThemeTimeout bounds how long the page gets to apply a theme change.
var ThemeTimeout = 5 * time.Second

// TaskPage is the task dashboard
type TaskPage struct {
	Page playwright.Page

	// Login & theme
	EmailInput    playwright.Locator
	PasswordInput playwright.Locator
	SubmitButton  playwright.Locator
	ThemeButton   playwright.Locator
	ThemeLight    playwright.Locator
	ThemeDark     playwright.Locator

	// Status filter
	StatusFilter      playwright.Locator
	StatusColumnCells playwright.Locator

	// Search
	SearchInput   playwright.Locator
	TaskCellPick  playwright.Locator
	TaskCellCheck playwright.Locator
	NoResultsCell playwright.Locator

	// Priority filter
	PriorityFilter playwright.Locator
	PriorityColumn playwright.Locator

	// Upload date filter
	UploadDateButton playwright.Locator
	MonthSelect      playwright.Locator
	YearSelect       playwright.Locator
	ResetButton      playwright.Locator
	TableBody        playwright.Locator

	// Column toggle
	ViewButton   playwright.Locator
	ColumnHeader playwright.Locator

	// Sorting
	SortButton playwright.Locator
	TaskColumn playwright.Locator
}

// NewTaskPage binds the dashboard locators to p
func NewTaskPage(p playwright.Page) *TaskPage {
	return &TaskPage{
		Page: p,

		EmailInput:    byRole(p, roleTextbox, "email"),
		PasswordInput: p.Locator(`input[type="password"]`),
		SubmitButton:  byRole(p, roleButton, "submit"),
		ThemeButton:   byRole(p, roleButton, "Toggle theme"),
		ThemeLight:    byRole(p, roleMenuitem, "Light"),
		ThemeDark:     byRole(p, roleMenuitem, "Dark"),

		StatusFilter:      toolbarButton(p, "Status"),
		StatusColumnCells: p.GetByRole(roleRow).Locator("td:nth-child(4)"),

		SearchInput:   byRole(p, roleTextbox, "Search task numbers..."),
		TaskCellPick:  p.Locator("tbody tr:nth-child(2) td:nth-child(2)"),
		TaskCellCheck: p.Locator("tbody tr:nth-child(1) td:nth-child(2)"),
		NoResultsCell: byRole(p, roleCell, "No results."),

		PriorityFilter: toolbarButton(p, "Priority"),
		PriorityColumn: p.Locator("tbody tr td:nth-child(5)"),

		UploadDateButton: toolbarButton(p, "Upload Date"),
		MonthSelect:      p.GetByLabel("Choose the Month"),
		YearSelect:       p.GetByLabel("Choose the Year"),
		ResetButton:      byRole(p, roleButton, "Reset"),
		TableBody:        p.Locator(`tbody[data-slot="table-body"]`),

		ViewButton:   byRole(p, roleCombobox, "Toggle columns"),
		ColumnHeader: p.Locator("thead"),

		SortButton: byRole(p, roleButton, "Task #"),
		TaskColumn: p.Locator("tbody td:nth-child(2)"),
	}
}

// Login signs in from the login screen the dashboard redirects to
func (t *TaskPage) Login(email, password string) error {
	if err := t.EmailInput.Fill(email); err != nil {
		return fmt.Errorf("failed to fill email: %w", err)
	}
	if err := t.PasswordInput.Fill(password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := t.SubmitButton.Click(); err != nil {
		return fmt.Errorf("failed to click submit: %w", err)
	}
	return nil
}

// WaitForThemeToggle waits for the theme button, which only renders once signed in
func (t *TaskPage) WaitForThemeToggle(timeout time.Duration) error {
	return waitVisible(t.ThemeButton, timeout)
}

// ColorScheme returns the inline color-scheme of the document element
func (t *TaskPage) ColorScheme() (string, error) {
	v, err := t.Page.Locator("html").Evaluate("el => el.style.colorScheme", nil)
	if err != nil {
		return "", fmt.Errorf("failed to read color scheme: %w", err)
	}
	s, _ := v.(string)
	return s, nil
}

func (t *TaskPage) expectColorScheme(ctx context.Context, want string) error {
	return retry.Poll(ctx, ThemeTimeout, PollInterval, func() error {
		got, err := t.ColorScheme()
		if err != nil {
			return err
		}
		if got != want {
			return fail("color scheme", -1, want, got)
		}
		return nil
	})
}

// SetTheme picks a theme from the toggle menu and waits until it is applied
func (t *TaskPage) SetTheme(ctx context.Context, theme string) error {
	item := t.ThemeLight
	if theme == "dark" {
		item = t.ThemeDark
	}
	if err := t.ThemeButton.Click(); err != nil {
		return fmt.Errorf("failed to open theme menu: %w", err)
	}
	if err := item.Click(); err != nil {
		return fmt.Errorf("failed to pick %s theme: %w", theme, err)
	}
	if err := waitNetworkIdle(t.Page); err != nil {
		return err
	}
	return t.expectColorScheme(ctx, theme)
}

// ChangeTheme switches to dark and back to light
func (t *TaskPage) ChangeTheme(ctx context.Context) error {
	if err := waitNetworkIdle(t.Page); err != nil {
		return err
	}
	if err := t.SetTheme(ctx, "dark"); err != nil {
		return err
	}
	return t.SetTheme(ctx, "light")
}

// VerifyThemePersistence switches to dark and checks it survives a reload
func (t *TaskPage) VerifyThemePersistence(ctx context.Context) error {
	if err := waitNetworkIdle(t.Page); err != nil {
		return err
	}
	if err := t.SetTheme(ctx, "dark"); err != nil {
		return err
	}
	if _, err := t.Page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return t.expectColorScheme(ctx, "dark")
}

func (t *TaskPage) clickStatusOption(s Status) error {
	name, err := s.OptionName()
	if err != nil {
		return err
	}
	if err := byRole(t.Page, roleOption, name).Click(); err != nil {
		return fmt.Errorf("failed to pick status %s: %w", s, err)
	}
	return nil
}

func (t *TaskPage) clickPriorityOption(p Priority) error {
	if err := byRole(t.Page, roleOption, string(p)).Click(); err != nil {
		return fmt.Errorf("failed to pick priority %s: %w", p, err)
	}
	return nil
}

func (t *TaskPage) applyStatuses(statuses []Status) error {
	if err := t.StatusFilter.Click(); err != nil {
		return fmt.Errorf("failed to open status filter: %w", err)
	}
	for _, s := range statuses {
		if err := t.clickStatusOption(s); err != nil {
			return err
		}
	}
	return nil
}

func (t *TaskPage) applyPriorities(priorities []Priority) error {
	if err := t.PriorityFilter.Click(); err != nil {
		return fmt.Errorf("failed to open priority filter: %w", err)
	}
	for _, p := range priorities {
		if err := t.clickPriorityOption(p); err != nil {
			return err
		}
	}
	return nil
}

// StatusCells returns the trimmed status column
func (t *TaskPage) StatusCells() ([]string, error) {
	cells, err := t.StatusColumnCells.AllTextContents()
	if err != nil {
		return nil, fmt.Errorf("failed to read status column: %w", err)
	}
	return trimAll(cells), nil
}

// PriorityCells returns the trimmed priority column
func (t *TaskPage) PriorityCells() ([]string, error) {
	cells, err := t.PriorityColumn.AllTextContents()
	if err != nil {
		return nil, fmt.Errorf("failed to read priority column: %w", err)
	}
	return trimAll(cells), nil
}

// SelectStatusFilter filters by one status and checks every row shows it
func (t *TaskPage) SelectStatusFilter(ctx context.Context, s Status) error {
	if err := t.applyStatuses([]Status{s}); err != nil {
		return err
	}
	if err := retry.Sleep(ctx, RefreshDelay); err != nil {
		return err
	}
	cells, err := t.StatusCells()
	if err != nil {
		return err
	}
	logger.Debug("statuses in table: %v", cells)
	return ExpectAllStatus(cells, s)
}

// SelectStatusFilterMultiple filters by several statuses and checks every row shows one of them
func (t *TaskPage) SelectStatusFilterMultiple(ctx context.Context, allowed []Status) error {
	if err := t.applyStatuses(allowed); err != nil {
		return err
	}
	if err := retry.Sleep(ctx, RefreshDelay); err != nil {
		return err
	}
	cells, err := t.StatusCells()
	if err != nil {
		return err
	}
	logger.Info("Statuses in table: %v", cells)
	return ExpectStatusIn(cells, allowed)
}

// SelectPriorityFilter filters by one priority and checks every row shows it
func (t *TaskPage) SelectPriorityFilter(ctx context.Context, p Priority) error {
	if err := t.applyPriorities([]Priority{p}); err != nil {
		return err
	}
	if err := retry.Sleep(ctx, RefreshDelay); err != nil {
		return err
	}
	cells, err := t.PriorityCells()
	if err != nil {
		return err
	}
	logger.Debug("priorities in table: %v", cells)
	return ExpectAllPriority(cells, p)
}

// SelectPriorityFilterMultiple filters by several priorities and checks every row shows one of them
func (t *TaskPage) SelectPriorityFilterMultiple(ctx context.Context, allowed []Priority) error {
	if err := t.applyPriorities(allowed); err != nil {
		return err
	}
	if err := retry.Sleep(ctx, RefreshDelay); err != nil {
		return err
	}
	cells, err := t.PriorityCells()
	if err != nil {
		return err
	}
	logger.Info("Priorities in table: %v", cells)
	return ExpectPriorityIn(cells, allowed)
}

// FilterByStatusAndPriority applies both filters and checks each row matches both
func (t *TaskPage) FilterByStatusAndPriority(ctx context.Context, s Status, p Priority) error {
	if err := t.applyStatuses([]Status{s}); err != nil {
		return err
	}
	if err := t.applyPriorities([]Priority{p}); err != nil {
		return err
	}
	if err := retry.Sleep(ctx, CombinedRefreshDelay); err != nil {
		return err
	}
	statuses, err := t.StatusCells()
	if err != nil {
		return err
	}
	priorities, err := t.PriorityCells()
	if err != nil {
		return err
	}
	return ExpectStatusAndPriority(statuses, priorities, s, p)
}

// SearchFilter searches for the second row's task number and expects it in the first row
func (t *TaskPage) SearchFilter(ctx context.Context) error {
	if err := waitNetworkIdle(t.Page); err != nil {
		return err
	}
	text, err := t.TaskCellPick.InnerText()
	if err != nil {
		return fmt.Errorf("failed to read task number to search for: %w", err)
	}
	input := strings.TrimSpace(text)
	if err := t.SearchInput.Fill(input); err != nil {
		return fmt.Errorf("failed to fill search: %w", err)
	}
	return expectText(ctx, t.TaskCellCheck, input, 5*time.Second)
}

// SearchFilterInvalid searches for a task number that does not exist
func (t *TaskPage) SearchFilterInvalid(query string) error {
	if err := waitNetworkIdle(t.Page); err != nil {
		return err
	}
	if err := t.SearchInput.Fill(query); err != nil {
		return fmt.Errorf("failed to fill search: %w", err)
	}
	if err := waitVisible(t.NoResultsCell, 0); err != nil {
		return fmt.Errorf("expected empty result for %q: %w", query, err)
	}
	return nil
}

// Sort orders the table by task number and checks the order. An empty table is not checked.
func (t *TaskPage) Sort(ctx context.Context, order SortOrder) error {
	if err := waitNetworkIdle(t.Page); err != nil {
		return err
	}
	if err := waitVisible(t.SortButton, 0); err != nil {
		return fmt.Errorf("sort button not visible: %w", err)
	}

	item := t.Page.GetByRole(roleMenuitemcheckbox, playwright.PageGetByRoleOptions{Name: string(order)})
	// The column menu sometimes ignores the first click.
	err := openMenu(ctx, t.SortButton, item, MenuTimeout)
	if err != nil {
		return fmt.Errorf("sort menu %s did not open: %w", order, err)
	}
	if err := item.Click(); err != nil {
		return fmt.Errorf("failed to pick %s: %w", order, err)
	}
	if err := retry.Sleep(ctx, RefreshDelay); err != nil {
		return err
	}

	cells, err := t.TaskColumn.AllTextContents()
	if err != nil {
		return fmt.Errorf("failed to read task column: %w", err)
	}
	if len(cells) == 0 {
		logger.Info("Table is empty, skipping sort validation")
		return nil
	}
	return ExpectSorted(cells, order)
}

func (t *TaskPage) ClickReset() error {
	if err := t.ResetButton.Click(); err != nil {
		return fmt.Errorf("failed to click reset: %w", err)
	}
	return nil
}

func (t *TaskPage) ClickUploadDate() error {
	if err := t.UploadDateButton.Click(); err != nil {
		return fmt.Errorf("failed to open upload date filter: %w", err)
	}
	return nil
}

func (t *TaskPage) pickDate(month, year, day string) error {
	if _, err := t.MonthSelect.SelectOption(playwright.SelectOptionValues{Labels: &[]string{month}}); err != nil {
		return fmt.Errorf("failed to select month %s: %w", month, err)
	}
	if _, err := t.YearSelect.SelectOption(playwright.SelectOptionValues{Labels: &[]string{year}}); err != nil {
		return fmt.Errorf("failed to select year %s: %w", year, err)
	}
	if err := byRole(t.Page, roleGridcell, day).Click(); err != nil {
		return fmt.Errorf("failed to pick day %s: %w", day, err)
	}
	return nil
}

// SelectFromDate picks the start of the upload date range
func (t *TaskPage) SelectFromDate(month, year, day string) error {
	return t.pickDate(month, year, day)
}

// SelectToDate picks the end of the range and expects rows from that month or an empty table
func (t *TaskPage) SelectToDate(ctx context.Context, month, year, day string) error {
	if err := t.pickDate(month, year, day); err != nil {
		return err
	}
	re := regexp.MustCompile(regexp.QuoteMeta(month) + "|No results")
	if err := expectContains(ctx, t.TableBody, re, 5*time.Second); err != nil {
		return err
	}
	if texts, err := t.TableBody.AllInnerTexts(); err == nil {
		logger.Debug("table after date filter: %v", texts)
	}
	return nil
}

// ViewFilter toggles a column from the view menu and checks the header changed
func (t *TaskPage) ViewFilter(column string) error {
	if err := t.ViewButton.Click(); err != nil {
		return fmt.Errorf("failed to open column menu: %w", err)
	}
	before, err := t.ColumnHeader.AllTextContents()
	if err != nil {
		return fmt.Errorf("failed to read headers: %w", err)
	}
	if err := t.Page.GetByText(column).Click(); err != nil {
		return fmt.Errorf("failed to toggle column %s: %w", column, err)
	}
	after, err := t.ColumnHeader.AllTextContents()
	if err != nil {
		return fmt.Errorf("failed to read headers: %w", err)
	}
	logger.Debug("headers before=%v after=%v", before, after)
	return ExpectHeadersChanged(before, after)
}
