package suite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/browser"
	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/pages"
)

// Timings of the shared dashboard login.
var (
	DashboardURLTimeout   = 50 * time.Second
	DashboardThemeTimeout = 10 * time.Second
)

// TaskSuite runs the dashboard scenarios on one logged-in page
type TaskSuite struct {
	rt      *browser.Runtime
	cfg     *config.Config
	session *browser.Session
	Page    *pages.TaskPage

	status    pages.Status
	priority  pages.Priority
	filterErr error
}

// NewTaskSuite prepares the suite; call Setup before running scenarios. The single-value
// filter scenarios use tasks.status_filter and tasks.priority_filter, Completed and Low
// without a configuration.
func NewTaskSuite(rt *browser.Runtime) *TaskSuite {
	return newTaskSuite(rt, rt.Config())
}

func newTaskSuite(rt *browser.Runtime, cfg *config.Config) *TaskSuite {
	s := &TaskSuite{rt: rt, cfg: cfg, status: pages.StatusCompleted, priority: pages.PriorityLow}
	if s.cfg == nil {
		return s
	}
	var err error
	if v := s.cfg.Tasks.StatusFilter; v != "" {
		if s.status, err = pages.ParseStatus(v); err != nil {
			s.filterErr = fmt.Errorf("tasks.status_filter: %w", err)
		}
	}
	if v := s.cfg.Tasks.PriorityFilter; v != "" {
		if s.priority, err = pages.ParsePriority(v); err != nil {
			s.filterErr = errors.Join(s.filterErr, fmt.Errorf("tasks.priority_filter: %w", err))
		}
	}
	return s
}

// Setup logs in once. If the redirect to the dashboard URL is not observed the suite
// falls back to waiting for the theme toggle, which only renders once signed in.
func (s *TaskSuite) Setup(ctx context.Context) error {
	if s.filterErr != nil {
		return s.filterErr
	}
	sess, err := s.rt.NewSharedSession("tasks")
	if err != nil {
		return err
	}
	s.session = sess
	s.Page = pages.NewTaskPage(sess.Page)

	logger.Info("Navigating to EzyScribe and logging in")
	if err := sess.Goto("", false); err != nil {
		return err
	}
	if err := s.Page.Login(s.cfg.Credentials.Email, s.cfg.Credentials.Password); err != nil {
		return err
	}
	if err := pages.WaitForTasksURL(sess.Page, s.cfg.App.BaseURL, DashboardURLTimeout); err != nil {
		logger.Warn("URL check failed, waiting for theme toggle button instead: %v", err)
		if werr := s.Page.WaitForThemeToggle(DashboardThemeTimeout); werr != nil {
			return fmt.Errorf("dashboard did not load after login: %w", werr)
		}
	}
	logger.Info("Login successful, Task Dashboard loaded")
	return nil
}

// Teardown closes the shared session
func (s *TaskSuite) Teardown(failed bool) browser.Artifacts {
	if s.session == nil {
		return browser.Artifacts{}
	}
	a := s.session.Close(failed)
	s.session = nil
	return a
}

// openTasks reloads the dashboard so each scenario starts from a clean table.
func (s *TaskSuite) openTasks() error {
	return s.session.Goto(s.cfg.App.TasksPath, true)
}

type taskStep func(ctx context.Context, p *pages.TaskPage) error

func (s *TaskSuite) scenario(id, title string, fresh bool, step taskStep) Scenario {
	return Scenario{
		ID:    id,
		Name:  id + " - " + title,
		Suite: "tasks",
		Run: func(ctx context.Context, a *Attempt) (err error) {
			if s.session == nil {
				return fmt.Errorf("task suite not set up")
			}
			s.session.BeginAttempt(id, a.N)
			defer func() { a.Attach(s.session.EndAttempt(err != nil)) }()

			if fresh {
				if err := s.openTasks(); err != nil {
					return err
				}
			}
			if err := step(ctx, s.Page); err != nil {
				if s.cfg.Artifacts.Screenshots != config.ModeOff {
					a.Attach(s.session.Screenshot(fmt.Sprintf("%s_attempt%d_failed", id, a.N)))
				}
				return err
			}
			logger.Info("%s completed successfully", title)
			return nil
		},
	}
}

// Scenarios lists the dashboard checks in execution order. They share one page and
// must run serially.
func (s *TaskSuite) Scenarios() []Scenario {
	return []Scenario{
		s.scenario("TP001", "Toggle Theme (Light <-> Dark)", false, func(ctx context.Context, p *pages.TaskPage) error {
			return p.ChangeTheme(ctx)
		}),
		s.scenario("TP002", "Search Task by ID", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.SearchFilter(ctx)
		}),
		s.scenario("TP003", "Apply Status Filter - "+string(s.status), true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.SelectStatusFilter(ctx, s.status)
		}),
		s.scenario("TP004", "Apply Priority Filter - "+string(s.priority), true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.SelectPriorityFilter(ctx, s.priority)
		}),
		s.scenario("TP005", "Sort Task IDs Ascending", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.Sort(ctx, pages.Ascending)
		}),
		s.scenario("TP006", "Filter by Upload Date", true, func(ctx context.Context, p *pages.TaskPage) error {
			if err := p.ClickReset(); err != nil {
				return err
			}
			if err := p.ClickUploadDate(); err != nil {
				return err
			}
			if err := p.SelectFromDate("Aug", "2024", "15"); err != nil {
				return err
			}
			return p.SelectToDate(ctx, "Sep", "2025", "15")
		}),
		s.scenario("TP007", "Toggle Column Visibility (View Filter)", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.ViewFilter("taskNo")
		}),
		s.scenario("TP008", "Search Task by invalid ID", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.SearchFilterInvalid("1231454451")
		}),
		s.scenario("TP009", "Filter Status: Completed or In Progress", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.SelectStatusFilterMultiple(ctx, []pages.Status{pages.StatusCompleted, pages.StatusInProgress})
		}),
		s.scenario("TP010", "Filter Priority: Medium or High", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.SelectPriorityFilterMultiple(ctx, []pages.Priority{pages.PriorityMedium, pages.PriorityHigh})
		}),
		s.scenario("TP011", "Filter by Status Completed and Priority Medium", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.FilterByStatusAndPriority(ctx, pages.StatusCompleted, pages.PriorityMedium)
		}),
		s.scenario("TP012", "Theme persists across reload", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.VerifyThemePersistence(ctx)
		}),
		s.scenario("TP013", "Sort Task IDs Descending", true, func(ctx context.Context, p *pages.TaskPage) error {
			return p.Sort(ctx, pages.Descending)
		}),
	}
}
