package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/metrics"
	"github.com/ezyscribe/ezyscribe-e2e/internal/report"
	"github.com/ezyscribe/ezyscribe-e2e/internal/suite"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ezyscribe-e2e dev")
}

func TestFixturesValidate(t *testing.T) {
	t.Run("built-in data", func(t *testing.T) {
		out, err := execute(t, "fixtures", "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "built-in users.json: 13 login cases OK")
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- TCID: TC900\n  Email: a@b.co\n"), 0o644))
		_, err := execute(t, "fixtures", "validate", path)
		assert.Error(t, err)
	})
}

func TestRunRejectsUnknownSuite(t *testing.T) {
	_, err := execute(t, "run", "checkout")
	assert.Error(t, err)
}

func TestSelectedSuite(t *testing.T) {
	assert.Equal(t, suite.SuiteAll, selectedSuite(nil))
	assert.Equal(t, suite.SuiteLogin, selectedSuite([]string{"login"}))
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CI", "")
	t.Setenv("EZYSCRIBE_RUN_RETRIES", "4")

	require.NoError(t, runCmd.Flags().Parse([]string{
		"--retries=1", "--project=firefox,webkit", "--skip=TC014,TP006", "--status=On Hold",
	}))
	t.Cleanup(func() {
		retries := runCmd.Flags().Lookup("retries")
		_ = retries.Value.Set(retries.DefValue)
		retries.Changed = false
		project := runCmd.Flags().Lookup("project")
		_ = project.Value.(pflag.SliceValue).Replace(nil)
		project.Changed = false
		skip := runCmd.Flags().Lookup("skip")
		_ = skip.Value.(pflag.SliceValue).Replace(nil)
		skip.Changed = false
		status := runCmd.Flags().Lookup("status")
		_ = status.Value.Set(status.DefValue)
		status.Changed = false
	})

	cfg, _, err := loadRunConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Run.Retries)
	assert.Equal(t, []string{"firefox", "webkit"}, cfg.Browser.Projects)
	assert.Equal(t, 0, cfg.Run.Workers)
	assert.Equal(t, []string{"TC014", "TP006"}, cfg.Run.Skip)
	assert.Equal(t, "On Hold", cfg.Tasks.StatusFilter)
	assert.Equal(t, "Low", cfg.Tasks.PriorityFilter)
}

func TestFinishRunPropagatesAbort(t *testing.T) {
	newRun := func(status report.Status) *report.Run {
		run := report.NewRun()
		run.Add(report.Result{ID: "TC001", Name: "Login Test - TC001", Suite: "login", Project: "chromium", Status: status})
		run.Add(report.Result{ID: "TC002", Name: "Login Test - TC002", Suite: "login", Project: "chromium",
			Status: report.StatusSkipped, Error: "not run: context canceled"})
		run.Finish()
		return run
	}
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cfg := &config.Config{}

	t.Run("aborted run is reported and fails", func(t *testing.T) {
		out.Reset()
		aborted := fmt.Errorf("run aborted: %w", context.Canceled)
		err := finishRun(cmd, cfg, newRun(report.StatusPassed), metrics.New(), aborted)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, out.String(), "TC002", "partial results are still printed")
	})

	t.Run("aborted run with failures reports the abort", func(t *testing.T) {
		err := finishRun(cmd, cfg, newRun(report.StatusFailed), metrics.New(), context.Canceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, errTestsFailed)
	})

	t.Run("no run", func(t *testing.T) {
		err := finishRun(cmd, cfg, nil, metrics.New(), errors.New("unknown suite"))
		assert.EqualError(t, err, "unknown suite")
	})

	t.Run("complete run", func(t *testing.T) {
		assert.NoError(t, finishRun(cmd, cfg, newRun(report.StatusPassed), metrics.New(), nil))
		assert.ErrorIs(t, finishRun(cmd, cfg, newRun(report.StatusFailed), metrics.New(), nil), errTestsFailed)
	})
}
