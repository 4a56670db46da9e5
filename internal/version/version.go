// Package version holds build information set with -ldflags, for example
// -X github.com/ezyscribe/ezyscribe-e2e/internal/version.Version=v1.2.0
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release tag or "dev"
	Version = "dev"

	GitCommit = "unknown"

	BuildDate = "unknown"
)

// Info is the structured form printed by the version command
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Playwright string `json:"playwright_go"`
}

// GetInfo returns the build info, including the linked playwright-go module version.
func GetInfo() Info {
	return Info{
		Version:    Version,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Playwright: moduleVersion("github.com/playwright-community/playwright-go"),
	}
}

// String returns "v1.2.0 (abc1234)"
func String() string {
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}

// Full returns every detail on one line
func Full() string {
	i := GetInfo()
	return fmt.Sprintf("%s (%s) built %s with %s, playwright-go %s", i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Playwright)
}

func moduleVersion(path string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return "unknown"
}
