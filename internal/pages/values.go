package pages

import (
	"fmt"
	"strings"
)

// Status is a task status as offered by the dashboard's Status filter.
type Status string

const (
	StatusAIProcessing Status = "AI Processing"
	StatusAIDraft      Status = "AI Draft"
	StatusInEhr        Status = "In Ehr"
	StatusInProgress   Status = "In Progress"
	StatusCompleted    Status = "Completed"
	StatusOnHold       Status = "On Hold"
	StatusPending      Status = "Pending"
)

// statusOptions maps a status to the accessible name of its filter option.
var statusOptions = map[Status]string{
	StatusAIProcessing: "AI Processing",
	StatusAIDraft:      "AI Draft",
	StatusInEhr:        "InEhr",
	StatusInProgress:   "Inprogress",
	StatusCompleted:    "Completed",
	StatusOnHold:       "OnHold",
	StatusPending:      "Pending",
}

// Statuses lists every status in filter order
func Statuses() []Status {
	return []Status{StatusAIProcessing, StatusAIDraft, StatusInEhr, StatusInProgress, StatusCompleted, StatusOnHold, StatusPending}
}

// OptionName returns the filter option label for s
func (s Status) OptionName() (string, error) {
	name, ok := statusOptions[s]
	if !ok {
		return "", fmt.Errorf("unknown status %q", string(s))
	}
	return name, nil
}

// Matches reports whether a status column cell shows s. The table renders some statuses
// without spaces ("Inprogress"), so comparison ignores case and whitespace.
func (s Status) Matches(cell string) bool {
	return normalize(cell) == normalize(string(s))
}

// ParseStatus accepts either the display name or the option label
func ParseStatus(v string) (Status, error) {
	for _, s := range Statuses() {
		if s.Matches(v) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", v)
}

// Priority is a task priority
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// ParsePriority validates v
func ParsePriority(v string) (Priority, error) {
	for _, p := range Priorities() {
		if string(p) == strings.TrimSpace(v) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", v)
}

// SortOrder is the direction offered by the Task # column menu
type SortOrder string

const (
	Ascending  SortOrder = "Asc"
	Descending SortOrder = "Desc"
)

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
