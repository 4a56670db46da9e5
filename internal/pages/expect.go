package pages

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// AssertionError is returned when the UI does not show the expected state.
type AssertionError struct {
	What string
	Row  int // -1 when the failure is not tied to a row
	Want any
	Got  any
}

func (e *AssertionError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s: row %d: expected %v, got %v", e.What, e.Row+1, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: expected %v, got %v", e.What, e.Want, e.Got)
}

func fail(what string, row int, want, got any) error {
	return &AssertionError{What: what, Row: row, Want: want, Got: got}
}

// ExpectAllStatus checks every status cell shows want
func ExpectAllStatus(cells []string, want Status) error {
	for i, c := range cells {
		if !want.Matches(c) {
			return fail("status filter", i, want, strings.TrimSpace(c))
		}
	}
	return nil
}

// ExpectStatusIn checks every status cell shows one of allowed
func ExpectStatusIn(cells []string, allowed []Status) error {
	for i, c := range cells {
		ok := slices.ContainsFunc(allowed, func(s Status) bool { return s.Matches(c) })
		if !ok {
			return fail("status filter", i, fmt.Sprintf("one of %v", allowed), strings.TrimSpace(c))
		}
	}
	return nil
}

// ExpectAllPriority checks every priority cell is exactly want
func ExpectAllPriority(cells []string, want Priority) error {
	for i, c := range cells {
		if strings.TrimSpace(c) != string(want) {
			return fail("priority filter", i, want, strings.TrimSpace(c))
		}
	}
	return nil
}

// ExpectPriorityIn checks every priority cell is one of allowed
func ExpectPriorityIn(cells []string, allowed []Priority) error {
	for i, c := range cells {
		if !slices.Contains(allowed, Priority(strings.TrimSpace(c))) {
			return fail("priority filter", i, fmt.Sprintf("one of %v", allowed), strings.TrimSpace(c))
		}
	}
	return nil
}

// ExpectStatusAndPriority checks each row matches both filters. The two columns must
// have the same number of cells.
func ExpectStatusAndPriority(statuses, priorities []string, s Status, p Priority) error {
	if len(statuses) != len(priorities) {
		return fail("status and priority columns", -1, fmt.Sprintf("%d priority cells", len(statuses)), len(priorities))
	}
	if err := ExpectAllStatus(statuses, s); err != nil {
		return err
	}
	return ExpectAllPriority(priorities, p)
}

// ParseTaskNumbers converts task number cells to integers
func ParseTaskNumbers(cells []string) ([]int64, error) {
	nums := make([]int64, 0, len(cells))
	for i, c := range cells {
		n, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return nil, fail("task number", i, "an integer", strings.TrimSpace(c))
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// ExpectSorted checks task number cells are in the given numeric order
func ExpectSorted(cells []string, order SortOrder) error {
	nums, err := ParseTaskNumbers(cells)
	if err != nil {
		return err
	}
	want := slices.Clone(nums)
	slices.Sort(want)
	if order == Descending {
		slices.Reverse(want)
	}
	if !slices.Equal(nums, want) {
		return fail(fmt.Sprintf("task numbers sorted %s", order), -1, want, nums)
	}
	return nil
}

// ExpectHeadersChanged checks toggling a column changed the table header
func ExpectHeadersChanged(before, after []string) error {
	if slices.Equal(before, after) {
		return fail("column headers after toggle", -1, "a change", after)
	}
	return nil
}
