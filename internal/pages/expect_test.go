package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMatches(t *testing.T) {
	assert.True(t, StatusInProgress.Matches("Inprogress"))
	assert.True(t, StatusInProgress.Matches("  in progress "))
	assert.True(t, StatusOnHold.Matches("OnHold"))
	assert.True(t, StatusAIDraft.Matches("AI Draft"))
	assert.False(t, StatusCompleted.Matches("Pending"))
	assert.False(t, StatusAIDraft.Matches("AI Processing"))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("InEhr")
	require.NoError(t, err)
	assert.Equal(t, StatusInEhr, s)

	s, err = ParseStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("Archived")
	assert.Error(t, err)
}

func TestStatusOptionName(t *testing.T) {
	for _, s := range Statuses() {
		name, err := s.OptionName()
		require.NoError(t, err, s)
		assert.True(t, s.Matches(name), "option %q should match status %q", name, s)
	}
	_, err := Status("Archived").OptionName()
	assert.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" High ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("high")
	assert.Error(t, err)
}

func TestExpectAllStatus(t *testing.T) {
	assert.NoError(t, ExpectAllStatus(nil, StatusCompleted))
	assert.NoError(t, ExpectAllStatus([]string{"Completed", " completed "}, StatusCompleted))

	err := ExpectAllStatus([]string{"Completed", "Pending"}, StatusCompleted)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Row)
	assert.Equal(t, "Pending", aerr.Got)
	assert.Equal(t, "status filter: row 2: expected Completed, got Pending", err.Error())
}

func TestExpectStatusIn(t *testing.T) {
	allowed := []Status{StatusCompleted, StatusInProgress}
	assert.NoError(t, ExpectStatusIn([]string{"Completed", "Inprogress", "Completed"}, allowed))
	assert.Error(t, ExpectStatusIn([]string{"Completed", "OnHold"}, allowed))
}

func TestExpectPriority(t *testing.T) {
	assert.NoError(t, ExpectAllPriority([]string{"Low ", "Low"}, PriorityLow))
	assert.Error(t, ExpectAllPriority([]string{"Low", "low"}, PriorityLow))

	allowed := []Priority{PriorityMedium, PriorityHigh}
	assert.NoError(t, ExpectPriorityIn([]string{"High", "Medium"}, allowed))
	assert.Error(t, ExpectPriorityIn([]string{"High", "Low"}, allowed))
}

func TestExpectStatusAndPriority(t *testing.T) {
	assert.NoError(t, ExpectStatusAndPriority(
		[]string{"Completed", "Completed"}, []string{"Medium", "Medium"}, StatusCompleted, PriorityMedium))

	assert.Error(t, ExpectStatusAndPriority(
		[]string{"Completed"}, []string{"Medium", "Medium"}, StatusCompleted, PriorityMedium),
		"column length mismatch must fail")

	assert.Error(t, ExpectStatusAndPriority(
		[]string{"Completed", "Completed"}, []string{"Medium", "High"}, StatusCompleted, PriorityMedium))
}

func TestExpectSorted(t *testing.T) {
	tests := []struct {
		name    string
		cells   []string
		order   SortOrder
		wantErr bool
	}{
		{"empty", nil, Ascending, false},
		{"ascending", []string{"101", " 102", "110 "}, Ascending, false},
		{"ascending numeric not lexical", []string{"9", "10", "100"}, Ascending, false},
		{"ascending violated", []string{"101", "100"}, Ascending, true},
		{"descending", []string{"300", "20", "1"}, Descending, false},
		{"descending violated", []string{"1", "20"}, Descending, true},
		{"duplicates allowed", []string{"5", "5", "6"}, Ascending, false},
		{"non numeric", []string{"101", "abc"}, Ascending, true},
		{"NaN rejected", []string{"NaN", "1", "2"}, Ascending, true},
		{"infinity rejected", []string{"1", "Inf"}, Ascending, true},
		{"exponent rejected", []string{"1e3", "2000"}, Ascending, true},
		{"fraction rejected", []string{"1.5", "2"}, Ascending, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExpectSorted(tt.cells, tt.order)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTaskNumbers(t *testing.T) {
	nums, err := ParseTaskNumbers([]string{" 7", "1024 ", "-3"})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 1024, -3}, nums)

	_, err = ParseTaskNumbers([]string{"12", "NaN"})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Row)
	assert.Equal(t, "NaN", aerr.Got)
}

func TestExpectHeadersChanged(t *testing.T) {
	before := []string{"Task #StatusPriority"}
	assert.NoError(t, ExpectHeadersChanged(before, []string{"StatusPriority"}))
	assert.Error(t, ExpectHeadersChanged(before, []string{"Task #StatusPriority"}))
}

func TestTasksURLPattern(t *testing.T) {
	re := TasksURLPattern("https://appv2.ezyscribe.com/")
	assert.True(t, re.MatchString("https://appv2.ezyscribe.com/tasks"))
	assert.True(t, re.MatchString("https://appv2.ezyscribe.com/tasks?page=2"))
	assert.False(t, re.MatchString("https://appv2.ezyscribe.com/login"))
	assert.False(t, re.MatchString("https://appv2xezyscribe.com/tasks"))
}
