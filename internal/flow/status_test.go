package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sixSteps() []Step {
	return []Step{
		{ID: "one"}, {ID: "two"}, {ID: "three"},
		{ID: "four"}, {ID: "five"}, {ID: "six"},
	}
}

func TestResolveStatusesNoLog(t *testing.T) {
	got := ResolveStatuses(sixSteps(), nil)
	for _, s := range sixSteps() {
		assert.Equal(t, StatusPending, got[s.ID])
	}
}

func TestResolveStatusesCompletedFailure(t *testing.T) {
	snap := &Snapshot{
		LogSteps:   []string{"one", "two", "three", "four"},
		Success:    false,
		FailedStep: "four",
	}
	got := ResolveStatuses(sixSteps(), snap)
	assert.Equal(t, StatusSuccess, got["one"])
	assert.Equal(t, StatusSuccess, got["two"])
	assert.Equal(t, StatusSuccess, got["three"])
	assert.Equal(t, StatusError, got["four"])
	assert.Equal(t, StatusPending, got["five"])
	assert.Equal(t, StatusPending, got["six"])
}

func TestResolveStatusesFailureWithoutLogEntry(t *testing.T) {
	// The failing step has no log entry of its own; the result's failing-step
	// identifier still marks it as the error.
	snap := &Snapshot{
		LogSteps:   []string{"one", "two", "three"},
		Success:    false,
		FailedStep: "four",
	}
	got := ResolveStatuses(sixSteps(), snap)
	assert.Equal(t, StatusSuccess, got["three"])
	assert.Equal(t, StatusError, got["four"])
	assert.Equal(t, StatusPending, got["five"])
	assert.Equal(t, StatusPending, got["six"])
}

func TestResolveStatusesInProgress(t *testing.T) {
	snap := &Snapshot{
		LogSteps:   []string{"one", "two"},
		InProgress: true,
	}
	got := ResolveStatuses(sixSteps(), snap)
	assert.Equal(t, StatusSuccess, got["one"])
	assert.Equal(t, StatusSuccess, got["two"])
	assert.Equal(t, StatusRunning, got["three"])
	assert.Equal(t, StatusPending, got["four"])
	assert.Equal(t, StatusPending, got["five"])
	assert.Equal(t, StatusPending, got["six"])
}

func TestResolveStatusesInProgressEmptyLog(t *testing.T) {
	snap := &Snapshot{InProgress: true}
	got := ResolveStatuses(sixSteps(), snap)
	assert.Equal(t, StatusRunning, got["one"])
	assert.Equal(t, StatusPending, got["two"])
}

func TestResolveStatusesCompletedSuccess(t *testing.T) {
	snap := &Snapshot{
		LogSteps: []string{"one", "two", "three", "four", "five", "six"},
		Success:  true,
	}
	got := ResolveStatuses(sixSteps(), snap)
	for _, s := range sixSteps() {
		assert.Equal(t, StatusSuccess, got[s.ID])
	}
}

func TestResolveStatusesFilteredStepStillSuccess(t *testing.T) {
	// A step that never logged but sits before the last logged step counts
	// as completed.
	snap := &Snapshot{
		LogSteps: []string{"one", "three"},
		Success:  true,
	}
	got := ResolveStatuses(sixSteps(), snap)
	assert.Equal(t, StatusSuccess, got["two"])
}

func TestResolveStatusesSyntheticErrorStep(t *testing.T) {
	steps := append(sixSteps(), Step{ID: StepError})

	failed := &Snapshot{LogSteps: []string{"one"}, Success: false, FailedStep: "two"}
	got := ResolveStatuses(steps, failed)
	assert.Equal(t, StatusError, got[StepError])

	ok := &Snapshot{LogSteps: []string{"one", "two", "three", "four", "five", "six"}, Success: true}
	got = ResolveStatuses(steps, ok)
	assert.NotEqual(t, StatusError, got[StepError])
}
