package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsForVariants(t *testing.T) {
	res := StepsFor(ModeReservation)
	require.Equal(t, 8, len(res))
	assert.Equal(t, StepParsingPayload, res[0].ID)
	assert.Equal(t, StepGettingSchedule, res[1].ID)
	assert.Equal(t, StepSuccess, res[len(res)-1].ID)

	pre := StepsFor(ModePreflight)
	ids := stepIDs(pre)
	assert.NotContains(t, ids, StepMakingReservation)
	assert.NotContains(t, ids, StepGettingSchedule)
	assert.Equal(t, StepSuccess, ids[len(ids)-1])

	test := StepsFor(ModeTest)
	assert.Contains(t, stepIDs(test), StepTestMode)
	assert.NotContains(t, stepIDs(test), StepGettingSchedule)
}

func TestVisibleStepsDropsScheduleLookupInTestMode(t *testing.T) {
	log := []string{StepParsingPayload, StepTestMode, StepGettingRefreshToken}
	ids := stepIDs(VisibleSteps(log))
	assert.NotContains(t, ids, StepGettingSchedule)
	assert.Contains(t, ids, StepTestMode)
}

func TestVisibleStepsDefault(t *testing.T) {
	log := []string{StepParsingPayload, StepGettingSchedule}
	ids := stepIDs(VisibleSteps(log))
	assert.Contains(t, ids, StepGettingSchedule)
	assert.NotContains(t, ids, StepTestMode)

	// No log at all: full reservation catalog.
	assert.Equal(t, stepIDs(StepsFor(ModeReservation)), stepIDs(VisibleSteps(nil)))
}

func TestSkippedSteps(t *testing.T) {
	log := []string{StepParsingPayload, StepTestMode}
	skipped := SkippedSteps(log)
	require.Len(t, skipped, 1)
	assert.Equal(t, StepGettingSchedule, skipped[0].ID)

	assert.Empty(t, SkippedSteps([]string{StepParsingPayload}))
}

func stepIDs(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}
