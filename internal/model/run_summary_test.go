package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSummaryRecordCounters(t *testing.T) {
	t.Parallel()

	summary := &RunSummary{TotalSteps: 6}
	summary.Record(StepResult{StepID: "a", Status: StatusSatisfied})
	summary.Record(StepResult{StepID: "b", Status: StatusApplied})
	summary.Record(StepResult{StepID: "c", Status: StatusAppliedFallback})
	summary.Record(StepResult{StepID: "d", Status: StatusWarning})
	summary.Record(StepResult{StepID: "e", Status: StatusWouldApply})

	require.Equal(t, 1, summary.Satisfied)
	require.Equal(t, 1, summary.Applied)
	require.Equal(t, 1, summary.Fallback)
	require.Equal(t, 1, summary.Warnings)
	require.Equal(t, 1, summary.WouldApply)
	require.True(t, summary.Success())
	require.Equal(t, "success", summary.Status())
}

func TestRunSummaryFatalFailure(t *testing.T) {
	t.Parallel()

	summary := &RunSummary{}
	summary.Record(StepResult{StepID: "docker", Status: StatusFailed})

	require.False(t, summary.Success())
	require.Equal(t, "failed-at-step(docker)", summary.Status())
}

func TestStepResultChanged(t *testing.T) {
	t.Parallel()

	require.True(t, StepResult{Status: StatusApplied}.Changed())
	require.True(t, StepResult{Status: StatusAppliedFallback}.Changed())
	require.False(t, StepResult{Status: StatusSatisfied}.Changed())
	require.False(t, StepResult{Status: StatusWarning}.Changed())
	require.False(t, StepResult{Status: StatusWouldApply}.Changed())
}
