package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepform/internal/domain/form"
)

func TestPlanThrough(t *testing.T) {
	existing := []form.ThroughRow{
		{ID: "join-3", ToID: "person-3"},
		{ID: "join-4", ToID: "person-4"},
	}
	submitted := []form.LinkRow{
		{ToID: "person-5", Payload: map[string]any{"role": "editor"}},
		{ToID: "person-7", ThroughID: "join-3", Payload: map[string]any{"role": "viewer"}},
	}

	plan := PlanThrough(existing, submitted)

	// join-3 survives with a fresh payload, person-5 is new, and join-4
	// disappeared from the submission so it gets deleted.
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "join-3", plan.Updates[0].ID)
	assert.Equal(t, map[string]any{"role": "viewer"}, plan.Updates[0].Payload)

	require.Len(t, plan.Creates, 1)
	assert.Equal(t, "person-5", plan.Creates[0].ToID)

	assert.Equal(t, []string{"join-4"}, plan.Deletes)
}

func TestPlanThrough_UnknownThroughIDCreates(t *testing.T) {
	submitted := []form.LinkRow{
		{ToID: "person-1", ThroughID: "stale-join", Payload: map[string]any{"role": "editor"}},
	}

	plan := PlanThrough(nil, submitted)

	// A through_id that matches nothing means the join row is gone; the
	// submission still carries a valid target, so the row is re-created.
	assert.Empty(t, plan.Updates)
	require.Len(t, plan.Creates, 1)
	assert.Equal(t, "person-1", plan.Creates[0].ToID)
}

func TestPlanThrough_RowsWithoutTargetSkipped(t *testing.T) {
	submitted := []form.LinkRow{
		{ToID: "", Payload: map[string]any{}},
	}

	plan := PlanThrough(nil, submitted)
	assert.True(t, plan.Empty())
}

func TestPlanThrough_EmptySubmissionDeletesAll(t *testing.T) {
	existing := []form.ThroughRow{
		{ID: "join-1"},
		{ID: "join-2"},
	}

	plan := PlanThrough(existing, nil)
	assert.Equal(t, []string{"join-1", "join-2"}, plan.Deletes)
}

func TestPlanThrough_SameThroughIDTwice(t *testing.T) {
	existing := []form.ThroughRow{{ID: "join-1"}}
	submitted := []form.LinkRow{
		{ToID: "person-1", ThroughID: "join-1"},
		{ToID: "person-2", ThroughID: "join-1"},
	}

	plan := PlanThrough(existing, submitted)

	// The first claim wins the update; the duplicate falls through to a
	// create since the join row is already taken.
	require.Len(t, plan.Updates, 1)
	require.Len(t, plan.Creates, 1)
	assert.Equal(t, "person-2", plan.Creates[0].ToID)
	assert.Empty(t, plan.Deletes)
}
