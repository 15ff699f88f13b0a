package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_RenumbersAndDropsBlankSteps(t *testing.T) {
	plan, err := NewPlan("ship it", []PlanStep{
		{Index: 7, Description: "  research  ", Assignee: " Researcher "},
		{Description: "   "},
		{Index: 2, Description: "write"},
	}, "raw text")
	require.NoError(t, err)

	steps := plan.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, PlanStep{Index: 1, Description: "research", Assignee: "Researcher"}, steps[0])
	assert.Equal(t, PlanStep{Index: 2, Description: "write"}, steps[1])
	assert.Equal(t, "ship it", plan.Goal())
	assert.Equal(t, "raw text", plan.Raw())
	assert.Equal(t, "1. research (assignee: Researcher)\n2. write", plan.String())
}

func TestNewPlan_EmptyFails(t *testing.T) {
	_, err := NewPlan("goal", nil, "")
	assert.ErrorIs(t, err, ErrPlanningFailed)
}

func TestPlan_StepsCopyOnRead(t *testing.T) {
	plan, err := NewPlan("goal", []PlanStep{{Description: "a"}}, "")
	require.NoError(t, err)

	steps := plan.Steps()
	steps[0].Description = "changed"

	assert.Equal(t, "a", plan.Steps()[0].Description)
}

func TestPlanContext(t *testing.T) {
	assert.Nil(t, PlanFromContext(context.Background()))

	plan, err := NewPlan("goal", []PlanStep{{Description: "a"}}, "")
	require.NoError(t, err)

	ctx := WithPlan(context.Background(), plan)
	assert.Same(t, plan, PlanFromContext(ctx))
}
