package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolContext_NoPlanOutsideClan(t *testing.T) {
	rc := NewRunContext(context.Background(), "run", AgentInfo{Name: "solo"}, "", nil, 0, nil)
	tc := NewToolContext(rc, "c")

	assert.Nil(t, tc.Plan())
	assert.Equal(t, context.Background(), tc.Context())
}
