package core

import (
	"context"

	"github.com/hupe1980/unison/logging"
)

// ToolContext provides the constrained surface a tool handler sees while an
// agent executes one of its calls.
type ToolContext struct {
	runCtx *RunContext
	callID string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext
// and unique callID.
func NewToolContext(runCtx *RunContext, callID string) *ToolContext {
	return &ToolContext{
		runCtx:        runCtx,
		callID:        callID,
		loggerAdapter: runCtx.loggerAdapter.with("call_id", callID),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// CallID returns the identifier of the call being executed.
func (tc *ToolContext) CallID() string { return tc.callID }

// AgentName returns the identity of the calling agent.
func (tc *ToolContext) AgentName() string { return tc.runCtx.Agent.Name }

// AgentInfo returns the calling agent's details.
func (tc *ToolContext) AgentInfo() AgentInfo { return tc.runCtx.Agent }

// Plan returns the clan plan in scope, or nil.
func (tc *ToolContext) Plan() *Plan { return tc.runCtx.Plan() }
