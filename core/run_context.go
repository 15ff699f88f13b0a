package core

import (
	"context"

	"github.com/hupe1980/unison/logging"
)

// RunContext carries the execution scope of a single agent run: the ambient
// cancellation Context, identifiers, the owned History and the turn budget.
// One RunContext exists per Unleash call and is never shared between agents.
type RunContext struct {
	Context context.Context
	RunID   string
	Agent   AgentInfo
	Task    string
	History *History
	Limiter *TurnLimiter

	*loggerAdapter
}

// NewRunContext constructs a RunContext. maxTurns == 0 means unlimited.
func NewRunContext(
	ctx context.Context,
	runID string,
	agent AgentInfo,
	task string,
	history *History,
	maxTurns int,
	logger logging.Logger,
) *RunContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if history == nil {
		history = NewHistory(agent.Name, nil, logger)
	}
	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Agent:         agent,
		Task:          task,
		History:       history,
		Limiter:       NewTurnLimiter(maxTurns),
		loggerAdapter: newRunLoggerAdapter(logger, agent.Name, runID),
	}
}

// Plan returns the clan plan in scope for this run, or nil outside a clan.
func (rc *RunContext) Plan() *Plan { return PlanFromContext(rc.Context) }

// Append records a message in the run's history.
func (rc *RunContext) Append(role Role, content string) Message {
	return rc.History.Append(rc.Context, role, content)
}
