package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/logging"
	"github.com/hupe1980/unison/telemetry"
	"github.com/hupe1980/unison/tool"
)

// Result is the outcome of one run.
type Result struct {
	RunID  string
	Answer string
	// Turns is the number of Prompting transitions taken.
	Turns int
	State State
	// Partial is set when the turn budget ran out; Answer then holds the
	// best text produced so far.
	Partial bool
}

// Unleash runs task and returns the final answer. On a turn limit the
// partial answer is returned together with the error.
func (a *Agent) Unleash(ctx context.Context, task string) (string, error) {
	res, err := a.Run(ctx, task)
	if res == nil {
		return "", err
	}
	return res.Answer, err
}

// Run executes one task to completion. An empty task falls back to the
// default task; if both are empty core.ErrEmptyTask is returned and the
// history is left untouched.
func (a *Agent) Run(ctx context.Context, task string) (*Result, error) {
	task, err := a.resolveTask(task)
	if err != nil {
		return nil, err
	}
	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	history := core.LoadHistory(ctx, a.HistoryStore(), a.identity, a.logger)
	return a.run(ctx, task, history)
}

// RunTasks executes tasks in order against the same history. It stops at
// the first error and returns the results collected so far. An empty list
// only restores the history.
func (a *Agent) RunTasks(ctx context.Context, tasks []string) ([]*Result, error) {
	if err := a.acquire(); err != nil {
		return nil, err
	}
	defer a.release()

	history := core.LoadHistory(ctx, a.HistoryStore(), a.identity, a.logger)

	results := make([]*Result, 0, len(tasks))
	for _, t := range tasks {
		task, err := a.resolveTask(t)
		if err != nil {
			return results, err
		}
		res, err := a.run(ctx, task, history)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (a *Agent) resolveTask(task string) (string, error) {
	if t := strings.TrimSpace(task); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(a.task); t != "" {
		return t, nil
	}
	return "", core.NewError(core.CodeEmptyTask, a.identity, "no task given and no default task configured")
}

// runState is the mutable state of one run.
type runState struct {
	agent         *Agent
	rc            *core.RunContext
	reg           *tool.Registry
	system        string
	state         State
	parseFailures int
	partial       string
}

type stepOutcome int

const (
	stepContinue stepOutcome = iota
	stepAnswer
)

func (a *Agent) run(ctx context.Context, task string, history *core.History) (*Result, error) {
	runID := uuid.NewString()
	info := a.Info()

	ctx, span := a.instruments.Tracer.Start(ctx, "agent.unleash", trace.WithAttributes(
		attribute.String(telemetry.AttrAgent, a.identity),
		attribute.String(telemetry.AttrAgentRole, string(info.Role)),
		attribute.String(telemetry.AttrRunID, runID),
		attribute.Int(telemetry.AttrMaxTurns, a.maxTurns),
		attribute.String(telemetry.AttrModel, a.llm.Info().Name),
	))
	defer span.End()

	rs := &runState{
		agent: a,
		rc:    core.NewRunContext(ctx, runID, info, task, history, a.maxTurns, a.logger),
		reg:   a.Tools(),
		state: StateIdle,
	}

	system, err := a.systemPrompt(rs.rc)
	if err != nil {
		return rs.fail(span, fmt.Errorf("render instructions: %w", err))
	}
	rs.system = system

	a.llm.Reset()
	rs.rc.Append(core.RoleUser, task)
	a.reporter.TaskStarted(a.identity, task)
	rs.rc.LogInfo("agent.run.start", "role", string(info.Role), "max_turns", a.maxTurns)

	for {
		if err := ctx.Err(); err != nil {
			return rs.fail(span, err)
		}

		if err := rs.rc.Limiter.Increment(); err != nil {
			limitErr := &core.Error{
				Code:    core.CodeTurnLimitExceeded,
				Agent:   a.identity,
				Message: fmt.Sprintf("exceeded max turns: %d", a.maxTurns),
				Partial: rs.partial,
				Err:     err,
			}
			res, _ := rs.fail(span, limitErr)
			res.Answer = rs.partial
			res.Partial = true
			return res, limitErr
		}

		outcome, answer, err := rs.step(ctx)
		if err != nil {
			return rs.fail(span, err)
		}
		if outcome == stepAnswer {
			return rs.succeed(span, answer), nil
		}
	}
}

// step performs one Prompting transition and whatever follows it until the
// loop either prompts again or finishes.
func (rs *runState) step(ctx context.Context) (stepOutcome, string, error) {
	a := rs.agent
	turn := rs.rc.Limiter.Count()

	ctx, span := a.instruments.Tracer.Start(ctx, "agent.turn", trace.WithAttributes(
		attribute.String(telemetry.AttrAgent, a.identity),
		attribute.Int(telemetry.AttrTurn, turn),
	))
	defer span.End()

	parent := rs.rc.Context
	rs.rc.Context = ctx
	defer func() { rs.rc.Context = parent }()

	rs.transition(StatePrompting, turn)
	a.instruments.Turn(ctx, a.identity)

	start := time.Now()
	output, err := a.llm.Run(ctx, a.request(rs.rc, rs.system))
	logging.LogModelCall(a.logger, a.llm.Info().Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return stepContinue, "", core.WrapError(core.CodeModelBackend, a.identity, err)
	}

	rs.rc.Append(core.RoleAssistant, output)
	for _, thought := range Thoughts(output) {
		a.reporter.Thought(a.identity, thought)
	}

	body := StripThink(output)
	if visible := strings.TrimSpace(tool.StripCalls(body)); visible != "" {
		rs.partial = visible
	}

	rs.transition(StateParsing, turn)
	regions := tool.ExtractCalls(body)

	if len(regions) == 0 {
		if tool.HasCallSyntax(body) {
			rs.rc.Append(core.RoleTool, "Error: unterminated <tool> region. Close every call with </tool> and try again.")
			logging.LogTurn(a.logger, turn, 0, false)
			return stepContinue, "", rs.parseFailure(ctx)
		}
		logging.LogTurn(a.logger, turn, 0, true)
		return stepAnswer, body, nil
	}

	calls := make([]tool.Call, len(regions))
	errs := make([]error, len(regions))
	failed := 0
	for i, raw := range regions {
		calls[i], errs[i] = tool.Parse(raw, rs.reg)
		if errs[i] != nil {
			failed++
			rs.rc.LogDebug("agent.parse.error", "turn", turn, "region", raw, "error", errs[i].Error())
		}
	}

	if failed == len(regions) {
		for i, raw := range regions {
			rs.rc.Append(core.RoleTool, parseErrorMessage(raw, errs[i]))
		}
		logging.LogTurn(a.logger, turn, len(regions), false)
		return stepContinue, "", rs.parseFailure(ctx)
	}
	rs.parseFailures = 0

	rs.transition(StateExecuting, turn)
	for i, raw := range regions {
		if errs[i] != nil {
			rs.rc.Append(core.RoleTool, parseErrorMessage(raw, errs[i]))
			continue
		}

		res := rs.execute(calls[i])
		rs.rc.Append(core.RoleTool, toolMessage(raw, res))

		if res.IsFinal() {
			logging.LogTurn(a.logger, turn, i+1, true)
			return stepAnswer, tool.FormatValue(res.Value), nil
		}
		if err := res.Err(); core.IsTerminal(err) {
			span.RecordError(err)
			var coded *core.Error
			if errors.As(err, &coded) {
				err = coded
			}
			return stepContinue, "", err
		}
	}
	logging.LogTurn(a.logger, turn, len(regions), false)
	return stepContinue, "", nil
}

// execute runs one call under its own span. rc.Context points at the tool
// span while the handler runs so nested runs attach to it.
func (rs *runState) execute(call tool.Call) tool.Result {
	a := rs.agent
	ctx, span := a.instruments.Tracer.Start(rs.rc.Context, "agent.tool", trace.WithAttributes(
		attribute.String(telemetry.AttrAgent, a.identity),
		attribute.String(telemetry.AttrToolName, call.Name),
		attribute.String(telemetry.AttrToolCallID, call.ID),
	))
	defer span.End()

	parent := rs.rc.Context
	rs.rc.Context = ctx
	res := tool.Invoke(core.NewToolContext(rs.rc, call.ID), call, rs.reg)
	rs.rc.Context = parent

	span.SetAttributes(attribute.Bool(telemetry.AttrSuccess, res.Success))
	if !res.Success {
		span.SetStatus(codes.Error, res.ErrorMessage)
	}
	a.instruments.ToolCall(ctx, a.identity, call.Name, res.Success)
	a.reporter.ToolCalled(a.identity, call.String(), res.Text(), res.Success)
	return res
}

func (rs *runState) parseFailure(ctx context.Context) error {
	a := rs.agent
	rs.parseFailures++
	a.instruments.ParseFailure(ctx, a.identity)
	rs.rc.LogWarn("agent.parse.failed", "consecutive", rs.parseFailures, "max", a.maxParseFailures)
	if rs.parseFailures >= a.maxParseFailures {
		return core.NewError(core.CodeUnrecoverableParseError, a.identity,
			fmt.Sprintf("%d consecutive turns without a parseable tool call", rs.parseFailures))
	}
	return nil
}

func (rs *runState) transition(to State, turn int) {
	a := rs.agent
	from := rs.state
	rs.state = to
	rs.rc.LogDebug("agent.state", "turn", turn, "from", from.String(), "to", to.String())
	if a.onTransition != nil {
		a.onTransition(Transition{Agent: a.identity, RunID: rs.rc.RunID, Turn: turn, From: from, To: to})
	}
}

func (rs *runState) result() *Result {
	return &Result{RunID: rs.rc.RunID, Turns: rs.rc.Limiter.Count(), State: rs.state}
}

func (rs *runState) succeed(span trace.Span, answer string) *Result {
	a := rs.agent
	rs.transition(StateDone, rs.rc.Limiter.Count())

	if a.output != nil {
		if err := a.output.Write(rs.rc.Context, answer); err != nil {
			rs.rc.LogError("agent.output.failed", "error", err.Error())
		}
	}
	a.reporter.Answer(a.identity, answer)
	a.instruments.RunFinished(rs.rc.Context, a.identity, "")
	rs.rc.LogInfo("agent.run.done", "turns", rs.rc.Limiter.Count())

	span.SetStatus(codes.Ok, "")
	res := rs.result()
	res.Answer = answer
	return res
}

func (rs *runState) fail(span trace.Span, err error) (*Result, error) {
	a := rs.agent
	rs.transition(StateDone, rs.rc.Limiter.Count())

	code := "error"
	if c, ok := core.CodeOf(err); ok {
		code = string(c)
	}
	a.instruments.RunFinished(rs.rc.Context, a.identity, code)
	rs.rc.LogError("agent.run.failed", "code", code, "error", err.Error())

	span.RecordError(err)
	span.SetAttributes(attribute.String(telemetry.AttrErrorCode, code))
	span.SetStatus(codes.Error, code)
	return rs.result(), err
}

func toolMessage(raw string, res tool.Result) string {
	raw = strings.TrimSpace(raw)
	if !res.Success {
		return fmt.Sprintf("Tool `%s` failed:\n%s", raw, res.Text())
	}
	return fmt.Sprintf("Tool `%s` returned:\n%s", raw, res.Text())
}

func parseErrorMessage(raw string, err error) string {
	return fmt.Sprintf("Tool call `%s` could not be parsed:\nError: %s", strings.TrimSpace(raw), err.Error())
}
