package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies tracers and meters created by this module.
const InstrumentationName = "github.com/hupe1980/unison"

// Attribute keys used on spans and metrics.
const (
	AttrAgent      = "unison.agent.identity"
	AttrAgentRole  = "unison.agent.role"
	AttrRunID      = "unison.agent.run_id"
	AttrTurn       = "unison.agent.turn"
	AttrMaxTurns   = "unison.agent.max_turns"
	AttrState      = "unison.agent.state"
	AttrModel      = "gen_ai.request.model"
	AttrProvider   = "gen_ai.system"
	AttrToolName   = "unison.tool.name"
	AttrToolCallID = "unison.tool.call_id"
	AttrSuccess    = "unison.tool.success"
	AttrClan       = "unison.clan.name"
	AttrPlanSteps  = "unison.clan.plan_steps"
	AttrErrorCode  = "unison.error.code"
)

// Instruments bundles the tracer and counters used by agent loops.
type Instruments struct {
	Tracer trace.Tracer

	turns         metric.Int64Counter
	toolCalls     metric.Int64Counter
	toolFailures  metric.Int64Counter
	parseFailures metric.Int64Counter
	runs          metric.Int64Counter
}

// NewInstruments creates instruments from the global providers. Instrument
// creation errors fall back to no-op instruments.
func NewInstruments() *Instruments {
	meter := otel.Meter(InstrumentationName)
	in := &Instruments{Tracer: otel.Tracer(InstrumentationName)}

	in.turns, _ = meter.Int64Counter("unison.agent.turns",
		metric.WithDescription("Prompting transitions across all agent runs"))
	in.toolCalls, _ = meter.Int64Counter("unison.tool.calls",
		metric.WithDescription("Executed tool calls"))
	in.toolFailures, _ = meter.Int64Counter("unison.tool.failures",
		metric.WithDescription("Tool calls that returned an unsuccessful result"))
	in.parseFailures, _ = meter.Int64Counter("unison.tool.parse_failures",
		metric.WithDescription("Tool call regions that could not be parsed"))
	in.runs, _ = meter.Int64Counter("unison.agent.runs",
		metric.WithDescription("Finished agent runs by outcome"))
	return in
}

// Turn counts one Prompting transition.
func (in *Instruments) Turn(ctx context.Context, agent string) {
	if in.turns != nil {
		in.turns.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrAgent, agent)))
	}
}

// ToolCall counts one executed tool call.
func (in *Instruments) ToolCall(ctx context.Context, agent, tool string, success bool) {
	attrs := metric.WithAttributes(
		attribute.String(AttrAgent, agent),
		attribute.String(AttrToolName, tool),
	)
	if in.toolCalls != nil {
		in.toolCalls.Add(ctx, 1, attrs)
	}
	if !success && in.toolFailures != nil {
		in.toolFailures.Add(ctx, 1, attrs)
	}
}

// ParseFailure counts one unparsable call region.
func (in *Instruments) ParseFailure(ctx context.Context, agent string) {
	if in.parseFailures != nil {
		in.parseFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrAgent, agent)))
	}
}

// RunFinished counts one finished run; code is empty on success.
func (in *Instruments) RunFinished(ctx context.Context, agent, code string) {
	if in.runs == nil {
		return
	}
	outcome := code
	if outcome == "" {
		outcome = "OK"
	}
	in.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrAgent, agent),
		attribute.String(AttrErrorCode, outcome),
	))
}
