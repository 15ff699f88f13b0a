package clan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/unison/agent"
	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/internal/util"
	"github.com/hupe1980/unison/logging"
	"github.com/hupe1980/unison/model"
	"github.com/hupe1980/unison/output"
	"github.com/hupe1980/unison/telemetry"
	"github.com/hupe1980/unison/tool"
)

// Options configures a Clan.
type Options struct {
	SharedInstruction string
	// HistoryStore replaces every member's own store when set.
	HistoryStore core.HistoryStore
	// Output receives the clan's final answer. A FileSink is truncated when
	// the clan is created.
	Output   output.Sink
	Prompter Prompter
	Logger   logging.Logger
	Reporter logging.Reporter
	// RecoverUnknownAgent feeds unknown recipients back to the sending
	// model as a failed tool result instead of ending the run.
	RecoverUnknownAgent bool
}

// Clan is a manager and its members working on one goal.
type Clan struct {
	name              string
	goal              string
	sharedInstruction string
	manager           *agent.Agent
	members           []*agent.Agent
	directory         *Directory
	roster            []core.AgentInfo

	output              output.Sink
	prompter            Prompter
	recoverUnknownAgent bool

	logger   logging.Logger
	reporter logging.Reporter
	tracer   trace.Tracer
}

// Result is the outcome of a clan run.
type Result struct {
	Plan   *core.Plan
	Answer string
	// Turns is the number of turns the manager took.
	Turns int
}

// New wires manager and members into a clan. members must contain the
// manager and every identity must be unique, ignoring case. Agents join
// the clan here and cannot join another one afterwards.
func New(name, goal string, manager *agent.Agent, members []*agent.Agent, optFns ...func(o *Options)) (*Clan, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if sl, ok := opts.Logger.(*logging.StructuredLogger); ok && sl != nil {
		opts.Logger = sl.WithComponent("clan")
	}
	if opts.Reporter == nil {
		opts.Reporter = logging.NoOpReporter{}
	}
	if opts.Prompter == nil {
		opts.Prompter = NewConsolePrompter(nil, nil)
	}

	name = strings.TrimSpace(name)
	goal = strings.TrimSpace(goal)
	if name == "" {
		return nil, core.NewError(core.CodeInvalidConfig, "", "clan name is required")
	}
	if goal == "" {
		return nil, core.NewError(core.CodeInvalidConfig, "", "clan goal is required")
	}
	if manager == nil {
		return nil, core.NewError(core.CodeInvalidConfig, "", "clan manager is required")
	}

	seen := make(map[string]bool, len(members))
	hasManager := false
	for _, m := range members {
		if m == nil {
			return nil, core.NewError(core.CodeInvalidConfig, "", "clan member must not be nil")
		}
		key := strings.ToLower(m.Identity())
		if seen[key] {
			return nil, core.NewError(core.CodeInvalidConfig, "", fmt.Sprintf("duplicate member identity %q", m.Identity()))
		}
		seen[key] = true
		if ms := m.Membership(); ms != nil {
			return nil, core.NewError(core.CodeInvalidConfig, "", fmt.Sprintf("%s already belongs to clan %s", m.Identity(), ms.Clan))
		}
		if m == manager {
			hasManager = true
		}
	}
	if !hasManager {
		return nil, core.NewError(core.CodeInvalidConfig, "", fmt.Sprintf("manager %q must be a clan member", manager.Identity()))
	}

	c := &Clan{
		name:                name,
		goal:                goal,
		sharedInstruction:   strings.TrimSpace(opts.SharedInstruction),
		manager:             manager,
		members:             append([]*agent.Agent(nil), members...),
		directory:           newDirectory(manager, members),
		output:              opts.Output,
		prompter:            opts.Prompter,
		recoverUnknownAgent: opts.RecoverUnknownAgent,
		logger:              opts.Logger,
		reporter:            opts.Reporter,
		tracer:              telemetry.NewInstruments().Tracer,
	}

	c.roster = make([]core.AgentInfo, len(members))
	for i, m := range members {
		info := m.Info()
		info.Role = core.RoleMember
		if m == manager {
			info.Role = core.RoleManager
		}
		c.roster[i] = info
	}

	// Every member must accept the clan tools before anyone joins.
	builtins := make([][]tool.Tool, len(members))
	for i, m := range members {
		tools := []tool.Tool{c.sendMessageTool(m.Identity()), tool.NewPassResultTool()}
		if c.roster[i].Role == core.RoleManager {
			tools = append(tools, c.askUserTool())
		}
		if _, err := m.Tools().Extend(tools...); err != nil {
			return nil, core.WrapError(core.CodeInvalidConfig, m.Identity(), fmt.Errorf("clan %s: %w", name, err))
		}
		builtins[i] = tools
	}

	if fs, ok := opts.Output.(*output.FileSink); ok {
		if err := output.Truncate(fs.Path); err != nil {
			return nil, core.WrapError(core.CodeInvalidConfig, "", err)
		}
	}

	for i, m := range members {
		err := m.Join(agent.Membership{
			Clan:              name,
			Goal:              goal,
			SharedInstruction: c.sharedInstruction,
			Role:              c.roster[i].Role,
			Roster:            c.roster,
			Tools:             builtins[i],
			HistoryStore:      opts.HistoryStore,
		})
		if err != nil {
			return nil, fmt.Errorf("clan %s: %s cannot join: %w", name, m.Identity(), err)
		}
	}

	c.logger.Info("clan.created", "clan", name, "manager", manager.Identity(), "members", len(members))
	return c, nil
}

// Must is a helper that wraps a call to New and panics if the error is non-nil.
func Must(c *Clan, err error) *Clan {
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the clan name.
func (c *Clan) Name() string { return c.name }

// Goal returns the shared goal.
func (c *Clan) Goal() string { return c.goal }

// Manager returns the coordinating agent.
func (c *Clan) Manager() *agent.Agent { return c.manager }

// Members returns every member, manager included.
func (c *Clan) Members() []*agent.Agent {
	return append([]*agent.Agent(nil), c.members...)
}

// Roster returns the members as seen by each other.
func (c *Clan) Roster() []core.AgentInfo {
	return append([]core.AgentInfo(nil), c.roster...)
}

// Directory returns the resolver used by send_message.
func (c *Clan) Directory() *Directory { return c.directory }

var planPrompt = util.MustParseTemplate("plan", `You are {{.Manager}}, the manager of the clan "{{.Clan}}".
Break the goal below into a short ordered list of concrete steps and assign every step to the member best suited for it.

## Members
{{- range .Members}}
- {{.Name}}{{if .Description}}: {{.Description}}{{end}}{{if eq .Role "manager"}} (manager){{end}}
{{- end}}
{{- if .SharedInstruction}}

## Shared instructions
{{.SharedInstruction}}
{{- end}}

## Goal
{{.Goal}}

Answer with a numbered list only, one step per line, ending each step with the assignee in brackets:
1. <step description> [<member name>]

Do not call any tools.`)

// Plan asks the manager's model for a plan. The model is reset before and
// after the call; no tool regions are parsed.
func (c *Clan) Plan(ctx context.Context) (*core.Plan, error) {
	ctx, span := c.tracer.Start(ctx, "clan.plan", trace.WithAttributes(
		attribute.String(telemetry.AttrClan, c.name),
	))
	defer span.End()

	prompt, err := planPrompt.Render(map[string]any{
		"Manager":           c.manager.Identity(),
		"Clan":              c.name,
		"Members":           c.roster,
		"SharedInstruction": c.sharedInstruction,
		"Goal":              c.goal,
	})
	if err != nil {
		return nil, core.WrapError(core.CodePlanningFailed, c.manager.Identity(), err)
	}

	llm := c.manager.Model()
	llm.Reset()
	defer llm.Reset()

	c.logger.Info("clan.plan.start", "clan", c.name, "manager", c.manager.Identity())
	start := time.Now()
	text, err := llm.Run(ctx, model.Request{Messages: []core.Message{core.NewMessage(core.RoleUser, prompt)}})
	logging.LogModelCall(c.logger, llm.Info().Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		return nil, &core.Error{
			Code:    core.CodePlanningFailed,
			Agent:   c.manager.Identity(),
			Message: "planning call failed",
			Err:     core.WrapError(core.CodeModelBackend, c.manager.Identity(), err),
		}
	}

	plan, err := ParsePlan(c.goal, text, c.roster)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		c.logger.Error("clan.plan.failed", "clan", c.name, "error", err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int(telemetry.AttrPlanSteps, plan.Len()))
	c.logger.Info("clan.plan.ready", "clan", c.name, "steps", plan.Len())
	c.reporter.Thought(c.name, "Plan:\n"+plan.String())
	return plan, nil
}

// Run plans, then runs the manager on the goal with the plan in scope. The
// manager's final answer is the clan's answer.
func (c *Clan) Run(ctx context.Context) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "clan.unleash", trace.WithAttributes(
		attribute.String(telemetry.AttrClan, c.name),
		attribute.String(telemetry.AttrAgent, c.manager.Identity()),
	))
	defer span.End()

	c.reporter.TaskStarted(c.name, c.goal)

	plan, err := c.Plan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		return nil, err
	}

	res, err := c.manager.Run(core.WithPlan(ctx, plan), c.goal)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("clan.run.failed", "clan", c.name, "error", err.Error())
		out := &Result{Plan: plan}
		if res != nil {
			out.Answer = res.Answer
			out.Turns = res.Turns
		}
		return out, err
	}

	if c.output != nil {
		if err := c.output.Write(ctx, res.Answer); err != nil {
			c.logger.Error("clan.output.failed", "clan", c.name, "error", err.Error())
		}
	}
	c.reporter.Answer(c.name, res.Answer)
	c.logger.Info("clan.run.done", "clan", c.name, "turns", res.Turns)
	span.SetStatus(codes.Ok, "")

	return &Result{Plan: plan, Answer: res.Answer, Turns: res.Turns}, nil
}

// Unleash runs the clan and returns its answer.
func (c *Clan) Unleash(ctx context.Context) (string, error) {
	res, err := c.Run(ctx)
	if res == nil {
		return "", err
	}
	return res.Answer, err
}
