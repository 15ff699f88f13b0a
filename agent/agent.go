package agent

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/logging"
	"github.com/hupe1980/unison/model"
	"github.com/hupe1980/unison/output"
	"github.com/hupe1980/unison/telemetry"
	"github.com/hupe1980/unison/tool"
)

// Defaults applied by New.
const (
	DefaultMaxTurns         = 10
	DefaultMaxParseFailures = 3
)

// Options configures an Agent.
//
// Use functional options with New to override defaults.
type Options struct {
	Description string
	// Task is the default task used when Unleash receives an empty one.
	Task  string
	Tools []tool.Tool
	// HistoryStore persists the history; nil keeps it in process only.
	HistoryStore core.HistoryStore
	// MaxTurns bounds Prompting transitions per run; 0 means unlimited.
	MaxTurns int
	// MaxParseFailures ends the run after that many consecutive turns in
	// which no call region could be parsed.
	MaxParseFailures int
	// Output receives the final answer of standalone runs.
	Output       output.Sink
	Logger       logging.Logger
	Reporter     logging.Reporter
	Instruction  Instruction
	OnTransition func(Transition)
}

// Membership attaches an agent to a clan. It is handed over once by the
// clan and read-only afterwards.
type Membership struct {
	Clan              string
	Goal              string
	SharedInstruction string
	Role              core.AgentRole
	// Roster lists every clan member, including the agent itself.
	Roster []core.AgentInfo
	// Tools are the clan built-ins added to the agent's capability set.
	Tools []tool.Tool
	// HistoryStore, when set, replaces the agent's own store.
	HistoryStore core.HistoryStore
}

// Agent is one instance of the tool-calling loop bound to an identity and
// a model backend. The model is shared, not owned.
//
// An Agent runs one task at a time; concurrent or re-entrant calls to Run
// fail with core.ErrAgentBusy.
type Agent struct {
	identity    string
	description string
	task        string
	llm         model.Model

	registry         *tool.Registry
	store            core.HistoryStore
	maxTurns         int
	maxParseFailures int
	output           output.Sink
	instruction      Instruction
	onTransition     func(Transition)

	logger      logging.Logger
	reporter    logging.Reporter
	instruments *telemetry.Instruments

	mu         sync.Mutex
	running    bool
	membership *Membership
}

// New creates an agent. identity must be non-empty and llm non-nil; the
// tool set must form a valid registry.
func New(identity string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		MaxTurns:         DefaultMaxTurns,
		MaxParseFailures: DefaultMaxParseFailures,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, core.NewError(core.CodeInvalidConfig, "", "agent identity is required")
	}
	if llm == nil {
		return nil, core.NewError(core.CodeInvalidConfig, identity, "model is required")
	}
	if opts.MaxTurns < 0 {
		return nil, core.NewError(core.CodeInvalidConfig, identity, "max turns must not be negative")
	}
	if opts.MaxParseFailures <= 0 {
		opts.MaxParseFailures = DefaultMaxParseFailures
	}

	registry, err := tool.NewRegistry(opts.Tools...)
	if err != nil {
		return nil, core.WrapError(core.CodeInvalidConfig, identity, err)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Reporter == nil {
		opts.Reporter = logging.NoOpReporter{}
	}

	return &Agent{
		identity:         identity,
		description:      opts.Description,
		task:             opts.Task,
		llm:              llm,
		registry:         registry,
		store:            opts.HistoryStore,
		maxTurns:         opts.MaxTurns,
		maxParseFailures: opts.MaxParseFailures,
		output:           opts.Output,
		instruction:      opts.Instruction,
		onTransition:     opts.OnTransition,
		logger:           opts.Logger,
		reporter:         opts.Reporter,
		instruments:      telemetry.NewInstruments(),
	}, nil
}

// Must is a helper that wraps a call to New and panics if the error is non-nil.
func Must(a *Agent, err error) *Agent {
	if err != nil {
		panic(err)
	}
	return a
}

// Identity returns the agent's name.
func (a *Agent) Identity() string { return a.identity }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Task returns the default task.
func (a *Agent) Task() string { return a.task }

// Model returns the backend the agent prompts.
func (a *Agent) Model() model.Model { return a.llm }

// Info returns the agent's details as seen by collaborators.
func (a *Agent) Info() core.AgentInfo {
	role := core.RoleIndividual
	if m := a.Membership(); m != nil {
		role = m.Role
	}
	return core.AgentInfo{Name: a.identity, Description: a.description, Role: role}
}

// Tools returns the capability set, including clan built-ins once joined.
func (a *Agent) Tools() *tool.Registry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry
}

// Membership returns the clan membership, or nil for a standalone agent.
func (a *Agent) Membership() *Membership {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.membership
}

// HistoryStore returns the store the agent's history is persisted to.
func (a *Agent) HistoryStore() core.HistoryStore {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store
}

// Join attaches the agent to a clan. An agent joins at most one clan.
func (a *Agent) Join(m Membership) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.membership != nil {
		return fmt.Errorf("agent %s already belongs to clan %s", a.identity, a.membership.Clan)
	}
	if a.running {
		return core.NewError(core.CodeAgentBusy, a.identity, "cannot join a clan while running")
	}
	if m.Role != core.RoleManager && m.Role != core.RoleMember {
		return errors.New("clan role must be manager or member")
	}

	registry, err := a.registry.Extend(m.Tools...)
	if err != nil {
		return core.WrapError(core.CodeInvalidConfig, a.identity, err)
	}

	roster := make([]core.AgentInfo, len(m.Roster))
	copy(roster, m.Roster)
	m.Roster = roster
	m.Tools = nil

	a.registry = registry
	if m.HistoryStore != nil {
		a.store = m.HistoryStore
	}
	a.membership = &m
	a.logger.Debug("agent.clan.joined", "agent", a.identity, "clan", m.Clan, "role", string(m.Role))
	return nil
}

func (a *Agent) acquire() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return core.NewError(core.CodeAgentBusy, a.identity, "agent is already running")
	}
	a.running = true
	return nil
}

func (a *Agent) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
}
