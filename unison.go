// Package unison assembles agents and clans into a runnable system.
//
// Most applications either build agents directly with the agent and clan
// packages, or describe them in a configuration file and call FromConfig:
//
//	cfg, err := config.Load("unison.yaml")
//	u, err := unison.FromConfig(cfg, weatherTool)
//	defer u.Close(ctx)
//	answer, err := u.Run(ctx, "")
//
// The façade owns the shared history store, the logger and the telemetry
// providers it created, and releases them in Close.
package unison

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/unison/agent"
	"github.com/hupe1980/unison/clan"
	"github.com/hupe1980/unison/config"
	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/history"
	"github.com/hupe1980/unison/logging"
	"github.com/hupe1980/unison/model"
	"github.com/hupe1980/unison/model/anthropic"
	"github.com/hupe1980/unison/model/openai"
	"github.com/hupe1980/unison/output"
	"github.com/hupe1980/unison/telemetry"
	"github.com/hupe1980/unison/tool"
)

// Version is reported as the telemetry service version.
const Version = "0.1.0"

// ServiceName is reported as the telemetry service name.
const ServiceName = "unison"

// Options configures the Unison instance.
type Options struct {
	// HistoryStore is shared by every agent created through the instance
	// (defaults to an in-memory store).
	HistoryStore core.HistoryStore
	// Logger (defaults to NoOp logger if nil)
	Logger   logging.Logger
	Reporter logging.Reporter
	// Prompter answers ask_user calls (defaults to the console).
	Prompter clan.Prompter
}

// Unison is the high-level façade over agents, an optional clan and the
// services they share.
type Unison struct {
	opts    Options
	agents  map[string]*agent.Agent
	order   []string
	clan    *clan.Clan
	closers []func(context.Context) error
}

// New creates an empty instance. Unset services get in-process defaults.
func New(optFns ...func(o *Options)) *Unison {
	opts := Options{
		HistoryStore: history.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
		Reporter:     logging.NoOpReporter{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Unison{opts: opts, agents: map[string]*agent.Agent{}}
}

// NewAgent creates and registers an agent wired to the shared services.
// optFns run after the defaults and may override them.
func (u *Unison) NewAgent(identity string, llm model.Model, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	key := strings.ToLower(strings.TrimSpace(identity))
	if _, ok := u.agents[key]; ok {
		return nil, core.NewError(core.CodeInvalidConfig, identity, "agent already registered")
	}

	fns := append([]func(o *agent.Options){func(o *agent.Options) {
		o.HistoryStore = u.opts.HistoryStore
		o.Logger = u.opts.Logger
		o.Reporter = u.opts.Reporter
	}}, optFns...)

	a, err := agent.New(identity, llm, fns...)
	if err != nil {
		return nil, err
	}
	u.agents[key] = a
	u.order = append(u.order, a.Identity())
	u.opts.Logger.Debug("unison.agent.registered", "agent", a.Identity(), "model", llm.Info().Name)
	return a, nil
}

// Agent returns a registered agent by identity, ignoring case.
func (u *Unison) Agent(identity string) (*agent.Agent, bool) {
	a, ok := u.agents[strings.ToLower(strings.TrimSpace(identity))]
	return a, ok
}

// Agents returns the registered agents in registration order.
func (u *Unison) Agents() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.agents[strings.ToLower(id)])
	}
	return out
}

// NewClan forms the clan from registered agents. Only one clan is kept.
func (u *Unison) NewClan(name, goal, manager string, members []string, optFns ...func(o *clan.Options)) (*clan.Clan, error) {
	if u.clan != nil {
		return nil, core.NewError(core.CodeInvalidConfig, "", fmt.Sprintf("clan %s already formed", u.clan.Name()))
	}

	boss, ok := u.Agent(manager)
	if !ok {
		return nil, core.NewError(core.CodeInvalidConfig, manager, "manager is not a registered agent")
	}
	agents := make([]*agent.Agent, 0, len(members))
	for _, id := range members {
		a, ok := u.Agent(id)
		if !ok {
			return nil, core.NewError(core.CodeInvalidConfig, id, "member is not a registered agent")
		}
		agents = append(agents, a)
	}

	fns := append([]func(o *clan.Options){func(o *clan.Options) {
		o.HistoryStore = u.opts.HistoryStore
		o.Logger = u.opts.Logger
		o.Reporter = u.opts.Reporter
		o.Prompter = u.opts.Prompter
	}}, optFns...)

	c, err := clan.New(name, goal, boss, agents, fns...)
	if err != nil {
		return nil, err
	}
	u.clan = c
	return c, nil
}

// Clan returns the clan, or nil if none was formed.
func (u *Unison) Clan() *clan.Clan { return u.clan }

// Run unleashes the clan on its goal when one is formed. Otherwise it runs
// task on the first registered agent.
func (u *Unison) Run(ctx context.Context, task string) (string, error) {
	if u.clan != nil {
		return u.clan.Unleash(ctx)
	}
	if len(u.order) == 0 {
		return "", core.NewError(core.CodeInvalidConfig, "", "no agents registered")
	}
	a, _ := u.Agent(u.order[0])
	return a.Unleash(ctx, task)
}

// Close releases the resources FromConfig acquired, in reverse order.
func (u *Unison) Close(ctx context.Context) error {
	var errs []error
	for i := len(u.closers) - 1; i >= 0; i-- {
		if err := u.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	u.closers = nil
	return errors.Join(errs...)
}

// FromConfig builds the history store, models, agents and clan described
// by cfg. tools are given to every agent.
func FromConfig(cfg *config.Config, tools ...tool.Tool) (*Unison, error) {
	if cfg == nil {
		return nil, core.NewError(core.CodeInvalidConfig, "", "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, core.WrapError(core.CodeInvalidConfig, "", err)
	}

	logger := NewLogger(cfg.Log)
	var reporter logging.Reporter = logging.NoOpReporter{}
	if cfg.Log.Verbose {
		reporter = logging.NewConsoleReporter(nil)
	}

	store, err := history.Open(cfg.History.Backend, cfg.History.Folder)
	if err != nil {
		return nil, err
	}

	u := New(func(o *Options) {
		o.HistoryStore = store
		o.Logger = logger
		o.Reporter = reporter
	})
	if c, ok := store.(io.Closer); ok {
		u.closers = append(u.closers, func(context.Context) error { return c.Close() })
	}

	shutdown, err := telemetry.Init(ServiceName, Version, cfg.Telemetry)
	if err != nil {
		_ = u.Close(context.Background())
		return nil, err
	}
	u.closers = append(u.closers, func(ctx context.Context) error { return shutdown(ctx) })

	if err := u.fromConfig(cfg, tools); err != nil {
		_ = u.Close(context.Background())
		return nil, err
	}

	logger.Info("unison.ready", "agents", len(u.order), "clan", u.clan != nil, "history", cfg.History.Backend)
	return u, nil
}

func (u *Unison) fromConfig(cfg *config.Config, tools []tool.Tool) error {
	models := make(map[string]model.Model, len(cfg.Models))
	for name, mc := range cfg.Models {
		m, err := NewModel(mc)
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
		models[name] = m
	}

	for _, ac := range cfg.Agents {
		var sink output.Sink
		if ac.OutputFile != "" {
			fs, err := output.NewFileSink(ac.OutputFile)
			if err != nil {
				return err
			}
			sink = fs
		}

		_, err := u.NewAgent(ac.Identity, models[ac.Model], func(o *agent.Options) {
			o.Description = ac.Description
			o.Task = ac.Task
			o.Tools = tools
			o.Output = sink
			if ac.MaxTurns > 0 {
				o.MaxTurns = ac.MaxTurns
			}
			if ac.Instruction != "" {
				o.Instruction = agent.NewInstructionFromText(ac.Instruction)
			}
		})
		if err != nil {
			return err
		}
	}

	if cc := cfg.Clan; cc != nil {
		var sink output.Sink
		if cc.OutputFile != "" {
			fs, err := output.NewFileSink(cc.OutputFile)
			if err != nil {
				return err
			}
			sink = fs
		}
		_, err := u.NewClan(cc.Name, cc.Goal, cc.Manager, cc.Members, func(o *clan.Options) {
			o.SharedInstruction = cc.SharedInstruction
			o.Output = sink
			o.RecoverUnknownAgent = cc.RecoverUnknownAgent
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// NewModel creates the backend described by mc.
func NewModel(mc config.ModelConfig) (model.Model, error) {
	switch strings.ToLower(mc.Provider) {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if mc.Model != "" {
				o.Model = mc.Model
			}
			if mc.Temperature != nil {
				o.Temperature = *mc.Temperature
			}
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = mc.MaxTokens
			}
			o.APIKey = mc.APIKey
			o.BaseURL = mc.BaseURL
			o.Stream = mc.Stream
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Model != "" {
				o.Model = anthropicsdk.Model(mc.Model)
			}
			if mc.Temperature != nil {
				o.Temperature = *mc.Temperature
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = mc.MaxTokens
			}
			o.APIKey = mc.APIKey
			o.BaseURL = mc.BaseURL
		}), nil
	case "mock":
		return model.NewScriptedModel(mc.Responses...), nil
	}
	return nil, core.NewError(core.CodeInvalidConfig, "", fmt.Sprintf("unknown model provider %q", mc.Provider))
}

// NewLogger creates the structured logger described by cfg.
func NewLogger(cfg config.LogConfig) logging.Logger {
	return logging.NewSlogLogger(logging.ParseLevel(cfg.Level), cfg.Format, false).
		WithContext("service", ServiceName)
}
