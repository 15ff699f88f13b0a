package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/hupe1980/unison/telemetry"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "UNISON_"

type Config struct {
	Log       LogConfig              `koanf:"log"`
	History   HistoryConfig          `koanf:"history"`
	Telemetry telemetry.Config       `koanf:"telemetry"`
	Models    map[string]ModelConfig `koanf:"models"`
	Agents    []AgentConfig          `koanf:"agents"`
	Clan      *ClanConfig            `koanf:"clan"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
	// Verbose prints thoughts, tool calls and answers to the console.
	Verbose bool `koanf:"verbose"`
}

type HistoryConfig struct {
	Backend string `koanf:"backend"` // memory, file, sqlite
	Folder  string `koanf:"folder"`
}

type ModelConfig struct {
	Provider    string  `koanf:"provider"` // openai, anthropic, mock
	Model       string  `koanf:"model"`
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Temperature *float64 `koanf:"temperature"` // nil keeps the provider default
	MaxTokens   int64   `koanf:"max_tokens"`
	Stream      bool    `koanf:"stream"`
	// Responses are replayed in order by the mock provider.
	Responses []string `koanf:"responses"`
}

type AgentConfig struct {
	Identity    string `koanf:"identity"`
	Description string `koanf:"description"`
	Task        string `koanf:"task"`
	Model       string `koanf:"model"`
	Instruction string `koanf:"instruction"`
	MaxTurns    int    `koanf:"max_turns"`
	OutputFile  string `koanf:"output_file"`
}

type ClanConfig struct {
	Name                string   `koanf:"name"`
	Goal                string   `koanf:"goal"`
	SharedInstruction   string   `koanf:"shared_instruction"`
	Manager             string   `koanf:"manager"`
	Members             []string `koanf:"members"`
	OutputFile          string   `koanf:"output_file"`
	RecoverUnknownAgent bool     `koanf:"recover_unknown_agent"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":          "info",
		"log.format":         "text",
		"log.verbose":        false,
		"history.backend":    "memory",
		"history.folder":     "history",
		"telemetry.exporter": telemetry.ExporterNone,
	}
}

// Load reads the configuration. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// UNISON_HISTORY__BACKEND -> history.backend
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks references between sections.
func (c *Config) Validate() error {
	var errs []error

	for name, m := range c.Models {
		switch strings.ToLower(m.Provider) {
		case "openai", "anthropic", "mock":
		default:
			errs = append(errs, fmt.Errorf("model %s: unknown provider %q", name, m.Provider))
		}
	}

	seen := map[string]bool{}
	for i, a := range c.Agents {
		id := strings.TrimSpace(a.Identity)
		if id == "" {
			errs = append(errs, fmt.Errorf("agents[%d]: identity is required", i))
			continue
		}
		key := strings.ToLower(id)
		if seen[key] {
			errs = append(errs, fmt.Errorf("agent %s: duplicate identity", id))
		}
		seen[key] = true
		if _, ok := c.Models[a.Model]; !ok {
			errs = append(errs, fmt.Errorf("agent %s: unknown model %q", id, a.Model))
		}
		if a.MaxTurns < 0 {
			errs = append(errs, fmt.Errorf("agent %s: max_turns must not be negative", id))
		}
	}

	if c.Clan != nil {
		if strings.TrimSpace(c.Clan.Name) == "" || strings.TrimSpace(c.Clan.Goal) == "" {
			errs = append(errs, errors.New("clan: name and goal are required"))
		}
		members := map[string]bool{}
		for _, m := range c.Clan.Members {
			key := strings.ToLower(strings.TrimSpace(m))
			if !seen[key] {
				errs = append(errs, fmt.Errorf("clan: member %q is not a configured agent", m))
			}
			members[key] = true
		}
		if !members[strings.ToLower(strings.TrimSpace(c.Clan.Manager))] {
			errs = append(errs, fmt.Errorf("clan: manager %q must be listed in members", c.Clan.Manager))
		}
	}

	return errors.Join(errs...)
}

// Agent returns the agent section for identity, ignoring case.
func (c *Config) Agent(identity string) (AgentConfig, bool) {
	for _, a := range c.Agents {
		if strings.EqualFold(strings.TrimSpace(a.Identity), strings.TrimSpace(identity)) {
			return a, true
		}
	}
	return AgentConfig{}, false
}
