package unison

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/unison/agent"
	"github.com/hupe1980/unison/config"
	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/history"
	"github.com/hupe1980/unison/model"
	"github.com/hupe1980/unison/model/anthropic"
	"github.com/hupe1980/unison/model/openai"
	"github.com/hupe1980/unison/tool"
)

func wordCount() tool.Tool {
	return tool.NewFunctionTool("word_count", "Count words",
		[]tool.Parameter{{Name: "text", Kind: tool.KindString, Required: true}},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			n := 0
			inWord := false
			for _, r := range args["text"].(string) {
				if r == ' ' || r == '\n' {
					inWord = false
					continue
				}
				if !inWord {
					n++
				}
				inWord = true
			}
			return int64(n), nil
		},
	)
}

func TestFromConfig_Clan(t *testing.T) {
	dir := t.TempDir()
	yaml := `
history:
  backend: sqlite
  folder: ` + filepath.Join(dir, "history") + `
models:
  boss:
    provider: mock
    responses:
      - "1. Draft a two word title [writer]"
      - "<tool>send_message(agent_name=\"writer\", message=\"Draft a title\")</tool>"
      - "Title: Go Fast"
  writer:
    provider: mock
    responses:
      - "<tool>word_count(text=\"Go Fast\")</tool>"
      - "<tool>pass_result(result=\"Go Fast\")</tool>"
agents:
  - identity: boss
    model: boss
  - identity: writer
    model: writer
    max_turns: 4
clan:
  name: press
  goal: Find a title
  manager: boss
  members: [boss, writer]
  output_file: ` + filepath.Join(dir, "out", "answer.md") + `
`
	path := filepath.Join(dir, "unison.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	u, err := FromConfig(cfg, wordCount())
	require.NoError(t, err)

	answer, err := u.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Title: Go Fast", answer)

	data, err := os.ReadFile(filepath.Join(dir, "out", "answer.md"))
	require.NoError(t, err)
	assert.Equal(t, "Title: Go Fast", string(data))

	require.NoError(t, u.Close(context.Background()))

	store, err := history.OpenSQLite(filepath.Join(dir, "history", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	msgs, err := store.Load(context.Background(), "writer")
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	assert.Equal(t, "FROM: boss | Draft a title", msgs[0].Content)
	assert.Equal(t, "Tool `word_count(text=\"Go Fast\")` returned:\n2", msgs[2].Content)
}

func TestFromConfig_SingleAgent(t *testing.T) {
	cfg := &config.Config{
		Models: map[string]config.ModelConfig{"m": {Provider: "mock", Responses: []string{"hello there"}}},
		Agents: []config.AgentConfig{{Identity: "greeter", Model: "m", Task: "Say hello"}},
	}

	u, err := FromConfig(cfg)
	require.NoError(t, err)
	defer u.Close(context.Background())

	assert.Nil(t, u.Clan())
	answer, err := u.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "hello there", answer)
}

func TestFromConfig_Invalid(t *testing.T) {
	_, err := FromConfig(nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	cfg := &config.Config{Agents: []config.AgentConfig{{Identity: "a", Model: "missing"}}}
	_, err = FromConfig(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewAgentAndClan(t *testing.T) {
	store := history.NewInMemoryStore()
	u := New(func(o *Options) { o.HistoryStore = store })

	boss, err := u.NewAgent("boss", model.NewScriptedModel("1. Say hi [greeter]", `<tool>send_message(agent_name="greeter", message="hi")</tool>`, "greeted"))
	require.NoError(t, err)
	_, err = u.NewAgent("greeter", model.NewScriptedModel("hi!"), func(o *agent.Options) { o.Description = "Greets" })
	require.NoError(t, err)

	_, err = u.NewAgent("BOSS", model.NewScriptedModel())
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = u.NewClan("team", "Greet", "nobody", []string{"boss"})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	c, err := u.NewClan("team", "Greet", "boss", []string{"boss", "greeter"})
	require.NoError(t, err)
	assert.Same(t, boss, c.Manager())
	assert.Len(t, u.Agents(), 2)

	answer, err := u.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "greeted", answer)

	msgs, err := store.Load(context.Background(), "greeter")
	require.NoError(t, err)
	assert.Equal(t, "FROM: boss | hi", msgs[0].Content)
}

func TestRun_NoAgents(t *testing.T) {
	_, err := New().Run(context.Background(), "task")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(config.ModelConfig{Provider: "OpenAI", Model: "gpt-4o-mini", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &openai.Model{}, m)
	assert.Equal(t, "gpt-4o-mini", m.Info().Name)

	m, err = NewModel(config.ModelConfig{Provider: "anthropic", Model: "claude-3-5-haiku-latest", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Model{}, m)

	m, err = NewModel(config.ModelConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &model.ScriptedModel{}, m)

	_, err = NewModel(config.ModelConfig{Provider: "llama"})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewModel_Temperature(t *testing.T) {
	zero := 0.0

	m, err := NewModel(config.ModelConfig{Provider: "openai", APIKey: "sk-test", Temperature: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.(*openai.Model).Options().Temperature)

	m, err = NewModel(config.ModelConfig{Provider: "openai", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 0.7, m.(*openai.Model).Options().Temperature)

	m, err = NewModel(config.ModelConfig{Provider: "anthropic", APIKey: "sk-test", Temperature: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.(*anthropic.Model).Options().Temperature)
}
