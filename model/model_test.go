package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/unison/core"
)

func msgs(pairs ...string) []core.Message {
	out := make([]core.Message, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, core.NewMessage(core.Role(pairs[i]), pairs[i+1]))
	}
	return out
}

func TestConversation(t *testing.T) {
	turns := Conversation(msgs(
		"user", "add 2 and 3",
		"assistant", "<tool>add(a=2, b=3)</tool>",
		"tool", "5",
		"tool", "Error: unknown tool",
		"assistant", "The answer is 5.",
	))

	require.Len(t, turns, 4)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)
	assert.Equal(t, Turn{Role: core.RoleUser, Text: "[tool results]\n5\n\n[tool results]\nError: unknown tool"}, turns[2])
	assert.Equal(t, "The answer is 5.", turns[3].Text)
}

func TestRequestPrompt(t *testing.T) {
	req := Request{System: "You are Calc.", Messages: msgs("user", "2+3?", "assistant", "5")}

	assert.Equal(t, "You are Calc.\n\nUSER: 2+3?\n\nASSISTANT: 5", req.Prompt())
	assert.Equal(t, "2+3?", req.LastUserText())
}

func TestMockModel(t *testing.T) {
	m := NewMockModel("mock")
	m.AddResponse("hello", "hi there")

	out, err := m.Run(context.Background(), Request{Messages: msgs("user", "hello")})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)

	out, err = m.Run(context.Background(), Request{Messages: msgs("user", "other")})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", out)

	_, err = m.Run(context.Background(), Request{})
	assert.Error(t, err)
	assert.Equal(t, Info{Name: "mock", Provider: "mock"}, m.Info())
}

func TestScriptedModel(t *testing.T) {
	s := NewScriptedModel("first", "second")
	ctx := context.Background()

	out, err := s.Run(ctx, Request{System: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	s.AddResponse("third")
	s.Reset()
	out, _ = s.Run(ctx, Request{})
	assert.Equal(t, "second", out)
	out, _ = s.Run(ctx, Request{})
	assert.Equal(t, "third", out)

	_, err = s.Run(ctx, Request{})
	assert.Error(t, err, "script exhausted")

	assert.Equal(t, 4, s.CallCount())
	assert.Equal(t, 1, s.Resets())
	assert.Equal(t, "sys", s.Calls()[0].System)
	assert.Equal(t, 0, s.Remaining())
}

func TestScriptedModel_Error(t *testing.T) {
	s := NewScriptedModel("never")
	s.Err = errors.New("rate limited")

	_, err := s.Run(context.Background(), Request{})
	assert.EqualError(t, err, "rate limited")
	assert.Equal(t, 1, s.Remaining())
}

func TestFunc(t *testing.T) {
	var f Model = Func(func(_ context.Context, req Request) (string, error) {
		return "echo: " + req.LastUserText(), nil
	})
	out, err := f.Run(context.Background(), Request{Messages: msgs("user", "ping")})
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", out)
}
