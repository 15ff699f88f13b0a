// Package model defines the provider-agnostic contract between an agent loop
// and a language model backend.
//
// A backend receives the rendered system prompt plus the agent's history and
// returns one completion as plain text. Tool calls are not a provider
// feature here: they travel inside the text as <tool>...</tool> regions, so
// every backend that can complete text can drive an agent.
//
// Providers (OpenAI, Anthropic) live in sub-packages. MockModel,
// ScriptedModel and Func are lightweight doubles for tests and examples.
package model
