// Package core provides the foundational domain types and execution contexts
// shared by agents, tools and clans:
//
//   - Messages and the per-agent conversation History with its HistoryStore
//   - Plans produced by a clan manager and carried down the call tree
//   - Coded errors for the failure taxonomy (turn limit, backend, parsing, ...)
//   - RunContext / ToolContext (scoped execution and tool sandboxing)
//
// Concrete persistence backends, model adapters and the loop itself live in
// their own packages; core only exposes the small interfaces they meet on.
package core
