// Package agent implements the tool-calling agent loop.
//
// An Agent owns an identity, a capability set (tool.Registry) and a
// conversation history. Unleash drives one task through the state machine
//
//	Idle -> Prompting -> Parsing -> Executing -> (Prompting | Done)
//
// Each Prompting transition is one model call and counts against the turn
// budget. Model output without <tool> regions is the final answer; output
// with regions is parsed by the tool package and every call is executed in
// document order, one tool message per call. Every message is appended to
// the history, and flushed to its store, before the next transition.
//
// Agents joined to a clan (see Join) additionally see the clan goal, the
// roster and the plan in their prompt, and receive the clan's built-in
// tools.
package agent
