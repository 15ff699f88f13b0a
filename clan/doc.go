// Package clan coordinates a manager agent and its members towards a shared
// goal.
//
// A Clan first asks the manager's model for a plan, then runs the manager's
// loop on the goal with the plan in scope. The manager delegates through the
// send_message built-in, which runs the addressed member's loop to
// completion and returns its answer. Delegation is strictly nested: a member
// finishes before the manager's next call starts.
//
// Example:
//
//	clan, err := clan.New("press", "Publish an article about Go generics", boss,
//		[]*agent.Agent{boss, writer, editor},
//		func(o *clan.Options) { o.SharedInstruction = "Be concise." },
//	)
//	answer, err := clan.Unleash(ctx)
package clan
