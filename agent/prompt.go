package agent

import (
	"strings"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/internal/util"
	"github.com/hupe1980/unison/model"
	"github.com/hupe1980/unison/tool"
)

const toolInstructions = `## How to work
Think step by step inside <think>...</think> before you act. Thoughts are never shown to anyone.

To use a tool, write exactly one call per region:
<tool>tool_name(param="value", other=42)</tool>

Rules for tool calls:
- Arguments must be literals: strings, numbers, True/False, None, lists and dicts of literals.
- Never use variables, expressions or nested calls as arguments.
- You may write several regions in one reply; they run in the order written.
- Results come back in the next message. Wait for them before relying on them.
- If no tool is needed, answer directly without any <tool> region.`

var individualPrompt = util.MustParseTemplate("individual", `You are {{.Identity}}.
{{- if .Description}}
{{.Description}}
{{- end}}

## Your tools
{{.Tools}}

`+toolInstructions+`
{{- if .Instruction}}

## Additional instructions
{{.Instruction}}
{{- end}}
`)

var managerPrompt = util.MustParseTemplate("manager", `You are {{.Identity}}, the manager of the clan "{{.Clan}}".
{{- if .Description}}
{{.Description}}
{{- end}}

## Clan goal
{{.Goal}}

## Plan
{{.Plan}}

## Clan members
{{- range .Members}}
- {{.Name}}{{if .Description}}: {{.Description}}{{end}}
{{- else}}
No other members.
{{- end}}

Delegate each step to the best suited member with send_message and wait for the reply.
You cannot delegate to yourself. Use ask_user only when you truly need input from the user.
When the goal is reached, write the final answer for the user directly, without any tool region.
{{- if .SharedInstruction}}

## Shared instructions
{{.SharedInstruction}}
{{- end}}

## Your tools
{{.Tools}}

`+toolInstructions+`
{{- if .Instruction}}

## Additional instructions
{{.Instruction}}
{{- end}}
`)

var memberPrompt = util.MustParseTemplate("member", `You are {{.Identity}}, a member of the clan "{{.Clan}}".
{{- if .Description}}
{{.Description}}
{{- end}}

## Clan goal
{{.Goal}}

## Plan
{{.Plan}}

## Clan members
{{- range .Members}}
- {{.Name}}{{if .Description}}: {{.Description}}{{end}}{{if eq .Role "manager"}} (manager){{end}}
{{- end}}

Work on the request you received. Ask other members through send_message when you need them.
When you are done, hand your complete result back with pass_result(result="...").
{{- if .SharedInstruction}}

## Shared instructions
{{.SharedInstruction}}
{{- end}}

## Your tools
{{.Tools}}

`+toolInstructions+`
{{- if .Instruction}}

## Additional instructions
{{.Instruction}}
{{- end}}
`)

type promptData struct {
	Identity          string
	Description       string
	Task              string
	Tools             string
	Clan              string
	Goal              string
	Plan              string
	Members           []core.AgentInfo
	SharedInstruction string
	Instruction       string
}

// systemPrompt renders the instructions for the current run. Clan context
// is included once the agent joined a clan.
func (a *Agent) systemPrompt(rc *core.RunContext) (string, error) {
	instruction, err := a.resolveInstruction(rc)
	if err != nil {
		return "", err
	}

	data := promptData{
		Identity:    a.identity,
		Description: strings.TrimSpace(a.description),
		Task:        rc.Task,
		Tools:       tool.Cards(a.Tools()),
		Instruction: instruction,
	}

	tmpl := individualPrompt
	if m := a.Membership(); m != nil {
		data.Clan = m.Clan
		data.Goal = m.Goal
		data.SharedInstruction = strings.TrimSpace(m.SharedInstruction)
		data.Plan = "No plan yet."
		if p := rc.Plan(); p != nil {
			data.Plan = p.String()
		}
		for _, info := range m.Roster {
			if !strings.EqualFold(info.Name, a.identity) {
				data.Members = append(data.Members, info)
			}
		}
		tmpl = memberPrompt
		if m.Role == core.RoleManager {
			tmpl = managerPrompt
		}
	}

	out, err := tmpl.Render(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (a *Agent) resolveInstruction(rc *core.RunContext) (string, error) {
	if a.instruction.IsZero() {
		return "", nil
	}
	text, err := a.instruction.Resolve(rc)
	if err != nil {
		return "", err
	}
	if a.instruction.IsStatic() {
		clan := ""
		if m := a.Membership(); m != nil {
			clan = m.Clan
		}
		text, err = util.RenderTemplate(text, map[string]any{
			"identity": a.identity,
			"task":     rc.Task,
			"clan":     clan,
		})
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(text), nil
}

// request builds the model request for the next Prompting transition.
func (a *Agent) request(rc *core.RunContext, system string) model.Request {
	return model.Request{System: system, Messages: rc.History.Messages()}
}
