package clan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/tool"
)

// Built-in tool names.
const (
	SendMessageName = "send_message"
	AskUserName     = "ask_user"
)

// DefaultQuestion is asked when ask_user is called without a question.
const DefaultQuestion = "What would you like?"

// FormatMessage renders a delegated request the way the receiving member
// sees it as its task.
func FormatMessage(sender, message, resource string) string {
	msg := fmt.Sprintf("FROM: %s | %s", sender, strings.TrimSpace(message))
	if r := strings.TrimSpace(resource); r != "" {
		msg += "\nRESOURCE: " + r
	}
	return msg
}

// sendMessageTool delegates to another member on behalf of sender. The
// member's loop runs to completion before the tool returns its answer.
func (c *Clan) sendMessageTool(sender string) tool.Tool {
	return tool.NewFunctionTool(SendMessageName,
		"Send a message to another clan member and wait for their result. The member works on the message as its task.",
		[]tool.Parameter{
			{Name: "agent_name", Kind: tool.KindString, Required: true, Description: "Identity of the member to message"},
			{Name: "message", Kind: tool.KindString, Required: true, Description: "What you need the member to do"},
			{Name: "additional_resource", Kind: tool.KindString, Default: "", Description: "Optional data the member needs, e.g. earlier results"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			name, _ := args["agent_name"].(string)
			message, _ := args["message"].(string)
			resource, _ := args["additional_resource"].(string)

			target, err := c.directory.Resolve(name)
			if err != nil {
				return nil, c.unknownAgent(sender, err)
			}

			tc.LogInfo("clan.message.send", "clan", c.name, "from", sender, "to", target.Identity())
			res, err := target.Run(tc.Context(), FormatMessage(sender, message, resource))
			if err != nil {
				if partial, ok := core.PartialAnswer(err); ok {
					tc.LogWarn("clan.message.partial", "clan", c.name, "to", target.Identity())
					return nil, fmt.Errorf("%s ran out of turns before finishing; partial answer: %s", target.Identity(), partial)
				}
				return nil, err
			}
			tc.LogDebug("clan.message.done", "clan", c.name, "from", sender, "to", target.Identity(), "turns", res.Turns)
			return res.Answer, nil
		},
	)
}

func (c *Clan) unknownAgent(sender string, err error) error {
	e := core.WrapError(core.CodeUnknownAgent, sender, err)
	var cause *core.Error
	if errors.As(err, &cause) {
		e.Message = cause.Message
	}
	e.Fatal = !c.recoverUnknownAgent
	return e
}

// askUserTool lets the manager ask the person running the clan.
func (c *Clan) askUserTool() tool.Tool {
	return tool.NewFunctionTool(AskUserName,
		"Ask the user a question and wait for the answer. Use it only when you cannot continue without the user's input.",
		[]tool.Parameter{
			{Name: "question", Kind: tool.KindString, Default: DefaultQuestion, Description: "The question to ask"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			question, _ := args["question"].(string)
			if strings.TrimSpace(question) == "" {
				question = DefaultQuestion
			}

			answer, err := c.prompter.Ask(tc.Context(), question)
			if err != nil {
				return nil, core.WrapError(core.CodeUserChannel, tc.AgentName(), err)
			}
			return "User answered: " + strings.TrimSpace(answer), nil
		},
	)
}
