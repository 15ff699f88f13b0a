package tool

import (
	"github.com/hupe1980/unison/core"
)

// PassResultName is the name of the built-in that ends an agent's loop.
const PassResultName = "pass_result"

// passResultTool hands a result back to whoever started the agent and ends
// its loop.
type passResultTool struct{}

// NewPassResultTool constructs the pass_result built-in.
func NewPassResultTool() Tool { return &passResultTool{} }

func (t *passResultTool) Name() string { return PassResultName }

func (t *passResultTool) Description() string {
	return "Finish your work and hand the result back to whoever assigned the task. Ends your turn immediately."
}

func (t *passResultTool) Parameters() []Parameter {
	return []Parameter{
		{Name: "result", Kind: KindString, Required: true, Description: "The complete result to hand back"},
	}
}

func (t *passResultTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	result, _ := args["result"].(string)
	tc.LogInfo("tool.pass_result")
	return FinalValue{Value: result}, nil
}
