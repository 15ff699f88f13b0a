package tool

import (
	"errors"
	"time"

	"github.com/hupe1980/unison/core"
)

// HandlerFunc is the signature of a FunctionTool implementation.
type HandlerFunc func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool is a generic adapter that exposes a plain Go function as a tool.
//
// Responsibilities:
//   - Holds the parameter declarations used to validate and coerce arguments
//   - Invokes the wrapped function with a *core.ToolContext giving access to
//     the caller's identity, run ID, call ID, plan and logger
//   - Normalizes error handling so callers receive *ToolError with consistent codes:
//     EXECUTION_ERROR -> underlying function returned an error (non-ToolError)
//     (custom codes preserved if the function returns *ToolError directly)
//
// Concurrency:
//
//	A FunctionTool has no internal mutable state after construction and is safe for
//	concurrent use by multiple goroutines.
type FunctionTool struct {
	// Tool identifier (snake_case recommended)
	name string
	// Human-readable description shown to models
	description string
	// Ordered parameter declarations
	parameters []Parameter
	// User supplied implementation
	fn HandlerFunc
}

// NewFunctionTool constructs a FunctionTool from explicit declarations and function.
//
// Example:
//
//	add := NewFunctionTool(
//	  "add",
//	  "Add two integers",
//	  []Parameter{
//	    {Name: "a", Kind: KindInteger, Required: true},
//	    {Name: "b", Kind: KindInteger, Required: true},
//	  },
//	  func(tc *core.ToolContext, args map[string]any) (any, error) {
//	    return args["a"].(int64) + args["b"].(int64), nil
//	  },
//	)
func NewFunctionTool(name, description string, parameters []Parameter, fn HandlerFunc) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name returns the unique tool name used in call syntax and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the ordered parameter declarations.
func (t *FunctionTool) Parameters() []Parameter { return t.parameters }

// Call invokes the underlying function. Execution failures are wrapped (or
// passed through) as *ToolError for uniform downstream handling.
//
// Logging Fields:
//
//	tool: tool name
//	call_id: call identifier (correlates model output & tool execution)
//	duration_ms: execution time in milliseconds
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "call_id", toolCtx.CallID())

	result, err := t.fn(toolCtx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) { // Already a ToolError -> just log and forward
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return nil, err
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Err:     err,
		}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
