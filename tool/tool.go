// Package tool implements the capability side of an agent: tool declarations
// (names, typed parameters, defaults), the registry an agent is built with,
// and the invoker that turns `<tool>name(k=v)</tool>` regions of model output
// into validated, coerced handler calls whose outcome is always a Result.
package tool

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/unison/core"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are registered with an agent at construction time. The model requests
// them textually; the invoker validates the request against Parameters,
// coerces every argument to its declared Kind and only then calls Call.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Declare every accepted parameter, with a default for each optional one
//   - Return errors instead of panicking
//   - Be safe for concurrent use when shared between agents
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is shown to the model in the tool's capability card.
	Description() string

	// Parameters returns the ordered parameter declarations.
	Parameters() []Parameter

	// Call executes the tool. args contains exactly the declared parameters,
	// already coerced, with defaults filled in.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// Kind is the declared type of a tool parameter.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindList
	KindDict
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "any"
	}
}

// ParseKind maps a type name onto a Kind. JSON-schema names are accepted too.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str":
		return KindString, nil
	case "integer", "int":
		return KindInteger, nil
	case "float", "number":
		return KindFloat, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "list", "array":
		return KindList, nil
	case "dict", "object":
		return KindDict, nil
	case "any", "":
		return KindAny, nil
	}
	return KindAny, fmt.Errorf("unknown parameter kind %q", s)
}

// Parameter declares one named argument of a tool.
type Parameter struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        Kind   `json:"kind"`
	Required    bool   `json:"required"`
	// Default is used when an optional parameter is omitted. It must be
	// non-nil and coercible to Kind.
	Default any `json:"default,omitempty"`
}

// Spec is the declaration of a tool as seen by the registry and the model.
type Spec struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// SpecOf snapshots a tool's declaration.
func SpecOf(t Tool) Spec {
	params := t.Parameters()
	cp := make([]Parameter, len(params))
	copy(cp, params)
	return Spec{Name: t.Name(), Description: t.Description(), Parameters: cp}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the structural invariants of a declaration: an identifier
// shaped name, unique parameter names and a usable default for every
// optional parameter. Only KindAny parameters may default to None.
func (s Spec) Validate() error {
	if !identRe.MatchString(s.Name) {
		return &ToolError{Tool: s.Name, Code: CodeInvalidSpec, Message: "tool name must be an identifier"}
	}
	seen := make(map[string]bool, len(s.Parameters))
	for _, p := range s.Parameters {
		if !identRe.MatchString(p.Name) {
			return &ToolError{Tool: s.Name, Code: CodeInvalidSpec, Message: fmt.Sprintf("parameter name %q must be an identifier", p.Name)}
		}
		if seen[p.Name] {
			return &ToolError{Tool: s.Name, Code: CodeInvalidSpec, Message: fmt.Sprintf("duplicate parameter %q", p.Name)}
		}
		seen[p.Name] = true
		if p.Required {
			continue
		}
		if p.Default == nil && p.Kind != KindAny {
			return &ToolError{Tool: s.Name, Code: CodeInvalidSpec, Message: fmt.Sprintf("optional parameter %q has no default", p.Name)}
		}
		if _, err := Coerce(p.Kind, p.Default); err != nil {
			return &ToolError{Tool: s.Name, Code: CodeInvalidSpec, Message: fmt.Sprintf("default of %q: %v", p.Name, err)}
		}
	}
	return nil
}

// Param looks up a parameter by name.
func (s Spec) Param(name string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Tool error codes.
const (
	CodeInvalidSpec = "INVALID_SPEC"
	CodeValidation  = "VALIDATION_ERROR"
	CodeCoercion    = "COERCION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodePanic       = "PANIC"
)

// ToolError represents errors that occur while declaring or executing a tool.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
	Err     error  `json:"-"`       // Underlying cause, if any
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
