package tool

import (
	"fmt"
	"regexp"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/internal/literal"
	"github.com/hupe1980/unison/logging"
)

const (
	openTag  = "<tool>"
	closeTag = "</tool>"
)

var callRe = regexp.MustCompile(`(?s)<tool>(.*?)</tool>`)

// ExtractCalls returns the trimmed contents of every <tool>...</tool> region
// of output, in document order.
func ExtractCalls(output string) []string {
	matches := callRe.FindAllStringSubmatch(output, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// HasCallSyntax reports whether output contains an opening call delimiter,
// terminated or not.
func HasCallSyntax(output string) bool {
	return strings.Contains(output, openTag)
}

// StripCalls removes every call region from output, including a trailing
// unterminated one.
func StripCalls(output string) string {
	out := callRe.ReplaceAllString(output, "")
	if i := strings.Index(out, openTag); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out)
}

// ParseErrorKind classifies why a call region was rejected.
type ParseErrorKind int

const (
	UnknownTool ParseErrorKind = iota
	MissingParameter
	UnexpectedParameter
	MalformedLiteral
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnknownTool:
		return "UnknownTool"
	case MissingParameter:
		return "MissingParameter"
	case UnexpectedParameter:
		return "UnexpectedParameter"
	default:
		return "MalformedLiteral"
	}
}

// ParseError reports a call region that could not be turned into a Call.
// It is fed back to the model; it never ends the loop by itself.
type ParseError struct {
	Kind  ParseErrorKind
	Tool  string
	Param string
	Raw   string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the literal parser error for MalformedLiteral.
func (e *ParseError) Unwrap() error { return e.Err }

// Call is a validated request to execute a registered tool.
type Call struct {
	ID   string
	Name string
	Args map[string]any
	Raw  string
}

// String renders the call in wire syntax with sorted keyword arguments.
func (c Call) String() string {
	keys := make([]string, 0, len(c.Args))
	for k := range c.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + literal.Format(c.Args[k])
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Parse turns the contents of one call region into a Call bound to a
// registered tool. Only literal arguments are accepted.
func Parse(raw string, reg *Registry) (Call, error) {
	parsed, err := parseRepaired(raw)
	if err != nil {
		return Call{}, &ParseError{Kind: MalformedLiteral, Raw: raw, Msg: err.Error(), Err: err}
	}

	_, spec, ok := reg.Lookup(parsed.Name)
	if !ok {
		return Call{}, &ParseError{
			Kind: UnknownTool,
			Tool: parsed.Name,
			Raw:  raw,
			Msg:  fmt.Sprintf("unknown tool %q; available tools: %s", parsed.Name, strings.Join(reg.Names(), ", ")),
		}
	}

	if len(parsed.Args) > len(spec.Parameters) {
		return Call{}, &ParseError{
			Kind: UnexpectedParameter,
			Tool: spec.Name,
			Raw:  raw,
			Msg:  fmt.Sprintf("%s takes %d arguments but %d were given", spec.Name, len(spec.Parameters), len(parsed.Args)),
		}
	}

	args := make(map[string]any, len(parsed.Args)+len(parsed.Keywords))
	for i, v := range parsed.Args {
		args[spec.Parameters[i].Name] = v
	}

	var unexpected *ParseError
	for _, kw := range parsed.Keywords {
		if _, ok := spec.Param(kw.Name); !ok {
			if unexpected == nil {
				unexpected = &ParseError{Kind: UnexpectedParameter, Tool: spec.Name, Param: kw.Name, Raw: raw,
					Msg: fmt.Sprintf("%s has no parameter %q", spec.Name, kw.Name)}
			}
			continue
		}
		if _, dup := args[kw.Name]; dup {
			if unexpected == nil {
				unexpected = &ParseError{Kind: UnexpectedParameter, Tool: spec.Name, Param: kw.Name, Raw: raw,
					Msg: fmt.Sprintf("parameter %q given more than once", kw.Name)}
			}
			continue
		}
		args[kw.Name] = kw.Value
	}

	for _, p := range spec.Parameters {
		if _, ok := args[p.Name]; !ok && p.Required {
			return Call{}, &ParseError{Kind: MissingParameter, Tool: spec.Name, Param: p.Name, Raw: raw,
				Msg: fmt.Sprintf("%s requires parameter %q", spec.Name, p.Name)}
		}
	}
	if unexpected != nil {
		return Call{}, unexpected
	}

	return Call{ID: uuid.NewString(), Name: spec.Name, Args: args, Raw: raw}, nil
}

// Bind fills defaults and coerces every argument to its declared kind.
func Bind(spec Spec, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(spec.Parameters))
	for _, p := range spec.Parameters {
		v, ok := args[p.Name]
		if !ok {
			if p.Required {
				return nil, &ToolError{Tool: spec.Name, Code: CodeValidation, Message: fmt.Sprintf("missing required parameter %q", p.Name)}
			}
			v = p.Default
		}
		cv, err := Coerce(p.Kind, v)
		if err != nil {
			return nil, &ToolError{Tool: spec.Name, Code: CodeCoercion, Message: fmt.Sprintf("parameter %q: %v", p.Name, err), Err: err}
		}
		out[p.Name] = cv
	}
	for k := range args {
		if _, ok := spec.Param(k); !ok {
			return nil, &ToolError{Tool: spec.Name, Code: CodeValidation, Message: fmt.Sprintf("unexpected parameter %q", k)}
		}
	}
	return out, nil
}

// Invoke executes call against reg. Every failure, including a panicking
// handler, is reported as an unsuccessful Result; Invoke never panics.
func Invoke(toolCtx *core.ToolContext, call Call, reg *Registry) (res Result) {
	logger := toolCtx.Logger()
	start := time.Now()

	defer func() {
		if res.Metadata == nil {
			res.Metadata = map[string]any{}
		}
		res.Metadata["tool_name"] = call.Name
		res.Metadata["call_id"] = call.ID
		res.Metadata["duration_ms"] = time.Since(start).Milliseconds()
		logging.LogToolCall(logger, call.Name, time.Since(start), res.Success, res.Err())
	}()

	t, spec, ok := reg.Lookup(call.Name)
	if !ok {
		return FailedWith(&ToolError{Tool: call.Name, Code: CodeValidation, Message: "tool is not registered"})
	}

	args, err := Bind(spec, call.Args)
	if err != nil {
		return FailedWith(err)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool.call.panic", "tool", call.Name, "recover", fmt.Sprint(r))
			res = FailedWith(panicError(call.Name, r))
			res.Metadata["parameters"] = args
		}
	}()

	out, err := t.Call(toolCtx, args)
	if err != nil {
		res = FailedWith(err)
	} else if fv, ok := out.(FinalValue); ok {
		res = Final(fv.Value)
	} else {
		res = Succeeded(out)
	}
	res.Metadata["parameters"] = args
	return res
}

// panicError converts a recovered panic value to an error without pulling external dependencies.
func panicError(tool string, r any) error {
	return &ToolError{Tool: tool, Code: CodePanic, Message: fmt.Sprintf("panic: %v", r), Err: &panicErr{val: r, stack: debug.Stack()}}
}

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return "panic recovered" }
