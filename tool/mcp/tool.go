package mcp

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/tool"
)

// ToolCaller abstracts MCP tool execution for adapters.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// ToolLister abstracts MCP tool discovery.
type ToolLister interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
}

// Server is what Tools needs from a connected MCP server.
type Server interface {
	ToolLister
	ToolCaller
}

// Tool adapts one MCP tool definition to tool.Tool.
type Tool struct {
	def         mcp.Tool
	name        string
	caller      ToolCaller
	params      []tool.Parameter
	synthesized map[string]bool
	wireNames   map[string]string
}

// NewTool builds a tool.Tool backed by an MCP tool definition and caller.
func NewTool(def mcp.Tool, caller ToolCaller) (*Tool, error) {
	if def.Name == "" {
		return nil, errors.New("mcp tool name is required")
	}
	if caller == nil {
		return nil, errors.New("tool caller is required")
	}
	params, synthesized, wireNames := parametersFromSchema(def.InputSchema)
	return &Tool{
		def:         def,
		name:        sanitizeName(def.Name),
		caller:      caller,
		params:      params,
		synthesized: synthesized,
		wireNames:   wireNames,
	}, nil
}

// Tools discovers every tool of server and adapts it.
func Tools(ctx context.Context, server Server) ([]tool.Tool, error) {
	defs, err := server.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp list tools: %w", err)
	}
	out := make([]tool.Tool, 0, len(defs))
	for _, def := range defs {
		t, err := NewTool(def, server)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Name returns the tool name, made safe for the call syntax.
func (t *Tool) Name() string { return t.name }

// Description returns the server supplied description.
func (t *Tool) Description() string { return t.def.Description }

// Parameters returns declarations derived from the input schema.
func (t *Tool) Parameters() []tool.Parameter { return t.params }

// Call forwards the arguments to the MCP server. Optional arguments the
// model did not set are not sent.
func (t *Tool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	payload := make(map[string]any, len(args))
	for k, v := range args {
		if t.synthesized[k] {
			if p, ok := t.param(k); ok && reflect.DeepEqual(p.Default, v) {
				continue
			}
		}
		if wire, ok := t.wireNames[k]; ok {
			k = wire
		}
		payload[k] = v
	}

	tc.LogDebug("mcp.call.start", "tool", t.def.Name)
	result, err := t.caller.CallTool(tc.Context(), t.def.Name, payload)
	if err != nil {
		return nil, fmt.Errorf("mcp call %s: %w", t.def.Name, err)
	}
	return resultToOutput(result)
}

func (t *Tool) param(name string) (tool.Parameter, bool) {
	for _, p := range t.params {
		if p.Name == name {
			return p, true
		}
	}
	return tool.Parameter{}, false
}

var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

func sanitizeName(name string) string {
	s := invalidNameChars.ReplaceAllString(name, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}
	return s
}

// parametersFromSchema lists required properties first, in declared order,
// then optional ones alphabetically. Optional properties without a schema
// default get the zero value of their kind; those are reported in the
// second return value. The third maps parameter names back to property names.
func parametersFromSchema(schema mcp.ToolInputSchema) ([]tool.Parameter, map[string]bool, map[string]string) {
	required := map[string]bool{}
	for _, name := range schema.Required {
		required[name] = true
	}

	var names []string
	for _, name := range schema.Required {
		if _, ok := schema.Properties[name]; ok {
			names = append(names, name)
		}
	}
	var optional []string
	for name := range schema.Properties {
		if !required[name] {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	names = append(names, optional...)

	params := make([]tool.Parameter, 0, len(names))
	synthesized := map[string]bool{}
	wireNames := make(map[string]string, len(names))
	for _, name := range names {
		prop, _ := schema.Properties[name].(map[string]any)
		p := tool.Parameter{Name: sanitizeName(name), Required: required[name], Kind: tool.KindAny}
		if typ, ok := prop["type"].(string); ok {
			if k, err := tool.ParseKind(typ); err == nil {
				p.Kind = k
			}
		}
		if d, ok := prop["description"].(string); ok {
			p.Description = strings.TrimSpace(d)
		}
		if !p.Required {
			if def, ok := prop["default"]; ok && def != nil {
				if cv, err := tool.Coerce(p.Kind, def); err == nil {
					p.Default = cv
				}
			}
			if p.Default == nil {
				p.Default = zeroValue(p.Kind)
				synthesized[p.Name] = true
			}
		}
		wireNames[p.Name] = name
		params = append(params, p)
	}
	return params, synthesized, wireNames
}

func zeroValue(k tool.Kind) any {
	switch k {
	case tool.KindInteger:
		return int64(0)
	case tool.KindFloat:
		return 0.0
	case tool.KindBoolean:
		return false
	case tool.KindList:
		return []any{}
	case tool.KindDict:
		return map[string]any{}
	default:
		return ""
	}
}

func resultToOutput(result *mcp.CallToolResult) (any, error) {
	if result == nil {
		return nil, errors.New("mcp tool result is nil")
	}

	if result.IsError {
		return nil, fmt.Errorf("mcp tool returned error: %s", extractTextContent(result.Content))
	}

	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}

	return extractTextContent(result.Content), nil
}

func extractTextContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var _ tool.Tool = (*Tool)(nil)
