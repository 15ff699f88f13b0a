package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/logging"
)

func newToolCtx() *core.ToolContext {
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{Name: "tester"}, "", nil, 0, logging.NoOpLogger{})
	return core.NewToolContext(rc, "fc-1")
}

func addTool() *FunctionTool {
	return NewFunctionTool("add", "Add two integers",
		[]Parameter{
			{Name: "a", Kind: KindInteger, Required: true, Description: "first addend"},
			{Name: "b", Kind: KindInteger, Required: true},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return args["a"].(int64) + args["b"].(int64), nil
		},
	)
}

// -------------------- Spec validation --------------------

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"ok", Spec{Name: "add", Parameters: []Parameter{{Name: "a", Kind: KindInteger, Required: true}}}, false},
		{"optional with default", Spec{Name: "greet", Parameters: []Parameter{{Name: "name", Kind: KindString, Default: "world"}}}, false},
		{"bad name", Spec{Name: "add-two"}, true},
		{"duplicate param", Spec{Name: "x", Parameters: []Parameter{{Name: "a", Required: true}, {Name: "a", Required: true}}}, true},
		{"optional without default", Spec{Name: "x", Parameters: []Parameter{{Name: "a", Kind: KindString}}}, true},
		{"optional any defaults to None", Spec{Name: "x", Parameters: []Parameter{{Name: "a", Kind: KindAny}}}, false},
		{"default wrong kind", Spec{Name: "x", Parameters: []Parameter{{Name: "a", Kind: KindInteger, Default: "many"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				var te *ToolError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, CodeInvalidSpec, te.Code)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(addTool(), NewPassResultTool())
	require.NoError(t, err)

	assert.Equal(t, []string{"add", "pass_result"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	_, spec, ok := reg.Lookup("add")
	require.True(t, ok)
	assert.Len(t, spec.Parameters, 2)

	_, err = NewRegistry(addTool(), addTool())
	assert.Error(t, err, "duplicate names are rejected")

	extended, err := reg.Extend(NewFunctionTool("noop", "", nil, func(*core.ToolContext, map[string]any) (any, error) { return nil, nil }))
	require.NoError(t, err)
	assert.Equal(t, 3, extended.Len())
	assert.Equal(t, 2, reg.Len(), "Extend leaves the original untouched")
}

// -------------------- FunctionTool --------------------

func TestFunctionTool_Success(t *testing.T) {
	out, err := addTool().Call(newToolCtx(), map[string]any{"a": int64(2), "b": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	ft := NewFunctionTool("fail", "", nil, func(*core.ToolContext, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := ft.Call(newToolCtx(), map[string]any{})

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeExecution, te.Code)
	assert.Equal(t, "boom", te.Message)
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	custom := NewToolError("fail", "quota exhausted", "QUOTA")
	ft := NewFunctionTool("fail", "", nil, func(*core.ToolContext, map[string]any) (any, error) {
		return nil, custom
	})

	_, err := ft.Call(newToolCtx(), map[string]any{})
	assert.Same(t, custom, err)
}

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("calc", "bad input", CodeValidation)
	assert.Equal(t, "tool error [VALIDATION_ERROR] in calc: bad input", err.Error())

	plain := &ToolError{Tool: "calc", Message: "oops"}
	assert.Equal(t, "tool error in calc: oops", plain.Error())
}

// -------------------- Coercion --------------------

func TestCoerce(t *testing.T) {
	tests := []struct {
		kind    Kind
		in      any
		want    any
		wantErr bool
	}{
		{KindInteger, int64(4), int64(4), false},
		{KindInteger, 4.0, int64(4), false},
		{KindInteger, 4.5, nil, true},
		{KindInteger, " 12 ", int64(12), false},
		{KindInteger, "twelve", nil, true},
		{KindInteger, true, nil, true},
		{KindFloat, int64(2), 2.0, false},
		{KindFloat, "2.5", 2.5, false},
		{KindBoolean, true, true, false},
		{KindBoolean, "False", false, false},
		{KindBoolean, int64(1), nil, true},
		{KindString, "x", "x", false},
		{KindString, int64(7), "7", false},
		{KindString, nil, nil, true},
		{KindList, []any{int64(1)}, []any{int64(1)}, false},
		{KindList, "not a list", nil, true},
		{KindDict, map[string]any{"k": "v"}, map[string]any{"k": "v"}, false},
		{KindDict, []any{}, nil, true},
		{KindAny, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, err := Coerce(tt.kind, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	for name, want := range map[string]Kind{
		"string": KindString, "int": KindInteger, "number": KindFloat,
		"bool": KindBoolean, "array": KindList, "object": KindDict, "": KindAny,
	} {
		got, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseKind("complex")
	assert.Error(t, err)
}

// -------------------- Cards --------------------

func TestCard(t *testing.T) {
	spec := Spec{
		Name:        "search",
		Description: "Search the web",
		Parameters: []Parameter{
			{Name: "query", Kind: KindString, Required: true, Description: "what to look for"},
			{Name: "limit", Kind: KindInteger, Default: int64(5)},
		},
	}

	assert.Equal(t, "search(query: string, limit: integer = 5)", Signature(spec))
	assert.Equal(t,
		"search(query: string, limit: integer = 5)\n"+
			"  Search the web\n"+
			"  - query (string, required): what to look for\n"+
			"  - limit (integer, default 5)",
		Card(spec))
}

func TestCards_Empty(t *testing.T) {
	assert.Equal(t, "No tools available.", Cards(MustRegistry()))
}
