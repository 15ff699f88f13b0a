package tool

import (
	"fmt"
	"sync"
)

// Registry is the ordered set of tools available to one agent. It is built
// at agent construction and read-only afterwards; Extend returns a copy.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
	specs map[string]Spec
}

// NewRegistry validates and registers tools in order.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: map[string]Tool{}, specs: map[string]Spec{}}
	for _, t := range tools {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on invalid declarations.
func MustRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) register(t Tool) error {
	if t == nil {
		return fmt.Errorf("nil tool")
	}
	spec := SpecOf(t)
	if err := spec.Validate(); err != nil {
		return err
	}
	if _, exists := r.tools[spec.Name]; exists {
		return &ToolError{Tool: spec.Name, Code: CodeInvalidSpec, Message: "duplicate tool name"}
	}
	r.order = append(r.order, spec.Name)
	r.tools[spec.Name] = t
	r.specs[spec.Name] = spec
	return nil
}

// Extend returns a new registry holding r's tools followed by extra.
func (r *Registry) Extend(extra ...Tool) (*Registry, error) {
	r.mu.RLock()
	base := make([]Tool, 0, len(r.order)+len(extra))
	for _, name := range r.order {
		base = append(base, r.tools[name])
	}
	r.mu.RUnlock()
	return NewRegistry(append(base, extra...)...)
}

// Lookup returns the tool and its declaration by name.
func (r *Registry) Lookup(name string) (Tool, Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, Spec{}, false
	}
	return t, r.specs[name], true
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Specs returns all declarations in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
