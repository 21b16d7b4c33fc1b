// Package tools holds the closed set of callable tools, the registry that
// advertises them to the model and the executor that runs them.
package tools

import (
	"context"
	"fmt"

	"github.com/harunnryd/tooloop/pkg/llm"
)

// Tool is one callable capability. Arguments are validated against
// Definition().Schema before Invoke is called.
type Tool interface {
	Definition() llm.Tool
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry keeps the mapping between tool names and implementations. It is
// built once and read-only afterwards.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry registers tools in the given order. Nil tools, empty names and
// duplicate names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("tool is nil")
		}
		name := t.Definition().Name
		if name == "" {
			return nil, fmt.Errorf("tool name is empty")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("tool %s already registered", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup fetches a tool by exact name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions lists the tool definitions in registration order.
func (r *Registry) Definitions() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Definition())
	}
	return out
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
