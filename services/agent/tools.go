package agent

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

// Tool is one callable the model may invoke during a conversation turn.
type Tool interface {
	// Name returns the function name declared to the model.
	Name() string

	// Declaration returns the schema advertised to the model.
	Declaration() *genai.FunctionDeclaration

	// Execute runs the tool with the arguments the model produced. An
	// error does not fail the turn; the loop relays it to the model as
	// an error result instead.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Registry holds the tools exposed to the model, in registration order.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.order = append(r.order, t.Name())
		r.tools[t.Name()] = t
	}
	return r
}

// Lookup returns the named tool. The second return is false when the
// model asked for a name that was never declared.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns the function declarations in registration order.
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Declaration())
	}
	return decls
}
