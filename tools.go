package llm

import (
	"context"
	"fmt"
	"sort"
)

// ToolHandler executes one tool call. It receives the raw JSON argument
// object and returns the tool output as a string.
type ToolHandler func(ctx context.Context, arguments string) (string, error)

// ToolRegistry pairs tool definitions with their handlers so a full
// request/dispatch round trip can be driven from one place.
type ToolRegistry struct {
	defs     map[string]ToolDefinition
	handlers map[string]ToolHandler
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		defs:     make(map[string]ToolDefinition),
		handlers: make(map[string]ToolHandler),
	}
}

// Register adds a tool. Registering the same name again replaces the
// previous definition and handler.
func (r *ToolRegistry) Register(def ToolDefinition, handler ToolHandler) {
	r.defs[def.Name] = def
	r.handlers[def.Name] = handler
}

// Definitions returns all registered tools sorted by name, suitable for
// Request.Tools.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Dispatch runs the handler for a single function call and wraps the output
// as a tool message keyed by the call ID.
func (r *ToolRegistry) Dispatch(ctx context.Context, call FunctionCall) (Message, error) {
	handler, ok := r.handlers[call.Name]
	if !ok {
		return Message{}, &LLMError{
			Kind:    ErrKindConfig,
			Message: fmt.Sprintf("no handler registered for tool %q", call.Name),
		}
	}
	out, err := handler(ctx, call.Arguments)
	if err != nil {
		return Message{}, fmt.Errorf("tool %s: %w", call.Name, err)
	}
	return ToolResult(call.ID, out), nil
}

// Run dispatches every function call in a completed response, in the order
// the model emitted them, and returns the tool messages to append after the
// assistant turn. It stops at the first handler error.
func (r *ToolRegistry) Run(ctx context.Context, resp *CompleteResponse) ([]Message, error) {
	msgs := make([]Message, 0, len(resp.FunctionCalls))
	for _, call := range resp.FunctionCalls {
		msg, err := r.Dispatch(ctx, call)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
