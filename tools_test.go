package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestToolRegistry_Dispatch(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(ToolDefinition{Name: "get_weather"}, func(ctx context.Context, args string) (string, error) {
		var in struct {
			City string `json:"city"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", err
		}
		return "sunny in " + in.City, nil
	})

	msg, err := reg.Dispatch(context.Background(), FunctionCall{
		ID: "call_1", Name: "get_weather", Arguments: `{"city":"SF"}`,
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if msg.Role != RoleTool || msg.ToolCallID != "call_1" || msg.Text() != "sunny in SF" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestToolRegistry_DispatchUnknownTool(t *testing.T) {
	reg := NewToolRegistry()
	_, err := reg.Dispatch(context.Background(), FunctionCall{Name: "nope"})
	var llmErr *LLMError
	if !errors.As(err, &llmErr) || llmErr.Kind != ErrKindConfig {
		t.Fatalf("err = %v", err)
	}
}

func TestToolRegistry_DefinitionsSorted(t *testing.T) {
	reg := NewToolRegistry()
	noop := func(ctx context.Context, args string) (string, error) { return "", nil }
	reg.Register(ToolDefinition{Name: "zeta"}, noop)
	reg.Register(ToolDefinition{Name: "alpha"}, noop)
	reg.Register(ToolDefinition{Name: "mid"}, noop)

	defs := reg.Definitions()
	if len(defs) != 3 || defs[0].Name != "alpha" || defs[1].Name != "mid" || defs[2].Name != "zeta" {
		t.Fatalf("defs = %+v", defs)
	}
}

func TestToolRegistry_RunStopsAtFirstError(t *testing.T) {
	reg := NewToolRegistry()
	var calls []string
	reg.Register(ToolDefinition{Name: "ok"}, func(ctx context.Context, args string) (string, error) {
		calls = append(calls, "ok")
		return "done", nil
	})
	wantErr := errors.New("boom")
	reg.Register(ToolDefinition{Name: "bad"}, func(ctx context.Context, args string) (string, error) {
		calls = append(calls, "bad")
		return "", wantErr
	})

	resp := &CompleteResponse{FunctionCalls: []FunctionCall{
		{ID: "c1", Name: "ok", Arguments: "{}"},
		{ID: "c2", Name: "bad", Arguments: "{}"},
		{ID: "c3", Name: "ok", Arguments: "{}"},
	}}
	_, err := reg.Run(context.Background(), resp)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v", calls)
	}
}
