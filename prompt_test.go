package llm

import "testing"

func TestPrompt_Build(t *testing.T) {
	p := SystemPrompt("You are terse.").AddUser("hi")
	msgs := p.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Text() != "You are terse." {
		t.Fatalf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Role != RoleUser || msgs[1].Text() != "hi" {
		t.Fatalf("msgs[1] = %+v", msgs[1])
	}
}

func TestPrompt_ToolRoundTrip(t *testing.T) {
	resp := &CompleteResponse{
		Content:       "Let me check.",
		FunctionCalls: []FunctionCall{{ID: "call_1", Name: "get_weather", Arguments: `{"city":"SF"}`}},
		FinishReason:  FinishReasonToolCalls,
	}

	p := UserPrompt("weather in SF?").
		AddResponse(resp).
		AddToolResult("call_1", "sunny, 21C")

	msgs := p.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d", len(msgs))
	}
	assistant := msgs[1]
	if assistant.Role != RoleAssistant || assistant.Text() != "Let me check." {
		t.Fatalf("assistant = %+v", assistant)
	}
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
		t.Fatalf("tool calls = %+v", assistant.ToolCalls)
	}
	result := msgs[2]
	if result.Role != RoleTool || result.ToolCallID != "call_1" || result.Text() != "sunny, 21C" {
		t.Fatalf("result = %+v", result)
	}
}

func TestPrompt_Request(t *testing.T) {
	req := UserPrompt("hi").Request("gpt-4o", WithTemperature(0.2), WithMaxTokens(64))
	if req.Model != "gpt-4o" {
		t.Fatalf("Model = %q", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != 0.2 {
		t.Fatalf("Temperature = %v", req.Temperature)
	}
	if req.MaxTokens == nil || *req.MaxTokens != 64 {
		t.Fatalf("MaxTokens = %v", req.MaxTokens)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("Messages = %+v", req.Messages)
	}
}

func TestRequest_WithReturnsCopy(t *testing.T) {
	base := Request{Model: "a", Messages: []Message{User("hi")}}
	derived := base.With(WithModel("b"), WithStop("END"))
	if base.Model != "a" || base.Stop != nil {
		t.Fatalf("base mutated: %+v", base)
	}
	if derived.Model != "b" || len(derived.Stop) != 1 {
		t.Fatalf("derived = %+v", derived)
	}
	derived.Messages[0].Parts[0].Text = "changed"
	if base.Messages[0].Parts[0].Text != "hi" {
		t.Fatalf("base message mutated")
	}
}
