package openai

import (
	llm "github.com/platformed-com/platformed-llm"
)

func (p *Provider) mapRequest(req llm.Request) map[string]any {
	model := req.Model
	if model == "" {
		model = p.model
	}

	wmessages := make([]apiMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		wm := apiMessage{Role: string(m.Role), Content: mapContent(m)}
		if m.Role == llm.RoleTool {
			wm.ToolCallID = m.ToolCallID
		}
		for i, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, apiToolCall{
				Index: i,
				ID:    tc.ID,
				Type:  "function",
				Function: apiFunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		wmessages = append(wmessages, wm)
	}

	body := map[string]any{
		"model":    model,
		"messages": wmessages,
		"stream":   true,
		// Request a final usage chunk with the terminal frame.
		"stream_options": map[string]any{"include_usage": true},
	}

	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		body["top_p"] = *req.TopP
	}
	if req.MaxTokens != nil {
		body["max_completion_tokens"] = *req.MaxTokens
	}
	if req.PresencePenalty != nil {
		body["presence_penalty"] = *req.PresencePenalty
	}
	if req.FrequencyPenalty != nil {
		body["frequency_penalty"] = *req.FrequencyPenalty
	}
	if len(req.Stop) > 0 {
		body["stop"] = req.Stop
	}

	if len(req.Tools) > 0 {
		wtools := make([]apiTool, 0, len(req.Tools))
		for _, t := range req.Tools {
			wtools = append(wtools, apiTool{
				Type: "function",
				Function: apiFunctionDef{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.InputSchema,
				},
			})
		}
		body["tools"] = wtools
	}
	if req.ToolChoice != nil {
		body["tool_choice"] = mapToolChoice(*req.ToolChoice)
	}

	for k, v := range req.Extra {
		body[k] = v
	}
	return body
}

// mapContent flattens message parts to the simplest wire representation:
// plain strings where possible, typed part arrays otherwise.
func mapContent(m llm.Message) any {
	if m.Role == llm.RoleTool {
		return m.Text()
	}
	if len(m.Parts) == 0 {
		return ""
	}
	if len(m.Parts) == 1 && m.Parts[0].Type == llm.ContentPartText {
		return m.Parts[0].Text
	}
	out := make([]any, 0, len(m.Parts))
	for _, part := range m.Parts {
		switch part.Type {
		case llm.ContentPartImage:
			out = append(out, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": part.URL},
			})
		default:
			out = append(out, map[string]any{"type": "text", "text": part.Text})
		}
	}
	return out
}

func mapToolChoice(tc llm.ToolChoice) any {
	switch tc.Mode {
	case llm.ToolChoiceNone:
		return "none"
	case llm.ToolChoiceRequired:
		return "required"
	case llm.ToolChoiceFunction:
		return map[string]any{
			"type": "function",
			"function": map[string]any{
				"name": tc.FunctionName,
			},
		}
	case llm.ToolChoiceAuto:
		fallthrough
	default:
		return "auto"
	}
}
