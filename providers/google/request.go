package google

import (
	"encoding/json"

	llm "github.com/platformed-com/platformed-llm"
)

// mapRequest converts a canonical request to Gemini's content format. System
// messages move to systemInstruction, assistant turns use the "model" role,
// and tool traffic is expressed as functionCall / functionResponse parts.
func mapRequest(req llm.Request) (*generateContentRequest, error) {
	out := &generateContentRequest{}

	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			if out.SystemInstruction == nil {
				out.SystemInstruction = &apiContent{Role: "user"}
			}
			out.SystemInstruction.Parts = append(out.SystemInstruction.Parts, apiPart{Text: m.Text()})

		case llm.RoleUser:
			out.Contents = append(out.Contents, apiContent{Role: "user", Parts: userParts(m)})

		case llm.RoleAssistant:
			content := apiContent{Role: "model"}
			if text := m.Text(); text != "" {
				content.Parts = append(content.Parts, apiPart{Text: text})
			}
			for _, tc := range m.ToolCalls {
				args := json.RawMessage(tc.Arguments)
				if len(args) == 0 {
					args = json.RawMessage("{}")
				}
				if !json.Valid(args) {
					return nil, &llm.LLMError{
						Kind:    llm.ErrKindSerialization,
						Message: "tool call arguments are not valid JSON: " + tc.Name,
					}
				}
				content.Parts = append(content.Parts, apiPart{
					FunctionCall: &apiFunctionCall{Name: tc.Name, Args: args},
				})
			}
			if len(content.Parts) > 0 {
				out.Contents = append(out.Contents, content)
			}

		case llm.RoleTool:
			part := apiPart{FunctionResponse: &apiFunctionResponse{
				Name:     functionNameForResult(out.Contents, m.ToolCallID),
				Response: map[string]any{"result": m.Text()},
			}}
			// Consecutive tool results share one user content.
			if n := len(out.Contents); n > 0 && isFunctionResponseContent(out.Contents[n-1]) {
				out.Contents[n-1].Parts = append(out.Contents[n-1].Parts, part)
			} else {
				out.Contents = append(out.Contents, apiContent{Role: "user", Parts: []apiPart{part}})
			}
		}
	}

	if req.Temperature != nil || req.TopP != nil || req.MaxTokens != nil || len(req.Stop) > 0 {
		out.GenerationConfig = &apiGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
			StopSequences:   req.Stop,
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]apiFunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, apiFunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			})
		}
		out.Tools = []apiTool{{FunctionDeclarations: decls}}
	}
	if req.ToolChoice != nil {
		out.ToolConfig = mapToolChoice(*req.ToolChoice)
	}

	return out, nil
}

func userParts(m llm.Message) []apiPart {
	parts := make([]apiPart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Type {
		case llm.ContentPartImage:
			parts = append(parts, apiPart{InlineData: &apiInlineData{MIMEType: p.MIME, Data: p.URL}})
		default:
			parts = append(parts, apiPart{Text: p.Text})
		}
	}
	return parts
}

func mapToolChoice(tc llm.ToolChoice) *apiToolConfig {
	cfg := apiFunctionCallingConfig{Mode: "AUTO"}
	switch tc.Mode {
	case llm.ToolChoiceNone:
		cfg.Mode = "NONE"
	case llm.ToolChoiceRequired:
		cfg.Mode = "ANY"
	case llm.ToolChoiceFunction:
		cfg.Mode = "ANY"
		cfg.AllowedFunctionNames = []string{tc.FunctionName}
	}
	return &apiToolConfig{FunctionCallingConfig: cfg}
}

// functionNameForResult recovers the function name a tool result answers.
// The wire format keys responses by name rather than call ID, so results are
// matched to calls positionally: the Nth response answers the Nth call.
func functionNameForResult(contents []apiContent, callID string) string {
	responses := 0
	for _, c := range contents {
		if c.Role != "user" {
			continue
		}
		for _, p := range c.Parts {
			if p.FunctionResponse != nil {
				responses++
			}
		}
	}
	calls := 0
	for _, c := range contents {
		if c.Role != "model" {
			continue
		}
		for _, p := range c.Parts {
			if p.FunctionCall == nil {
				continue
			}
			if calls == responses {
				return p.FunctionCall.Name
			}
			calls++
		}
	}
	return "unknown"
}

func isFunctionResponseContent(c apiContent) bool {
	if c.Role != "user" {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse != nil {
			return true
		}
	}
	return false
}
