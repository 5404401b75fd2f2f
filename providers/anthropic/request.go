package anthropic

import (
	"encoding/json"
	"strings"

	llm "github.com/platformed-com/platformed-llm"
)

// The API requires max_tokens; this is the fallback when the request leaves
// it unset.
const defaultMaxTokens = 1024

const anthropicVersion = "vertex-2023-10-16"

// mapRequest converts a canonical request to the messages format. System
// messages move to the top-level system field; assistant tool calls become
// tool_use blocks and tool results become tool_result blocks on the user
// side.
func mapRequest(req llm.Request) (*messagesRequest, error) {
	out := &messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        defaultMaxTokens,
		Stream:           true,
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	out.Temperature = req.Temperature
	out.TopP = req.TopP
	out.StopSequences = req.Stop

	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Text())

		case llm.RoleUser:
			out.Messages = append(out.Messages, apiMessage{Role: "user", Content: m.Text()})

		case llm.RoleAssistant:
			msg := apiMessage{Role: "assistant"}
			if len(m.ToolCalls) == 0 {
				msg.Content = m.Text()
			} else {
				var blocks []apiContentBlock
				if text := m.Text(); text != "" {
					blocks = append(blocks, apiContentBlock{Type: "text", Text: text})
				}
				for _, tc := range m.ToolCalls {
					input := json.RawMessage(tc.Arguments)
					if len(input) == 0 {
						input = json.RawMessage("{}")
					}
					if !json.Valid(input) {
						return nil, &llm.LLMError{
							Kind:    llm.ErrKindSerialization,
							Message: "tool call arguments are not valid JSON: " + tc.Name,
						}
					}
					blocks = append(blocks, apiContentBlock{
						Type:  "tool_use",
						ID:    tc.ID,
						Name:  tc.Name,
						Input: input,
					})
				}
				msg.Content = blocks
			}
			out.Messages = append(out.Messages, msg)

		case llm.RoleTool:
			block := apiContentBlock{
				Type:      "tool_result",
				ToolUseID: m.ToolCallID,
				Content:   m.Text(),
			}
			// Consecutive tool results share one user message.
			if n := len(out.Messages); n > 0 && isToolResultMessage(out.Messages[n-1]) {
				blocks := out.Messages[n-1].Content.([]apiContentBlock)
				out.Messages[n-1].Content = append(blocks, block)
			} else {
				out.Messages = append(out.Messages, apiMessage{
					Role:    "user",
					Content: []apiContentBlock{block},
				})
			}
		}
	}
	out.System = strings.Join(system, "\n\n")

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, apiTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	if req.ToolChoice != nil {
		out.ToolChoice = mapToolChoice(*req.ToolChoice)
	}

	return out, nil
}

func mapToolChoice(tc llm.ToolChoice) *apiToolChoice {
	switch tc.Mode {
	case llm.ToolChoiceNone:
		return &apiToolChoice{Type: "none"}
	case llm.ToolChoiceRequired:
		return &apiToolChoice{Type: "any"}
	case llm.ToolChoiceFunction:
		return &apiToolChoice{Type: "tool", Name: tc.FunctionName}
	default:
		return &apiToolChoice{Type: "auto"}
	}
}

func isToolResultMessage(m apiMessage) bool {
	if m.Role != "user" {
		return false
	}
	blocks, ok := m.Content.([]apiContentBlock)
	if !ok {
		return false
	}
	for _, b := range blocks {
		if b.Type == "tool_result" {
			return true
		}
	}
	return false
}
