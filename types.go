package llm

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

type ContentPartType string

const (
	ContentPartText       ContentPartType = "text"
	ContentPartImage      ContentPartType = "image"
	ContentPartToolResult ContentPartType = "tool_result"
)

// ContentPart is a provider-agnostic "message content segment".
//
// Many providers represent message content as an array of parts (text, image,
// tool result). Keeping this as a first-class concept makes it easier to map
// to/from different APIs.
type ContentPart struct {
	Type ContentPartType `json:"type"`

	// Text is used by ContentPartText and ContentPartToolResult.
	Text string `json:"text,omitempty"`

	// URL/MIME are for image references, if a provider supports them.
	URL  string `json:"url,omitempty"`
	MIME string `json:"mime,omitempty"`

	// ToolCallID links a tool_result part to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

func TextPart(text string) ContentPart { return ContentPart{Type: ContentPartText, Text: text} }
func ImagePart(url, mime string) ContentPart {
	return ContentPart{Type: ContentPartImage, URL: url, MIME: mime}
}

// Message is a canonical chat message.
//
// For tool results, use RoleTool with ToolCallID set.
// For assistant tool calls, use ToolCalls.
type Message struct {
	Role Role

	Parts []ContentPart

	ToolCallID string
	ToolCalls  []FunctionCall
}

func System(text string) Message {
	return Message{Role: RoleSystem, Parts: []ContentPart{TextPart(text)}}
}
func User(text string) Message { return Message{Role: RoleUser, Parts: []ContentPart{TextPart(text)}} }
func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Parts: []ContentPart{TextPart(text)}}
}
func ToolResult(toolCallID string, text string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Parts: []ContentPart{TextPart(text)}}
}

func (m Message) Clone() Message {
	out := m
	if m.Parts != nil {
		out.Parts = make([]ContentPart, len(m.Parts))
		copy(out.Parts, m.Parts)
	}
	if m.ToolCalls != nil {
		out.ToolCalls = append([]FunctionCall(nil), m.ToolCalls...)
	}
	return out
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == ContentPartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// FunctionCall is a completed tool/function call requested by the model.
//
// Arguments is the fully concatenated JSON text; it is only produced once the
// stream's accumulated argument buffer parses as a single JSON value.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments string
}

type ToolDefinition struct {
	Name        string
	Description string

	// InputSchema is typically a JSON Schema object.
	InputSchema json.RawMessage
}

type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceFunction ToolChoiceMode = "function"
)

// ToolChoice models the caller's preference for tool usage.
//
// For ToolChoiceFunction, set FunctionName.
type ToolChoice struct {
	Mode         ToolChoiceMode
	FunctionName string
}

// Usage is a token usage snapshot.
//
// Providers differ on whether usage arrives once or incrementally; merging is
// last-non-zero-wins per field, never cumulative addition.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CachedTokens int
}

func (u Usage) merge(in Usage) Usage {
	if in.InputTokens != 0 {
		u.InputTokens = in.InputTokens
	}
	if in.OutputTokens != 0 {
		u.OutputTokens = in.OutputTokens
	}
	if in.CachedTokens != 0 {
		u.CachedTokens = in.CachedTokens
	}
	return u
}

// CompleteResponse is a fully materialized assistant turn.
type CompleteResponse struct {
	// Content is the concatenated text output.
	Content string

	// FunctionCalls are ordered by first appearance of their addressing key
	// in the stream, regardless of how argument fragments interleaved.
	FunctionCalls []FunctionCall

	FinishReason FinishReason
	Usage        Usage
}

// Messages converts the completed turn back into canonical messages suitable
// for appending to a transcript: exactly one assistant message carrying the
// text and any tool calls.
func (r *CompleteResponse) Messages() []Message {
	msg := Message{Role: RoleAssistant}
	if r.Content != "" {
		msg.Parts = []ContentPart{TextPart(r.Content)}
	}
	if len(r.FunctionCalls) > 0 {
		msg.ToolCalls = append([]FunctionCall(nil), r.FunctionCalls...)
	}
	return []Message{msg}
}
