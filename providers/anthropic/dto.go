package anthropic

import "encoding/json"

// messagesRequest models the Claude-on-Vertex wire format. Vertex moves the
// model out of the body and into the URL, and replaces the model field with
// anthropic_version.
type messagesRequest struct {
	AnthropicVersion string       `json:"anthropic_version"`
	Messages         []apiMessage `json:"messages"`
	MaxTokens        int          `json:"max_tokens"`

	System        string         `json:"system,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
	StopSequences []string       `json:"stop_sequences,omitempty"`
	Tools         []apiTool      `json:"tools,omitempty"`
	ToolChoice    *apiToolChoice `json:"tool_choice,omitempty"`
	Stream        bool           `json:"stream"`
}

type apiMessage struct {
	Role string `json:"role"`
	// Content is either a plain string or []apiContentBlock.
	Content any `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`

	// type "text"
	Text string `json:"text,omitempty"`

	// type "tool_use"
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// type "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type apiTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type apiToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// streamEvent is the union of the native start/delta/stop frames. Type
// selects which of the remaining fields are meaningful.
type streamEvent struct {
	Type string `json:"type"`

	Index        int              `json:"index"`
	Message      *messageStart    `json:"message,omitempty"`
	ContentBlock *apiContentBlock `json:"content_block,omitempty"`
	Delta        *eventDelta      `json:"delta,omitempty"`
	Usage        *apiUsage        `json:"usage,omitempty"`
	Error        *apiError        `json:"error,omitempty"`
}

type messageStart struct {
	ID    string    `json:"id"`
	Model string    `json:"model"`
	Usage *apiUsage `json:"usage,omitempty"`
}

// eventDelta covers both content_block_delta payloads (text_delta,
// input_json_delta) and message_delta payloads (stop_reason).
type eventDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

type apiUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}
