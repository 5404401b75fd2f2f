package llm

// Prompt is an ordered conversation transcript. Messages are immutable once
// appended; multi-turn tool use is built by appending the completed assistant
// turn and then the tool results derived from it, in that order.
type Prompt struct {
	messages []Message
}

// NewPrompt creates a transcript from the given messages.
func NewPrompt(messages ...Message) *Prompt {
	p := &Prompt{}
	p.messages = append(p.messages, messages...)
	return p
}

// SystemPrompt creates a transcript opening with a system message.
func SystemPrompt(text string) *Prompt { return NewPrompt(System(text)) }

// UserPrompt creates a transcript opening with a user message.
func UserPrompt(text string) *Prompt { return NewPrompt(User(text)) }

func (p *Prompt) Add(messages ...Message) *Prompt {
	p.messages = append(p.messages, messages...)
	return p
}

func (p *Prompt) AddUser(text string) *Prompt { return p.Add(User(text)) }

func (p *Prompt) AddSystem(text string) *Prompt { return p.Add(System(text)) }

// AddResponse appends a completed assistant turn to the transcript.
func (p *Prompt) AddResponse(resp *CompleteResponse) *Prompt {
	return p.Add(resp.Messages()...)
}

// AddToolResult appends the output of one tool call as a tool message. It
// must follow the assistant turn that requested the call.
func (p *Prompt) AddToolResult(callID, output string) *Prompt {
	return p.Add(ToolResult(callID, output))
}

// Messages returns the transcript in order. The returned slice is shared;
// callers must not mutate it.
func (p *Prompt) Messages() []Message { return p.messages }

// Request builds a canonical request from the transcript.
func (p *Prompt) Request(model string, opts ...RequestOption) Request {
	return Request{Model: model, Messages: p.messages}.With(opts...)
}
