package llm

// Request is the canonical, provider-agnostic generation request. Optional
// scalar fields are pointers so that "unset" and "zero" stay distinct; each
// provider maps only the fields its wire format supports.
type Request struct {
	Model    string
	Messages []Message

	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	PresencePenalty  *float64
	FrequencyPenalty *float64
	Stop             []string

	Tools      []ToolDefinition
	ToolChoice *ToolChoice

	// Extra carries provider-specific top-level JSON fields. Values must be
	// JSON-marshalable.
	Extra map[string]any
}

func (r Request) Clone() Request {
	out := r
	out.Messages = append([]Message(nil), r.Messages...)
	for i := range out.Messages {
		out.Messages[i] = out.Messages[i].Clone()
	}
	if r.Tools != nil {
		out.Tools = append([]ToolDefinition(nil), r.Tools...)
	}
	if r.ToolChoice != nil {
		v := *r.ToolChoice
		out.ToolChoice = &v
	}
	if r.Stop != nil {
		out.Stop = append([]string(nil), r.Stop...)
	}
	if r.Extra != nil {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// With returns a copy of the request with the options applied.
func (r Request) With(opts ...RequestOption) Request {
	out := r.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

// RequestOption mutates a Request. Options are assembled by callers outside
// the streaming core; the core only ever sees the resulting Request value.
type RequestOption func(*Request)

func WithModel(model string) RequestOption {
	return func(r *Request) { r.Model = model }
}

func WithTemperature(t float64) RequestOption {
	return func(r *Request) { r.Temperature = &t }
}

func WithTopP(p float64) RequestOption {
	return func(r *Request) { r.TopP = &p }
}

func WithMaxTokens(n int) RequestOption {
	return func(r *Request) { r.MaxTokens = &n }
}

func WithPresencePenalty(p float64) RequestOption {
	return func(r *Request) { r.PresencePenalty = &p }
}

func WithFrequencyPenalty(p float64) RequestOption {
	return func(r *Request) { r.FrequencyPenalty = &p }
}

func WithStop(stop ...string) RequestOption {
	return func(r *Request) { r.Stop = append([]string(nil), stop...) }
}

func WithTools(tools ...ToolDefinition) RequestOption {
	return func(r *Request) { r.Tools = append([]ToolDefinition(nil), tools...) }
}

func WithToolChoice(tc ToolChoice) RequestOption {
	return func(r *Request) { r.ToolChoice = &tc }
}

func WithExtra(key string, value any) RequestOption {
	return func(r *Request) {
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[key] = value
	}
}
