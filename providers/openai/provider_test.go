package openai

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	llm "github.com/platformed-com/platformed-llm"
	"github.com/platformed-com/platformed-llm/internal/transport"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func sseResponse(r *http.Request, payload string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "text/event-stream")
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(payload)), Header: h, Request: r}
}

func newTestProvider(t *testing.T, rt roundTripperFunc) *Provider {
	t.Helper()
	p, err := New("test-key",
		WithBaseURL("https://example.test"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithDefaultModel("gpt-4o"),
	)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return p
}

func TestGenerate_TextStream(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Contains(body, []byte(`"stream":true`)) {
			t.Fatalf("request body missing stream flag: %s", body)
		}

		payload := strings.Join([]string{
			"data: " + `{"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant","content":"Hello"},"finish_reason":""}]}`,
			"",
			"data: " + `{"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":""}]}`,
			"",
			"data: " + `{"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
			"",
			"data: " + `{"id":"c1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`,
			"",
			"data: [DONE]",
			"",
		}, "\n") + "\n"
		return sseResponse(r, payload), nil
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	complete, err := resp.Buffer()
	if err != nil {
		t.Fatalf("Buffer() err=%v", err)
	}
	if complete.Content != "Hello world" {
		t.Fatalf("Content = %q", complete.Content)
	}
	if complete.FinishReason != llm.FinishReasonStop {
		t.Fatalf("FinishReason = %q", complete.FinishReason)
	}
	if complete.Usage.InputTokens != 7 || complete.Usage.OutputTokens != 2 {
		t.Fatalf("Usage = %+v", complete.Usage)
	}
}

func TestGenerate_SplitToolCall(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		payload := strings.Join([]string{
			"data: " + `{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\""}}]},"finish_reason":""}]}`,
			"",
			"data: " + `{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"SF\"}"}}]},"finish_reason":""}]}`,
			"",
			"data: " + `{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
			"",
			"data: [DONE]",
			"",
		}, "\n") + "\n"
		return sseResponse(r, payload), nil
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("weather in SF?")},
	})
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	complete, err := resp.Buffer()
	if err != nil {
		t.Fatalf("Buffer() err=%v", err)
	}
	if len(complete.FunctionCalls) != 1 {
		t.Fatalf("got %d calls, want 1", len(complete.FunctionCalls))
	}
	call := complete.FunctionCalls[0]
	if call.ID != "call_1" || call.Name != "get_weather" {
		t.Fatalf("call = %+v", call)
	}
	if call.Arguments != `{"location":"SF"}` {
		t.Fatalf("Arguments = %q", call.Arguments)
	}
	if complete.FinishReason != llm.FinishReasonToolCalls {
		t.Fatalf("FinishReason = %q", complete.FinishReason)
	}
}

func TestGenerate_LiveEvents(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		payload := strings.Join([]string{
			"data: " + `{"choices":[{"index":0,"delta":{"content":"Looking"},"finish_reason":""}]}`,
			"",
			"data: " + `{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_9","function":{"name":"lookup","arguments":"{}"}}]},"finish_reason":""}]}`,
			"",
			"data: " + `{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
			"",
			"data: [DONE]",
			"",
		}, "\n") + "\n"
		return sseResponse(r, payload), nil
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	stream, err := resp.Stream()
	if err != nil {
		t.Fatalf("Stream() err=%v", err)
	}
	defer stream.Close()

	var kinds []llm.StreamEventKind
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv() err=%v", err)
		}
		kinds = append(kinds, ev.Kind)
	}
	want := []llm.StreamEventKind{
		llm.StreamEventText,
		llm.StreamEventFunctionCallStart,
		llm.StreamEventFunctionCallEnd,
		llm.StreamEventFinished,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestGenerate_ErrorChunkTerminatesStream(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		payload := strings.Join([]string{
			"data: " + `{"choices":[{"index":0,"delta":{"content":"par"},"finish_reason":""}]}`,
			"",
			"data: " + `{"error":{"message":"overloaded","type":"server_error"}}`,
			"",
		}, "\n") + "\n"
		return sseResponse(r, payload), nil
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	if _, err := resp.Buffer(); err == nil {
		t.Fatal("Buffer() succeeded, want provider error")
	} else if le, ok := llm.AsLLMError(err); !ok || le.Kind != llm.ErrKindProvider {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerate_TruncatedStream(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		// Connection drops mid-event: no terminating blank line, no [DONE].
		payload := "data: " + `{"choices":[{"index":0,"delta":{"content":"par"},"finish_reason":""}]}` + "\n\n" +
			"data: {\"choices\":[{\"index\":0,\"delta\":{\"conte"
		return sseResponse(r, payload), nil
	})

	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	_, err = resp.Buffer()
	if le, ok := llm.AsLLMError(err); !ok || le.Kind != llm.ErrKindStreaming {
		t.Fatalf("err = %v, want streaming error", err)
	}
}

func TestGenerate_HTTPErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   llm.ErrorKind
	}{
		{http.StatusUnauthorized, `{"error":{"message":"bad key","code":"invalid_api_key"}}`, llm.ErrKindAuth},
		{http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, llm.ErrKindRateLimit},
		{http.StatusNotFound, `{"error":{"message":"no such model"}}`, llm.ErrKindModelNotAvailable},
	}
	for _, tt := range tests {
		p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: tt.status,
				Body:       io.NopCloser(strings.NewReader(tt.body)),
				Header:     make(http.Header),
				Request:    r,
			}, nil
		})
		_, err := p.Generate(context.Background(), llm.Request{
			Messages: []llm.Message{llm.User("hi")},
		})
		le, ok := llm.AsLLMError(err)
		if !ok {
			t.Fatalf("status %d: err = %v", tt.status, err)
		}
		if le.Kind != tt.kind {
			t.Fatalf("status %d: kind = %q, want %q", tt.status, le.Kind, tt.kind)
		}
		if le.HTTPStatus != tt.status {
			t.Fatalf("status %d: HTTPStatus = %d", tt.status, le.HTTPStatus)
		}
	}
}

func TestGenerate_RequiresModel(t *testing.T) {
	p, err := New("key", WithBaseURL("https://example.test"))
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	_, err = p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("hi")},
	})
	if le, ok := llm.AsLLMError(err); !ok || le.Kind != llm.ErrKindConfig {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestGenerate_SingleConsumption(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		return sseResponse(r, "data: [DONE]\n\n"), nil
	})
	resp, err := p.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	if _, err := resp.Buffer(); err != nil {
		t.Fatalf("Buffer() err=%v", err)
	}
	if _, err := resp.Stream(); !errors.Is(err, llm.ErrResponseConsumed) {
		t.Fatalf("second consumption err = %v", err)
	}
}

func jsonResponse(r *http.Request, status int, body string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: h, Request: r}
}

func TestModels(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/models" || r.Method != http.MethodGet {
			t.Fatalf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("Authorization = %q", got)
		}
		return jsonResponse(r, http.StatusOK,
			`{"data":[{"id":"gpt-4o","owned_by":"openai"},{"id":"gpt-4o-mini","owned_by":"openai"}]}`), nil
	})

	models, err := p.Models(context.Background())
	if err != nil {
		t.Fatalf("Models() err=%v", err)
	}
	if len(models) != 2 || models[0].ID != "gpt-4o" {
		t.Fatalf("models = %+v", models)
	}
}

func TestModels_RetriesRateLimit(t *testing.T) {
	attempts := 0
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return jsonResponse(r, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`), nil
		}
		return jsonResponse(r, http.StatusOK, `{"data":[]}`), nil
	})
	p.tr.Retry = transport.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	if _, err := p.Models(context.Background()); err != nil {
		t.Fatalf("Models() err=%v", err)
	}
	// Buffered calls retry transient failures; Generate's stream never does.
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestCheckModel_NotAvailable(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/models/gpt-nope" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		return jsonResponse(r, http.StatusNotFound,
			`{"error":{"message":"model not found","code":"model_not_found"}}`), nil
	})

	err := p.CheckModel(context.Background(), "gpt-nope")
	if le, ok := llm.AsLLMError(err); !ok || le.Kind != llm.ErrKindModelNotAvailable {
		t.Fatalf("err = %v, want model_not_available", err)
	}
}
