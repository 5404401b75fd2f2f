// Package llm provides a unified abstraction over multiple LLM providers.
//
// It exposes a consistent API for OpenAI, Google Gemini (via Vertex AI), and
// Anthropic Claude (via Vertex AI), with streaming responses and function
// calling. Every generation streams internally: callers either consume the
// live event sequence via Response.Stream, or materialize the whole turn via
// Response.Buffer.
package llm
