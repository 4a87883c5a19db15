// Package llm provides completion-provider clients for the insights
// pipeline. Both OpenAI-compatible and Anthropic endpoints are supported
// behind one interface so the pipeline can swap models without caring which
// vendor serves them.
package llm

import "context"

// Message is one conversation turn sent to the provider.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is a single completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Result is a completed response with token accounting.
type Result struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the completion capability used by the synthesizers. Use this
// interface for dependency injection to enable mocking in tests.
type Client interface {
	// Complete generates a chat completion for the request.
	Complete(ctx context.Context, req *Request) (*Result, error)

	// Model returns the configured model name.
	Model() string
}
