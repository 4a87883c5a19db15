package llm

import (
	"context"
)

// MockClient is a configurable mock for testing completion-dependent code.
// Set CompleteFunc to control behavior; calls are recorded for inspection.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked. If nil, an empty
	// result and nil error are returned.
	CompleteFunc func(ctx context.Context, req *Request) (*Result, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// CompleteCalls records every request passed to Complete.
	CompleteCalls []*Request
}

// NewMockClient creates a mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{ModelName: "mock-model"}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req *Request) (*Result, error) {
	m.CompleteCalls = append(m.CompleteCalls, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &Result{}, nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears recorded calls.
func (m *MockClient) Reset() {
	m.CompleteCalls = nil
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
