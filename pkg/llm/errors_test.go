package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"nil", nil, "", false},
		{"401 status", errors.New("API returned 401"), ErrorTypeAuth, false},
		{"invalid key", errors.New("invalid api key provided"), ErrorTypeAuth, false},
		{"forbidden", errors.New("403 Forbidden"), ErrorTypeAuth, false},
		{"model missing", errors.New("the model `gpt-9` does not exist"), ErrorTypeModel, false},
		{"model not available", errors.New("model not available in this region"), ErrorTypeModel, false},
		{"endpoint 404", errors.New("404 page not found"), ErrorTypeEndpoint, false},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrorTypeEndpoint, true},
		{"timeout", errors.New("context deadline exceeded (timeout)"), ErrorTypeEndpoint, true},
		{"rate limit", errors.New("429 Too Many Requests"), ErrorTypeUnknown, true},
		{"server error", errors.New("502 Bad Gateway"), ErrorTypeEndpoint, true},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if tt.err == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyError_PassesThroughStructured(t *testing.T) {
	orig := NewError(ErrorTypeModel, "model unavailable", false, nil)
	got := ClassifyError(fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, got)
}

func TestIsAccessError(t *testing.T) {
	assert.True(t, IsAccessError(NewError(ErrorTypeAuth, "authorization failed", false, nil)))
	assert.True(t, IsAccessError(NewError(ErrorTypeModel, "model unavailable", false, nil)))
	assert.False(t, IsAccessError(NewError(ErrorTypeEndpoint, "server error", true, nil)))
	assert.False(t, IsAccessError(errors.New("plain error")))
	assert.False(t, IsAccessError(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrorTypeEndpoint, "server error", true, nil)))
	assert.False(t, IsRetryable(NewError(ErrorTypeAuth, "authorization failed", false, nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestErrorString(t *testing.T) {
	e := &Error{Type: ErrorTypeAuth, Message: "authorization failed", StatusCode: 401}
	assert.Equal(t, "auth HTTP 401 authorization failed", e.Error())

	cause := errors.New("boom")
	e = NewError(ErrorTypeUnknown, "llm error", false, cause)
	assert.Equal(t, "unknown llm error: boom", e.Error())
	assert.Same(t, cause, e.Unwrap())
}
