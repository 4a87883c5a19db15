package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenQuestion_DetectsInjection(t *testing.T) {
	tests := []string{
		"' OR 1=1 --",
		"1' UNION SELECT password FROM users--",
		"'; DROP TABLE attendee; --",
	}

	for _, q := range tests {
		check := ScreenQuestion(q)
		require.NotNil(t, check, "should flag: %q", q)
		assert.NotEmpty(t, check.Fingerprint)
		assert.Equal(t, q, check.Input)
	}
}

func TestScreenQuestion_AllowsNormalQuestions(t *testing.T) {
	tests := []string{
		"How many attendees are confirmed?",
		"What are the top 5 companies?",
		"Show attendees from Germany",
		"",
	}

	for _, q := range tests {
		assert.Nil(t, ScreenQuestion(q), "should not flag: %q", q)
	}
}

func TestScreenParameters(t *testing.T) {
	assert.Nil(t, ScreenParameters([]any{"Germany", 42, true}))

	check := ScreenParameters([]any{"Germany", "' OR 1=1 --"})
	require.NotNil(t, check)
	assert.Equal(t, "' OR 1=1 --", check.Input)
}
