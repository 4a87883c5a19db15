package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"sql": "SELECT 1", "intent": "count"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"sql": "SELECT 1", "intent": "count"}`, got)
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	response := "```json\n{\"sql\": \"SELECT 1\"}\n```"
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"sql": "SELECT 1"}`, got)
}

func TestExtractJSON_ProseAroundPayload(t *testing.T) {
	response := `Here's the query you asked for: {"sql": "SELECT city FROM attendee"} Let me know if you need anything else.`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"sql": "SELECT city FROM attendee"}`, got)
}

func TestExtractJSON_ThinkTags(t *testing.T) {
	response := "<think>\nThe user wants a count.\n</think>\n{\"sql\": \"SELECT count(*) FROM attendee\"}"
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"sql": "SELECT count(*) FROM attendee"}`, got)
}

func TestExtractJSON_RawNewlinesRepaired(t *testing.T) {
	response := "{\"sql\": \"SELECT city\nFROM attendee\"}"
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"sql": "SELECT city\nFROM attendee"}`, got)
}

func TestExtractJSON_Array(t *testing.T) {
	got, err := ExtractJSON(`[1, 2, 3]`)
	require.NoError(t, err)
	assert.Equal(t, `[1, 2, 3]`, got)
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	response := `{"action": {"type": "sort", "column": "city"}} trailing`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, `{"action": {"type": "sort", "column": "city"}}`, got)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	response := `{"sql": "SELECT '{' FROM attendee"}`
	got, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, response, got)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I cannot answer that question.")
	assert.Error(t, err)

	_, err = ExtractJSON("")
	assert.Error(t, err)
}

func TestEscapeRawNewlines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"newline in string value",
			"{\"sql\": \"SELECT 1\nFROM t\"}",
			`{"sql": "SELECT 1\nFROM t"}`,
		},
		{
			"tab in string value",
			"{\"sql\": \"a\tb\"}",
			`{"sql": "a\tb"}`,
		},
		{
			"newlines outside strings untouched",
			"{\n\"sql\": \"SELECT 1\"\n}",
			"{\n\"sql\": \"SELECT 1\"\n}",
		},
		{
			"already escaped sequences untouched",
			`{"sql": "SELECT 1\nFROM t"}`,
			`{"sql": "SELECT 1\nFROM t"}`,
		},
		{
			"escaped quote does not end string",
			"{\"sql\": \"say \\\"hi\\\"\nthere\"}",
			`{"sql": "say \"hi\"\nthere"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeRawNewlines(tt.input))
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		SQL    string `json:"sql"`
		Intent string `json:"intent"`
	}

	got, err := ParseJSONResponse[payload]("Sure: {\"sql\": \"SELECT 1\", \"intent\": \"count\"}")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got.SQL)
	assert.Equal(t, "count", got.Intent)

	_, err = ParseJSONResponse[payload]("no json here")
	assert.Error(t, err)
}
