package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSafeSelect_Valid(t *testing.T) {
	got, err := EnsureSafeSelect("  SELECT company_name FROM attendee LIMIT 10  ")
	require.NoError(t, err)
	assert.Equal(t, "SELECT company_name FROM attendee LIMIT 10", got)

	got, err = EnsureSafeSelect("select count(*) from attendee")
	require.NoError(t, err)
	assert.Equal(t, "select count(*) from attendee", got)
}

func TestEnsureSafeSelect_Idempotent(t *testing.T) {
	once, err := EnsureSafeSelect(" SELECT city FROM attendee ")
	require.NoError(t, err)
	twice, err := EnsureSafeSelect(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestEnsureSafeSelect_RejectsNonSelect(t *testing.T) {
	for _, q := range []string{
		"WITH x AS (SELECT 1) SELECT * FROM x",
		"EXPLAIN SELECT 1",
		"",
	} {
		_, err := EnsureSafeSelect(q)
		require.Error(t, err, "query: %q", q)
		var notSelect *NotSelectError
		assert.ErrorAs(t, err, &notSelect, "query: %q", q)
	}
}

func TestEnsureSafeSelect_WriteStatementReportsKeyword(t *testing.T) {
	// A write statement is reported by its keyword, not as a generic
	// non-SELECT, so the caller can surface which operation was blocked.
	tests := []struct {
		query   string
		keyword string
	}{
		{"DROP TABLE attendee", "drop"},
		{"UPDATE attendee SET city = 'x'", "update"},
		{"DELETE FROM attendee", "delete"},
		{"INSERT INTO attendee VALUES (1)", "insert"},
		{"TRUNCATE attendee", "truncate"},
	}

	for _, tt := range tests {
		_, err := EnsureSafeSelect(tt.query)
		var forbidden *ForbiddenKeywordError
		require.ErrorAs(t, err, &forbidden, "query: %q", tt.query)
		assert.Equal(t, "Forbidden keyword detected: "+tt.keyword, err.Error())
	}
}

func TestEnsureSafeSelect_RejectsSemicolons(t *testing.T) {
	_, err := EnsureSafeSelect("SELECT 1; SELECT 2")
	var semi *SemicolonError
	assert.ErrorAs(t, err, &semi)

	_, err = EnsureSafeSelect("SELECT 1;")
	assert.ErrorAs(t, err, &semi)
}

func TestEnsureSafeSelect_ForbiddenKeyword(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		keyword string
	}{
		{"drop after select", "SELECT 1 UNION DROP TABLE attendee", "drop"},
		{"delete in subtext", "SELECT * FROM attendee WHERE delete", "delete"},
		{"mixed case", "SELECT 1 WHERE TRUNCATE", "truncate"},
		{"alter", "SELECT 1 alter table x", "alter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EnsureSafeSelect(tt.query)
			var forbidden *ForbiddenKeywordError
			require.ErrorAs(t, err, &forbidden)
			assert.Equal(t, tt.keyword, forbidden.Keyword)
			assert.Equal(t, "Forbidden keyword detected: "+tt.keyword, err.Error())
		})
	}
}

func TestEnsureSafeSelect_KeywordInsideIdentifierAllowed(t *testing.T) {
	// "updated_at" must not trip the "update" keyword check.
	got, err := EnsureSafeSelect("SELECT updated_at FROM attendee")
	require.NoError(t, err)
	assert.Equal(t, "SELECT updated_at FROM attendee", got)
}

func TestForceLimit(t *testing.T) {
	tests := []struct {
		name  string
		query string
		max   int
		want  string
	}{
		{
			"missing limit appended",
			"SELECT city FROM attendee",
			50,
			"SELECT city FROM attendee LIMIT 50",
		},
		{
			"in-range limit preserved",
			"SELECT city FROM attendee LIMIT 10",
			50,
			"SELECT city FROM attendee LIMIT 10",
		},
		{
			"over-limit value replaced",
			"SELECT city FROM attendee LIMIT 9999999",
			50,
			"SELECT city FROM attendee LIMIT 50",
		},
		{
			"zero replaced",
			"SELECT city FROM attendee LIMIT 0",
			50,
			"SELECT city FROM attendee LIMIT 50",
		},
		{
			"malformed value replaced",
			"SELECT city FROM attendee LIMIT all",
			50,
			"SELECT city FROM attendee LIMIT 50",
		},
		{
			"offset preserved",
			"SELECT city FROM attendee LIMIT 500 OFFSET 20",
			50,
			"SELECT city FROM attendee LIMIT 50 OFFSET 20",
		},
		{
			"lowercase limit",
			"select city from attendee limit 200",
			50,
			"select city from attendee limit 50",
		},
		{
			"trailing whitespace trimmed before append",
			"SELECT city FROM attendee\n",
			25,
			"SELECT city FROM attendee LIMIT 25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForceLimit(tt.query, tt.max))
		})
	}
}

func TestForceLimit_Idempotent(t *testing.T) {
	q := "SELECT city FROM attendee LIMIT 9999"
	once := ForceLimit(q, 50)
	assert.Equal(t, once, ForceLimit(once, 50))
}
