// Package sql provides the static SQL guard applied to every synthesized
// query before execution. The guard is pure: it validates and rewrites
// text, never touching the database.
package sql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NotSelectError indicates the statement does not begin with SELECT.
type NotSelectError struct {
	SQL string
}

func (e *NotSelectError) Error() string {
	return "only SELECT statements are allowed"
}

// SemicolonError indicates the statement contains a semicolon, which could
// be used to stack additional statements.
type SemicolonError struct{}

func (e *SemicolonError) Error() string {
	return "semicolons are not allowed in queries"
}

// ForbiddenKeywordError indicates a write/DDL keyword was found anywhere in
// the statement, including after a valid leading SELECT.
type ForbiddenKeywordError struct {
	Keyword string
}

func (e *ForbiddenKeywordError) Error() string {
	return fmt.Sprintf("Forbidden keyword detected: %s", e.Keyword)
}

// forbiddenKeywords are rejected as whole tokens anywhere in the query.
// A leading SELECT does not exempt the rest of the text; this defends
// against SELECT-then-append injection.
var forbiddenKeywords = []string{"insert", "update", "delete", "drop", "alter", "truncate"}

var forbiddenPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|truncate)\b`)

// EnsureSafeSelect validates that sql is a single read-only SELECT
// statement and returns it trimmed. The forbidden-keyword scan runs first
// so a write statement is always reported by the keyword it carries; a
// valid SELECT can never start with one, so the SELECT-prefix check still
// catches everything else. The result is idempotent:
// EnsureSafeSelect(EnsureSafeSelect(s)) == EnsureSafeSelect(s).
func EnsureSafeSelect(sqlQuery string) (string, error) {
	trimmed := strings.TrimSpace(sqlQuery)

	if m := forbiddenPattern.FindString(trimmed); m != "" {
		return "", &ForbiddenKeywordError{Keyword: strings.ToLower(m)}
	}

	if strings.ContainsRune(trimmed, ';') {
		return "", &SemicolonError{}
	}

	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return "", &NotSelectError{SQL: trimmed}
	}

	return trimmed, nil
}

// limitPattern matches a LIMIT clause and its value. The value may be
// non-numeric when the model emitted something malformed; ForceLimit still
// replaces it with a valid ceiling. A trailing OFFSET clause is untouched
// because only the value token is rewritten.
var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+(\S+)`)

// ForceLimit guarantees the query carries a row-count ceiling of at most
// max. An existing in-range LIMIT is preserved; an over-limit or malformed
// value is replaced; a missing clause is appended.
func ForceLimit(sqlQuery string, max int) string {
	loc := limitPattern.FindStringSubmatchIndex(sqlQuery)
	if loc == nil {
		return strings.TrimRight(sqlQuery, " \t\n\r") + fmt.Sprintf(" LIMIT %d", max)
	}

	valStart, valEnd := loc[2], loc[3]
	val := strings.TrimRight(sqlQuery[valStart:valEnd], ";,)")
	valEnd = valStart + len(val)

	n, err := strconv.Atoi(val)
	if err != nil || n > max || n < 1 {
		return sqlQuery[:valStart] + strconv.Itoa(max) + sqlQuery[valEnd:]
	}

	return sqlQuery
}
