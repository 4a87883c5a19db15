package sql

import (
	"regexp"
	"strings"
)

// PIIColumns are attendee columns that must never appear in a query or
// reach the user. The guard blocks the whole query when one is referenced;
// the synthesis prompt separately instructs the model to omit them, so an
// honest model rarely trips this check.
var PIIColumns = []string{
	"email",
	"phone",
	"mobile_phone",
	"mailing_address",
	"address_line1",
	"address_line2",
	"postal_code",
	"passport_number",
	"date_of_birth",
	"notes",
}

// piiPattern matches any PII column as a whole token. Word-boundary
// matching treats underscores as identifier characters, so "company_name"
// is never flagged for containing "name", and "emails" is not a hit for
// "email". The match runs on the raw text: qualified names
// (schema.table.column), alias forms, wrapping functions, and even
// commented-out references all still contain the bare token, and comment
// stripping is deliberately not attempted.
var piiPattern = buildPIIPattern(PIIColumns)

func buildPIIPattern(cols []string) *regexp.Regexp {
	escaped := make([]string, len(cols))
	for i, c := range cols {
		escaped[i] = regexp.QuoteMeta(c)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// ContainsPII reports whether the text references any PII column. Pure
// function, no I/O.
func ContainsPII(text string) bool {
	return piiPattern.MatchString(text)
}
