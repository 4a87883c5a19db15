// Package columns maps loose natural-language field names onto the
// canonical snake_case column identifiers of the attendee table.
package columns

import (
	"sort"
	"strings"
)

// synonyms maps common phrasings and typos to canonical column names.
// Inputs that already contain an underscore are assumed canonical and are
// never looked up here.
var synonyms = map[string]string{
	"company":        "company_name",
	"organization":   "company_name",
	"employer":       "company_name",
	"first name":     "first_name",
	"last name":      "last_name",
	"surname":        "last_name",
	"name":           "full_name",
	"full name":      "full_name",
	"title":          "job_title",
	"job":            "job_title",
	"role":           "job_title",
	"status":         "registration_status",
	"reg status":     "registration_status",
	"registration":   "registration_status",
	"type":           "attendee_type",
	"attendee type":  "attendee_type",
	"country":        "country",
	"city":           "city",
	"arrival":        "arrival_date",
	"arrival date":   "arrival_date",
	"arrival time":   "arrival_time",
	"departure":      "departure_date",
	"departure date": "departure_date",
	"hotel":          "hotel_name",
	"checkin":        "checked_in_at",
	"check in":       "checked_in_at",
	"updated":        "updated_at",
	"last updated":   "updated_at",
	"created":        "created_at",
	"vip":            "is_vip",
	"sponsor":        "is_sponsor",
	"dietary":        "dietary_restrictions",
	"badge":          "badge_number",
}

// Normalize resolves a free-text field name to a canonical column name.
// Resolution order: already-canonical passthrough, exact synonym lookup,
// substring containment in either direction, then whitespace replacement as
// a last resort. Deterministic, no I/O.
func Normalize(freeText string) string {
	name := strings.ToLower(strings.TrimSpace(freeText))
	if name == "" {
		return ""
	}

	// Underscored input is assumed to already be a canonical column.
	if strings.Contains(name, "_") {
		return name
	}

	if canonical, ok := synonyms[name]; ok {
		return canonical
	}

	for _, key := range orderedKeys(synonyms) {
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return synonyms[key]
		}
	}

	return strings.ReplaceAll(name, " ", "_")
}

// orderedKeys returns map keys longest-first (ties alphabetical) so that
// substring resolution is deterministic and prefers the most specific
// synonym.
func orderedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// uiAliases extends the general synonym table with nicknames that only show
// up when users talk about visible grid columns ("concur login", "e-mail").
// The UI-action detector consults this table before falling back to
// Normalize.
var uiAliases = map[string]string{
	"concur login":    "concur_login_id",
	"concur":          "concur_login_id",
	"e-mail":          "email",
	"mail":            "email",
	"mailing address": "mailing_address",
	"address":         "mailing_address",
	"phone number":    "phone",
	"cell":            "phone",
	"mobile":          "phone",
	"badge id":        "badge_number",
	"badge no":        "badge_number",
	"company col":     "company_name",
	"reg":             "registration_status",
	"arrival col":     "arrival_date",
	"notes":           "notes",
	"special needs":   "dietary_restrictions",
	"food":            "dietary_restrictions",
	"room":            "hotel_room",
	"confirmation":    "confirmation_number",
	"confirmation no": "confirmation_number",
}

// ResolveUIColumn resolves a column reference from a UI command. It tries
// the UI alias table exactly, then by substring, then defers to Normalize.
func ResolveUIColumn(freeText string) string {
	name := strings.ToLower(strings.TrimSpace(freeText))
	if name == "" {
		return ""
	}

	if canonical, ok := uiAliases[name]; ok {
		return canonical
	}

	for _, alias := range orderedKeys(uiAliases) {
		if strings.Contains(name, alias) {
			return uiAliases[alias]
		}
	}

	return Normalize(name)
}

// Display renders a canonical column name for user-facing text, replacing
// underscores with spaces.
func Display(column string) string {
	return strings.ReplaceAll(column, "_", " ")
}
