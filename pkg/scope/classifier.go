// Package scope decides whether a free-text question may be answered from
// the attendee data source. Classification is a pure, deterministic,
// priority-ordered rule cascade: a question naming a restricted personal
// column is blocked outright, known in-scope patterns win over out-of-scope
// keywords, and explicit attendee context overrides an out-of-scope keyword
// hit. When no rule fires the question is treated as an in-scope statistics
// request rather than refused.
package scope

import (
	"regexp"
	"strings"

	"github.com/eventlens-ai/insights-engine/pkg/models"
	sqlguard "github.com/eventlens-ai/insights-engine/pkg/sql"
)

// PatternKind identifies one of the hard-coded always-in-scope question
// shapes. The answer synthesizer consults the same table when deciding
// whether a model refusal must be overridden, so this list is authoritative
// for both stages.
type PatternKind string

const (
	PatternNone                PatternKind = ""
	PatternTopCompanies        PatternKind = "top_companies"
	PatternUniqueCompanies     PatternKind = "unique_companies"
	PatternVIPList             PatternKind = "vip_list"
	PatternMostRecentlyUpdated PatternKind = "most_recently_updated"
	PatternArrivalTime         PatternKind = "arrival_time"
)

// knownPattern pairs a compiled matcher with the category it implies.
type knownPattern struct {
	kind     PatternKind
	re       *regexp.Regexp
	category models.Category
}

// knownPatterns are evaluated in order; the first match wins. These shapes
// are always in scope regardless of any out-of-scope keyword also present.
var knownPatterns = []knownPattern{
	{PatternTopCompanies, regexp.MustCompile(`(?i)\btop\s+\d+\s+compan(?:y|ies)\b`), models.CategoryCompanyBreakdown},
	{PatternUniqueCompanies, regexp.MustCompile(`(?i)\bhow\s+many\s+(?:unique|distinct|different)\s+compan(?:y|ies)\b`), models.CategoryCompanyBreakdown},
	{PatternVIPList, regexp.MustCompile(`(?i)\bwho\s+are\s+(?:the\s+)?(?:vips?|sponsors?)\b`), models.CategoryVIPSponsor},
	{PatternMostRecentlyUpdated, regexp.MustCompile(`(?i)\bmost\s+recently\s+(?:updated|modified|changed)\b`), models.CategoryRecency},
	{PatternArrivalTime, regexp.MustCompile(`(?i)\barrival\s+time\b.*\battendee\b|\battendee\b.*\barrival\s+time\b`), models.CategoryArrivalsDepartures},
}

// oosFamily is one out-of-scope keyword family checked after the known
// patterns.
type oosFamily struct {
	kind     models.OutOfScopeType
	keywords []string
}

// oosFamilies are checked in order; the first keyword hit decides the
// OutOfScopeType. Matching is whole-word and case-insensitive.
var oosFamilies = []oosFamily{
	{models.OOSHotelRFP, []string{"hotel", "rfp", "room block", "venue contract", "site visit"}},
	{models.OOSBudgetInvoice, []string{"budget", "invoice", "purchase order", "payment terms", "reimbursement"}},
	{models.OOSLogistics, []string{"shuttle", "catering", "av setup", "signage", "shipping", "load-in"}},
	{models.OOSSponsorship, []string{"sponsorship package", "sponsorship tier", "booth pricing", "exhibitor contract"}},
	{models.OOSMarketing, []string{"email campaign", "social media", "press release", "advertising", "promotion plan"}},
	{models.OOSRegistrationVendor, []string{"cvent", "rainfocus", "eventbrite", "swoogo"}},
	{models.OOSGeneralKnowledge, []string{"weather", "stock price", "capital of", "recipe", "translate"}},
}

// contextMarkers are strong attendee-context signals. A question containing
// one of these is answered from the attendee table even when it also
// contains an out-of-scope keyword; out-of-scope detection never trumps
// explicit attendee context.
var contextMarkers = []string{
	"attendee", "attendees", "registrant", "registrants", "registration",
	"registered", "guest list", "roster", "check-in", "checked in",
}

// Classify labels a question as PII-blocked, in scope, or out of scope,
// with a category tag. The PII check runs before every other rule: a
// question that names a restricted column is blocked even when it also
// matches a known in-scope shape. Pure and case-insensitive; empty input
// falls through to the in-scope default.
func Classify(question string) models.ScopeDecision {
	q := strings.ToLower(strings.TrimSpace(question))

	if sqlguard.ContainsPII(q) {
		return models.ScopeDecision{Scope: models.ScopePIIBlocked}
	}

	if kind, cat := matchKnownPattern(q); kind != PatternNone {
		return models.ScopeDecision{Scope: models.ScopeInScope, Category: cat}
	}

	if typ, hit := matchOOSFamily(q); hit {
		if hasContextMarker(q) {
			return models.ScopeDecision{Scope: models.ScopeInScope, Category: models.CategoryStatisticsSummaries}
		}
		return models.ScopeDecision{Scope: models.ScopeOutOfScope, OutOfScopeType: typ}
	}

	return models.ScopeDecision{Scope: models.ScopeInScope, Category: models.CategoryStatisticsSummaries}
}

// KnownPattern reports which always-in-scope shape the question matches, or
// PatternNone. The forced-answer stage of the answer synthesizer uses this
// to pick a deterministic template.
func KnownPattern(question string) PatternKind {
	kind, _ := matchKnownPattern(strings.ToLower(strings.TrimSpace(question)))
	return kind
}

// ContainsOOSKeyword reports whether the question contains any out-of-scope
// keyword, ignoring known patterns and context markers. It is used as a
// secondary guard after SQL generation has already failed.
func ContainsOOSKeyword(question string) bool {
	_, hit := matchOOSFamily(strings.ToLower(question))
	return hit
}

func matchKnownPattern(lowered string) (PatternKind, models.Category) {
	for _, p := range knownPatterns {
		if p.re.MatchString(lowered) {
			return p.kind, p.category
		}
	}
	return PatternNone, ""
}

func matchOOSFamily(lowered string) (models.OutOfScopeType, bool) {
	for _, fam := range oosFamilies {
		for _, kw := range fam.keywords {
			if containsPhrase(lowered, kw) {
				return fam.kind, true
			}
		}
	}
	return "", false
}

func hasContextMarker(lowered string) bool {
	for _, m := range contextMarkers {
		if containsPhrase(lowered, m) {
			return true
		}
	}
	return false
}

// containsPhrase matches a keyword or phrase on word boundaries so that
// "rfp" does not fire inside "surfproof".
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		idx = start + 1
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	return !isWordChar(text[i-1])
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	return !isWordChar(text[i])
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
