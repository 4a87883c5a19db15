// Package models defines the data types shared across the insights pipeline.
package models

// Scope labels how a question relates to the attendee data source.
type Scope string

const (
	ScopeUIAction            Scope = "ui_action"
	ScopeInScope             Scope = "in_scope"
	ScopeOutOfScope          Scope = "out_of_scope"
	ScopePIIBlocked          Scope = "pii_blocked"
	ScopeAPIAccessRestricted Scope = "api_access_restricted"
	ScopeError               Scope = "error"
)

// Category tags the kind of in-scope question detected by the classifier.
type Category string

const (
	CategoryStatisticsSummaries Category = "statistics_summaries"
	CategoryAttendeeLookup      Category = "attendee_lookup"
	CategoryArrivalsDepartures  Category = "arrivals_departures"
	CategoryRegistrationStatus  Category = "registration_status"
	CategoryCompanyBreakdown    Category = "company_breakdown"
	CategoryVIPSponsor          Category = "vip_sponsor"
	CategoryRecency             Category = "recency"
)

// OutOfScopeType identifies which keyword family triggered an out-of-scope
// decision.
type OutOfScopeType string

const (
	OOSHotelRFP           OutOfScopeType = "hotel_rfp"
	OOSBudgetInvoice      OutOfScopeType = "budget_invoice"
	OOSLogistics          OutOfScopeType = "logistics"
	OOSSponsorship        OutOfScopeType = "sponsorship"
	OOSMarketing          OutOfScopeType = "marketing"
	OOSGeneralKnowledge   OutOfScopeType = "general_knowledge"
	OOSRegistrationVendor OutOfScopeType = "registration_vendor"
)

// ScopeDecision is the classifier's verdict for one question. It is produced
// fresh per question and carries no identity.
type ScopeDecision struct {
	Scope          Scope          `json:"scope"`
	Category       Category       `json:"category,omitempty"`
	OutOfScopeType OutOfScopeType `json:"out_of_scope_type,omitempty"`
}

// ChatMessage is one turn of prior conversation supplied by the caller.
// Persistence of conversation history is the caller's concern.
type ChatMessage struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// GeneratedSQL is the synthesizer's parsed envelope before validation.
// SQL is untrusted until it has passed the guard.
type GeneratedSQL struct {
	SQL    string    `json:"sql"`
	Intent string    `json:"intent,omitempty"`
	Action *UIAction `json:"action,omitempty"`

	// Robust is true when the envelope survived strict JSON parsing and
	// false when the repair parser had to recover it.
	Robust bool `json:"-"`
}

// ResultRow maps canonical column names to normalized scalar values.
// Temporal values are rendered as "2006-01-02" or "2006-01-02 15:04".
type ResultRow map[string]any

// Usage carries token accounting from the completion provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// AnswerMeta is diagnostic metadata attached to every ChatAnswer.
type AnswerMeta struct {
	Scope    Scope    `json:"scope"`
	Category Category `json:"category,omitempty"`
	Intent   string   `json:"intent,omitempty"`
	MS       int64    `json:"ms"`
	Usage    *Usage   `json:"usage,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ChatAnswer is the terminal artifact returned to the caller for one
// question.
type ChatAnswer struct {
	OK     bool        `json:"ok"`
	Answer string      `json:"answer"`
	SQL    string      `json:"sql,omitempty"`
	Rows   []ResultRow `json:"rows,omitempty"`
	Action *UIAction   `json:"action,omitempty"`
	Meta   AnswerMeta  `json:"meta"`
}
