package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheck describes a SQL injection pattern detected in free text.
type InjectionCheck struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	Input       string // the text that was checked
}

// ScreenQuestion runs libinjection over a raw user question before it is
// handed to the synthesizer. This is defense in depth: the generated SQL is
// still fully guarded afterwards, but a question that is itself an
// injection payload is rejected up front.
//
// Returns nil when no injection pattern is found.
func ScreenQuestion(question string) *InjectionCheck {
	isSQLi, fingerprint := libinjection.IsSQLi(question)
	if !isSQLi {
		return nil
	}
	return &InjectionCheck{
		Fingerprint: string(fingerprint),
		Input:       question,
	}
}

// ScreenParameters checks string parameter values bound into the guarded
// query. Non-string values cannot carry injection payloads and are skipped.
func ScreenParameters(params []any) *InjectionCheck {
	for _, p := range params {
		s, ok := p.(string)
		if !ok {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(s); isSQLi {
			return &InjectionCheck{Fingerprint: string(fingerprint), Input: s}
		}
	}
	return nil
}
