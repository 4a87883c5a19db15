package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/eventlens-ai/insights-engine/pkg/llm"
	"github.com/eventlens-ai/insights-engine/pkg/models"
	"github.com/eventlens-ai/insights-engine/pkg/prompts"
	"github.com/eventlens-ai/insights-engine/pkg/scope"
)

// EmptyResultAnswer is the fixed sentence for empty result sets. Exact
// wording is part of the external contract.
const EmptyResultAnswer = "No records match the specified criteria."

// maxPromptRows caps how many rows are embedded into the answer prompt.
// The full row set is still returned to the caller; this only bounds the
// token budget.
const maxPromptRows = 100

const answerTemperature = 0.3

// refusalPatterns recognize a model declining to answer. Kept permissive on
// purpose; a false positive only costs one directive re-prompt.
var refusalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\boutside\b.{0,40}\bscope\b`),
	regexp.MustCompile(`(?i)\bi\s+can\s*not\b|\bi\s+can't\b|\bi\s+cannot\b`),
	regexp.MustCompile(`(?i)\bi'?m\s+sorry\b|\bi\s+apologi[sz]e\b`),
	regexp.MustCompile(`(?i)\bi\s+am\s+(?:unable|not\s+able)\b`),
	regexp.MustCompile(`(?i)\bunable\s+to\s+(?:assist|help|answer|provide)\b`),
	regexp.MustCompile(`(?i)\bnot\s+(?:permitted|allowed)\s+to\b`),
}

// IsRefusal reports whether an answer reads as a refusal.
func IsRefusal(answer string) bool {
	for _, re := range refusalPatterns {
		if re.MatchString(answer) {
			return true
		}
	}
	return false
}

// AnswerSynthesizer turns a result set back into a natural-language
// executive summary.
type AnswerSynthesizer struct {
	client llm.Client
	logger *zap.Logger
}

// NewAnswerSynthesizer creates an answer synthesizer.
func NewAnswerSynthesizer(client llm.Client, logger *zap.Logger) *AnswerSynthesizer {
	return &AnswerSynthesizer{client: client, logger: logger.Named("answer")}
}

// Synthesize produces the user-facing answer for a question and its rows.
//
// Questions matching a known in-scope pattern are guaranteed an answer:
// if the model refuses, it is re-prompted once with a directive system
// message, and if it refuses again the answer is built deterministically
// from the rows. The re-prompt is capped at one to bound latency and cost.
func (a *AnswerSynthesizer) Synthesize(ctx context.Context, question, intent string, rows []models.ResultRow) (string, *models.Usage, error) {
	if len(rows) == 0 {
		return EmptyResultAnswer, nil, nil
	}

	userPrompt, err := a.buildUserPrompt(question, intent, rows)
	if err != nil {
		return "", nil, err
	}

	answer, usage, err := a.complete(ctx, prompts.AnswerSystemPrompt, userPrompt)
	if err != nil {
		return "", usage, err
	}

	pattern := scope.KnownPattern(question)
	if pattern == scope.PatternNone || !IsRefusal(answer) {
		return answer, usage, nil
	}

	a.logger.Warn("model refused a known in-scope question, re-prompting",
		zap.String("pattern", string(pattern)))

	answer, usage2, err := a.complete(ctx, prompts.DirectiveAnswerSystemPrompt, userPrompt)
	usage = mergeUsage(usage, usage2)
	if err == nil && !IsRefusal(answer) {
		return answer, usage, nil
	}

	return TemplateAnswer(pattern, rows), usage, nil
}

func (a *AnswerSynthesizer) buildUserPrompt(question, intent string, rows []models.ResultRow) (string, error) {
	promptRows := rows
	if len(promptRows) > maxPromptRows {
		promptRows = promptRows[:maxPromptRows]
	}

	rowsJSON, err := json.Marshal(promptRows)
	if err != nil {
		return "", fmt.Errorf("marshal result rows: %w", err)
	}

	return prompts.BuildAnswerUserPrompt(question, intent, string(rowsJSON), len(promptRows), len(rows)), nil
}

func (a *AnswerSynthesizer) complete(ctx context.Context, system, user string) (string, *models.Usage, error) {
	result, err := a.client.Complete(ctx, &llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: "user", Content: user}},
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", nil, err
	}
	usage := &models.Usage{
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
	}
	return strings.TrimSpace(result.Content), usage, nil
}

func mergeUsage(a, b *models.Usage) *models.Usage {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &models.Usage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}

// TemplateAnswer deterministically renders an answer for a known in-scope
// pattern. This is the last line of defense: these question shapes never
// surface a refusal even when the model misbehaves twice.
func TemplateAnswer(pattern scope.PatternKind, rows []models.ResultRow) string {
	switch pattern {
	case scope.PatternTopCompanies:
		names := collectStrings(rows, "company_name")
		if len(names) > 0 {
			return fmt.Sprintf("Top companies by attendee count: %s.", strings.Join(names, ", "))
		}

	case scope.PatternUniqueCompanies:
		if n, ok := firstNumeric(rows); ok {
			return fmt.Sprintf("%d unique companies are represented.", n)
		}
		return fmt.Sprintf("%d unique companies are represented.", len(rows))

	case scope.PatternVIPList:
		names := collectNames(rows)
		if len(names) > 0 {
			return fmt.Sprintf("VIP attendees: %s.", strings.Join(names, ", "))
		}

	case scope.PatternMostRecentlyUpdated:
		if len(rows) > 0 {
			name := rowName(rows[0])
			if when, ok := rows[0]["updated_at"].(string); ok && name != "" {
				return fmt.Sprintf("The most recently updated record is %s (updated %s).", name, when)
			}
			if name != "" {
				return fmt.Sprintf("The most recently updated record is %s.", name)
			}
		}
	}

	return fmt.Sprintf("Found %d records matching the question.", len(rows))
}

func collectStrings(rows []models.ResultRow, column string) []string {
	var out []string
	for _, row := range rows {
		if s, ok := row[column].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func collectNames(rows []models.ResultRow) []string {
	var out []string
	for _, row := range rows {
		if name := rowName(row); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func rowName(row models.ResultRow) string {
	if s, ok := row["full_name"].(string); ok && s != "" {
		return s
	}
	first, _ := row["first_name"].(string)
	last, _ := row["last_name"].(string)
	return strings.TrimSpace(first + " " + last)
}

func firstNumeric(rows []models.ResultRow) (int64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	for _, v := range rows[0] {
		switch n := v.(type) {
		case int64:
			return n, true
		case int32:
			return int64(n), true
		case int:
			return int64(n), true
		case float64:
			return int64(n), true
		}
	}
	return 0, false
}
