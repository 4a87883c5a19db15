// Package synth holds the two LLM-facing stages of the pipeline: SQL
// synthesis from a question, and natural-language answer synthesis from
// query results.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventlens-ai/insights-engine/pkg/jsonutil"
	"github.com/eventlens-ai/insights-engine/pkg/llm"
	"github.com/eventlens-ai/insights-engine/pkg/models"
	"github.com/eventlens-ai/insights-engine/pkg/prompts"
	"github.com/eventlens-ai/insights-engine/pkg/retry"
	sqlguard "github.com/eventlens-ai/insights-engine/pkg/sql"
)

// ParseError indicates the model's output could not be turned into a SQL
// envelope even after the repair pass.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "could not parse SQL envelope from model response"
}

// sqlTemperature keeps synthesis near-deterministic.
const sqlTemperature = 0.1

// SQLSynthesizer turns a question plus schema text into a GeneratedSQL
// envelope. A fallback client, when configured, is tried once after an
// authorization or model-availability failure on the primary.
type SQLSynthesizer struct {
	client   llm.Client
	fallback llm.Client // may be nil
	logger   *zap.Logger
}

// NewSQLSynthesizer creates a synthesizer. fallback may be nil.
func NewSQLSynthesizer(client, fallback llm.Client, logger *zap.Logger) *SQLSynthesizer {
	return &SQLSynthesizer{client: client, fallback: fallback, logger: logger.Named("synth")}
}

// envelope mirrors the JSON object the model is instructed to return.
// Intent stays raw because models occasionally emit a number or bool there.
type envelope struct {
	SQL    string           `json:"sql"`
	Intent json.RawMessage  `json:"intent"`
	Action *models.UIAction `json:"action"`
}

// Synthesize requests SQL for the question and parses the response
// envelope. The returned GeneratedSQL is untrusted until guarded.
func (s *SQLSynthesizer) Synthesize(ctx context.Context, question, schemaText string, history []models.ChatMessage) (*models.GeneratedSQL, *models.Usage, error) {
	req := &llm.Request{
		System:      prompts.BuildSQLSystemPrompt(schemaText, sqlguard.PIIColumns),
		Messages:    historyMessages(history, question),
		Temperature: sqlTemperature,
	}

	result, err := s.complete(ctx, s.client, req)
	if err != nil && llm.IsAccessError(err) && s.fallback != nil {
		s.logger.Warn("primary model inaccessible, trying fallback",
			zap.String("primary", s.client.Model()),
			zap.String("fallback", s.fallback.Model()),
			zap.Error(err))
		result, err = s.complete(ctx, s.fallback, req)
	}
	if err != nil {
		return nil, nil, err
	}

	usage := &models.Usage{
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
	}

	gen, err := parseEnvelope(result.Content)
	if err != nil {
		s.logger.Warn("unparseable SQL envelope",
			zap.Int("response_len", len(result.Content)))
		return nil, usage, err
	}

	return gen, usage, nil
}

// complete calls the model, retrying transient failures (rate limits,
// connection resets) with backoff. Permanent errors return immediately.
func (s *SQLSynthesizer) complete(ctx context.Context, client llm.Client, req *llm.Request) (*llm.Result, error) {
	var result *llm.Result
	err := retry.DoIfRetryable(ctx, &retry.Config{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}, func() error {
		var callErr error
		result, callErr = client.Complete(ctx, req)
		return callErr
	})
	return result, err
}

// parseEnvelope tries a strict parse first and falls back to the repair
// path (balanced-block extraction plus raw-newline escaping). The Robust
// flag on the result records which path succeeded so callers can tell
// trusted output from recovered output.
func parseEnvelope(content string) (*models.GeneratedSQL, error) {
	trimmed := strings.TrimSpace(content)

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err == nil {
		return envelopeToGenerated(&env, true)
	}

	extracted, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, &ParseError{Raw: content}
	}
	if err := json.Unmarshal([]byte(extracted), &env); err != nil {
		return nil, &ParseError{Raw: content}
	}
	return envelopeToGenerated(&env, false)
}

func envelopeToGenerated(env *envelope, robust bool) (*models.GeneratedSQL, error) {
	gen := &models.GeneratedSQL{
		SQL:    strings.TrimSpace(env.SQL),
		Intent: jsonutil.FlexibleStringValue(env.Intent),
		Action: env.Action,
		Robust: robust,
	}
	if gen.SQL == "" && gen.Action == nil {
		return nil, &ParseError{Raw: fmt.Sprintf("%+v", env)}
	}
	return gen, nil
}

func historyMessages(history []models.ChatMessage, question string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		msgs = append(msgs, llm.Message{Role: h.Role, Content: h.Text})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: question})
	return msgs
}
