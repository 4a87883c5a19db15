// Package services orchestrates the insights pipeline: UI-action
// detection, scope classification, SQL synthesis, guarding, bounded
// execution, result normalization, and answer synthesis.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventlens-ai/insights-engine/pkg/database"
	"github.com/eventlens-ai/insights-engine/pkg/llm"
	"github.com/eventlens-ai/insights-engine/pkg/logging"
	"github.com/eventlens-ai/insights-engine/pkg/models"
	"github.com/eventlens-ai/insights-engine/pkg/scope"
	sqlguard "github.com/eventlens-ai/insights-engine/pkg/sql"
	"github.com/eventlens-ai/insights-engine/pkg/synth"
	"github.com/eventlens-ai/insights-engine/pkg/uiaction"
)

// Pre-approved user-facing messages. Every failure path resolves to one of
// these; raw errors, SQL text, and provider codes are only ever logged.
const (
	MsgOutOfScope = "I can only answer questions about the attendees in this event's database. Try asking about registrations, companies, arrivals, or attendee counts."

	MsgPIIBlocked = "I can't share personally identifying details such as email addresses, phone numbers, or mailing addresses. Try asking for aggregate or non-personal information instead."

	MsgReadOnly = "I am a read-only analysis tool. I can look up and summarize attendee data, but I can't add, change, or delete anything."

	MsgConnectionError = "I couldn't reach the attendee database just now. Please try again in a moment."

	MsgFeatureUnavailable = "The insights feature is temporarily unavailable with the current model. Please try again later or switch to an alternative model."
)

// SchemaDescriber supplies the table description for prompt injection.
type SchemaDescriber interface {
	Describe(ctx context.Context) string
}

// SQLSynthesizer produces an untrusted SQL envelope for a question.
type SQLSynthesizer interface {
	Synthesize(ctx context.Context, question, schemaText string, history []models.ChatMessage) (*models.GeneratedSQL, *models.Usage, error)
}

// AnswerSynthesizer summarizes result rows.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question, intent string, rows []models.ResultRow) (string, *models.Usage, error)
}

// QueryExecutor runs guarded SQL with a bounded statement timeout.
type QueryExecutor interface {
	QueryWithTimeout(ctx context.Context, sqlQuery string, params []any, timeout time.Duration) (*database.QueryResult, error)
}

// HistoryRecorder persists one answered question. Recording failures are
// logged, never surfaced.
type HistoryRecorder interface {
	Record(ctx context.Context, rec *HistoryRecord) error
}

// Options bound the pipeline's resource use.
type Options struct {
	MaxRows          int           // row ceiling forced onto every query
	StatementTimeout time.Duration // server-side ceiling for the DB call
}

// InsightsService is the entry point for one question.
type InsightsService struct {
	describer SchemaDescriber
	sqlSynth  SQLSynthesizer
	answers   AnswerSynthesizer
	executor  QueryExecutor
	history   HistoryRecorder // may be nil
	opts      Options
	logger    *zap.Logger
}

// NewInsightsService wires the pipeline. history may be nil.
func NewInsightsService(
	describer SchemaDescriber,
	sqlSynth SQLSynthesizer,
	answers AnswerSynthesizer,
	executor QueryExecutor,
	history HistoryRecorder,
	opts Options,
	logger *zap.Logger,
) *InsightsService {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 50
	}
	return &InsightsService{
		describer: describer,
		sqlSynth:  sqlSynth,
		answers:   answers,
		executor:  executor,
		history:   history,
		opts:      opts,
		logger:    logger.Named("insights"),
	}
}

// HandleQuestion runs the full pipeline for one question. The stage order
// is a hard invariant: detection before classification, classification
// before synthesis, synthesis before guarding, guarding before execution.
func (s *InsightsService) HandleQuestion(ctx context.Context, question string, history []models.ChatMessage) (*models.ChatAnswer, error) {
	start := time.Now()
	answer := s.handle(ctx, question, history)
	answer.Meta.MS = time.Since(start).Milliseconds()

	s.logger.Info("question handled",
		zap.String("question", logging.SanitizeQuestion(question)),
		zap.String("scope", string(answer.Meta.Scope)),
		zap.Bool("ok", answer.OK),
		zap.Int64("duration_ms", answer.Meta.MS))

	s.record(ctx, question, answer)
	return answer, nil
}

func (s *InsightsService) handle(ctx context.Context, question string, history []models.ChatMessage) *models.ChatAnswer {
	// Presentation commands are resolved before any scope decision; a
	// structural request like "hide the email column" must never be
	// scope-refused.
	if action := uiaction.Detect(question); action != nil {
		return &models.ChatAnswer{
			OK:     true,
			Answer: uiaction.Confirmation(action),
			Action: action,
			Meta:   models.AnswerMeta{Scope: models.ScopeUIAction},
		}
	}

	// The classifier owns the question-level PII verdict; it runs before
	// the injection screen so a blocked question never leaks a different
	// refusal.
	decision := scope.Classify(question)
	if decision.Scope == models.ScopePIIBlocked {
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgPIIBlocked,
			Meta:   models.AnswerMeta{Scope: models.ScopePIIBlocked},
		}
	}

	if check := sqlguard.ScreenQuestion(question); check != nil {
		s.logger.Warn("injection pattern in question",
			zap.String("fingerprint", check.Fingerprint))
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgReadOnly,
			Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "injection_detected"},
		}
	}

	if decision.Scope == models.ScopeOutOfScope {
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgOutOfScope,
			Meta: models.AnswerMeta{
				Scope: models.ScopeOutOfScope,
			},
		}
	}

	return s.answerInScope(ctx, question, history, decision)
}

func (s *InsightsService) answerInScope(ctx context.Context, question string, history []models.ChatMessage, decision models.ScopeDecision) *models.ChatAnswer {
	schemaText := s.describer.Describe(ctx)

	gen, usage, err := s.sqlSynth.Synthesize(ctx, question, schemaText, history)
	if err != nil {
		return s.synthesisFailure(question, usage, err)
	}

	// The model may classify the message as a presentation command
	// itself; honor that exactly like a detector hit.
	if gen.Action != nil {
		return &models.ChatAnswer{
			OK:     true,
			Answer: uiaction.Confirmation(gen.Action),
			Action: gen.Action,
			Meta:   models.AnswerMeta{Scope: models.ScopeUIAction, Usage: usage},
		}
	}

	guarded, err := guard(gen.SQL, s.opts.MaxRows)
	if err != nil {
		return s.guardFailure(usage, err)
	}

	s.logger.Debug("executing guarded query",
		zap.String("sql", logging.SanitizeQuery(guarded)))

	result, err := s.executor.QueryWithTimeout(ctx, guarded, nil, s.opts.StatementTimeout)
	if err != nil {
		return s.executionFailure(usage, err)
	}

	rows := database.NormalizeRows(result.Rows)

	text, answerUsage, err := s.answers.Synthesize(ctx, question, gen.Intent, rows)
	if err != nil {
		s.logger.Error("answer synthesis failed", zap.Error(err))
		// The data was retrieved; fall back to a deterministic answer
		// rather than discarding the result.
		text = synth.TemplateAnswer(scope.KnownPattern(question), rows)
	}

	return &models.ChatAnswer{
		OK:     true,
		Answer: text,
		SQL:    guarded,
		Rows:   rows,
		Meta: models.AnswerMeta{
			Scope:    models.ScopeInScope,
			Category: decision.Category,
			Intent:   gen.Intent,
			Usage:    mergeUsage(usage, answerUsage),
		},
	}
}

// guard applies the full static guard chain. Both checks run on every
// synthesized statement; there is no execution path around them.
func guard(sqlText string, maxRows int) (string, error) {
	safe, err := sqlguard.EnsureSafeSelect(sqlText)
	if err != nil {
		return "", err
	}
	if sqlguard.ContainsPII(safe) {
		return "", errPIIQuery
	}
	return sqlguard.ForceLimit(safe, maxRows), nil
}

var errPIIQuery = errors.New("query references restricted columns")

func (s *InsightsService) synthesisFailure(question string, usage *models.Usage, err error) *models.ChatAnswer {
	s.logger.Error("SQL synthesis failed", zap.Error(err))

	// Out-of-scope re-check: a parse failure on a question that also
	// carries out-of-scope keywords gets the standard refusal rather
	// than a technical-sounding message.
	var parseErr *synth.ParseError
	if errors.As(err, &parseErr) {
		if scope.ContainsOOSKeyword(question) {
			return &models.ChatAnswer{
				OK:     false,
				Answer: MsgOutOfScope,
				Meta:   models.AnswerMeta{Scope: models.ScopeOutOfScope, Usage: usage},
			}
		}
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgConnectionError,
			Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "synthesis_parse", Usage: usage},
		}
	}

	if llm.IsAccessError(err) {
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgFeatureUnavailable,
			Meta:   models.AnswerMeta{Scope: models.ScopeAPIAccessRestricted, Error: "model_access", Usage: usage},
		}
	}

	return &models.ChatAnswer{
		OK:     false,
		Answer: MsgConnectionError,
		Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "synthesis", Usage: usage},
	}
}

func (s *InsightsService) guardFailure(usage *models.Usage, err error) *models.ChatAnswer {
	s.logger.Warn("guard rejected synthesized SQL", zap.Error(err))

	if errors.Is(err, errPIIQuery) {
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgPIIBlocked,
			Meta:   models.AnswerMeta{Scope: models.ScopePIIBlocked, Usage: usage},
		}
	}

	// A write-shaped statement gets the read-only refusal; everything
	// else is treated as a generic failure of this attempt.
	var notSelect *sqlguard.NotSelectError
	var forbidden *sqlguard.ForbiddenKeywordError
	if errors.As(err, &notSelect) || errors.As(err, &forbidden) {
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgReadOnly,
			Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "validation", Usage: usage},
		}
	}

	return &models.ChatAnswer{
		OK:     false,
		Answer: MsgConnectionError,
		Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "validation", Usage: usage},
	}
}

func (s *InsightsService) executionFailure(usage *models.Usage, err error) *models.ChatAnswer {
	s.logger.Error("query execution failed", zap.Error(err))

	var acqErr *database.ConnectionAcquisitionError
	if errors.As(err, &acqErr) {
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgConnectionError,
			Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "connection_acquisition", Usage: usage},
		}
	}

	if looksLikeWriteAttempt(err) {
		return &models.ChatAnswer{
			OK:     false,
			Answer: MsgReadOnly,
			Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "write_attempt", Usage: usage},
		}
	}

	return &models.ChatAnswer{
		OK:     false,
		Answer: MsgConnectionError,
		Meta:   models.AnswerMeta{Scope: models.ScopeError, Error: "execution", Usage: usage},
	}
}

// looksLikeWriteAttempt inspects database error text for signs the query
// tried to modify data despite the guard.
func looksLikeWriteAttempt(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "read-only") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "cannot execute")
}

func (s *InsightsService) record(ctx context.Context, question string, answer *models.ChatAnswer) {
	if s.history == nil {
		return
	}
	rec := &HistoryRecord{
		Question: question,
		Scope:    string(answer.Meta.Scope),
		SQL:      answer.SQL,
		RowCount: len(answer.Rows),
		OK:       answer.OK,
		MS:       answer.Meta.MS,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.logger.Warn("failed to record query history", zap.Error(err))
	}
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
