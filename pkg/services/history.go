package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// HistoryRecord is one answered question in the audit trail.
type HistoryRecord struct {
	ID        uuid.UUID
	Question  string
	Scope     string
	SQL       string
	RowCount  int
	OK        bool
	MS        int64
	CreatedAt time.Time
}

// historyDB is the slice of pgxpool.Pool the history service needs.
type historyDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// HistoryService persists answered questions for audit and debugging.
// The generated SQL is stored verbatim; it has already passed the guard,
// and the PII block means result data never lands here, only statements.
type HistoryService struct {
	db     historyDB
	logger *zap.Logger
}

// NewHistoryService creates a history service over the engine database.
func NewHistoryService(db historyDB, logger *zap.Logger) *HistoryService {
	return &HistoryService{db: db, logger: logger.Named("history")}
}

// Record inserts one history row.
func (h *HistoryService) Record(ctx context.Context, rec *HistoryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	_, err := h.db.Exec(ctx,
		`INSERT INTO insights_query_history
		   (id, question, scope, generated_sql, row_count, ok, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Question, rec.Scope, rec.SQL, rec.RowCount, rec.OK, rec.MS)
	if err != nil {
		return fmt.Errorf("insert query history: %w", err)
	}
	return nil
}

// Recent returns the latest history records, newest first.
func (h *HistoryService) Recent(ctx context.Context, limit int) ([]*HistoryRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := h.db.Query(ctx,
		`SELECT id, question, scope, generated_sql, row_count, ok, duration_ms, created_at
		 FROM insights_query_history
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*HistoryRecord
	for rows.Next() {
		rec := &HistoryRecord{}
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Scope, &rec.SQL,
			&rec.RowCount, &rec.OK, &rec.MS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return out, nil
}
