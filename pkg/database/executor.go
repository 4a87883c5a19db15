package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/eventlens-ai/insights-engine/pkg/models"
	sqlguard "github.com/eventlens-ai/insights-engine/pkg/sql"
)

// Timeout bounds for the server-side statement ceiling. Caller input is
// clamped into this range no matter what.
const (
	MinStatementTimeout     = 100 * time.Millisecond
	MaxStatementTimeout     = 30 * time.Second
	DefaultStatementTimeout = 1500 * time.Millisecond
)

// ConnectionAcquisitionError indicates no usable connection could be taken
// from the pool. It is fatal for the request; the pipeline never retries it.
type ConnectionAcquisitionError struct {
	Cause error
}

func (e *ConnectionAcquisitionError) Error() string {
	return fmt.Sprintf("could not acquire database connection: %v", e.Cause)
}

func (e *ConnectionAcquisitionError) Unwrap() error {
	return e.Cause
}

// Conn is one pooled connection. The narrow interface exists so executor
// tests can substitute a recording fake for a live pool.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) ([]models.ResultRow, error)
	Release() error
}

// ConnAcquirer hands out single connections.
type ConnAcquirer interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Executor runs guarded SQL inside a transaction with a server-side
// statement timeout.
type Executor struct {
	pool   ConnAcquirer
	logger *zap.Logger
}

// NewExecutor creates an executor over the given pool.
func NewExecutor(pool ConnAcquirer, logger *zap.Logger) *Executor {
	return &Executor{pool: pool, logger: logger.Named("executor")}
}

// QueryResult is the executor's output for one guarded query.
type QueryResult struct {
	Rows []models.ResultRow
}

// QueryWithTimeout acquires one connection, runs the query inside
// BEGIN / SET LOCAL statement_timeout / COMMIT, and rolls back on any
// failure. The connection is released on every path; a failing release is
// logged and never masks the query's own outcome. The timeout is clamped to
// [MinStatementTimeout, MaxStatementTimeout]; zero means
// DefaultStatementTimeout.
func (e *Executor) QueryWithTimeout(ctx context.Context, sqlQuery string, params []any, timeout time.Duration) (*QueryResult, error) {
	if check := sqlguard.ScreenParameters(params); check != nil {
		e.logger.Warn("injection pattern in query parameter",
			zap.String("fingerprint", check.Fingerprint))
		return nil, fmt.Errorf("parameter rejected: injection pattern %s", check.Fingerprint)
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil || conn == nil {
		if err == nil {
			err = fmt.Errorf("pool returned no connection")
		}
		return nil, &ConnectionAcquisitionError{Cause: err}
	}
	defer func() {
		if relErr := conn.Release(); relErr != nil {
			e.logger.Warn("connection release failed", zap.Error(relErr))
		}
	}()

	if err := conn.Exec(ctx, "BEGIN"); err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	rows, err := e.runInTx(ctx, conn, sqlQuery, params, clampTimeout(timeout))
	if err != nil {
		// Roll back before surfacing the original error; a rollback
		// failure is logged but the first error always wins.
		if rbErr := conn.Exec(ctx, "ROLLBACK"); rbErr != nil {
			e.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return nil, err
	}

	if err := conn.Exec(ctx, "COMMIT"); err != nil {
		if rbErr := conn.Exec(ctx, "ROLLBACK"); rbErr != nil {
			e.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &QueryResult{Rows: rows}, nil
}

func (e *Executor) runInTx(ctx context.Context, conn Conn, sqlQuery string, params []any, timeout time.Duration) ([]models.ResultRow, error) {
	// SET LOCAL scopes the ceiling to this transaction. The value is a
	// clamped integer, never caller text.
	if err := conn.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", timeout.Milliseconds())); err != nil {
		return nil, fmt.Errorf("set statement timeout: %w", err)
	}

	rows, err := conn.Query(ctx, sqlQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return rows, nil
}

func clampTimeout(timeout time.Duration) time.Duration {
	if timeout == 0 {
		return DefaultStatementTimeout
	}
	if timeout < MinStatementTimeout {
		return MinStatementTimeout
	}
	if timeout > MaxStatementTimeout {
		return MaxStatementTimeout
	}
	return timeout
}

// poolConn adapts a pgxpool connection to the Conn interface.
type poolConn struct {
	conn *pgxpool.Conn
}

func (c *poolConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.conn.Exec(ctx, sql, args...)
	return err
}

func (c *poolConn) Query(ctx context.Context, sql string, args ...any) ([]models.ResultRow, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

func (c *poolConn) Release() error {
	c.conn.Release()
	return nil
}

// PoolAcquirer adapts a pgxpool.Pool to the ConnAcquirer interface.
type PoolAcquirer struct {
	Pool *pgxpool.Pool
}

// Acquire takes one connection from the pool.
func (p *PoolAcquirer) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &poolConn{conn: conn}, nil
}

// collectRows drains pgx rows into name-keyed maps.
func collectRows(rows pgx.Rows) ([]models.ResultRow, error) {
	fieldDescs := rows.FieldDescriptions()
	names := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		names[i] = string(fd.Name)
	}

	out := make([]models.ResultRow, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(models.ResultRow, len(names))
		for i, name := range names {
			row[name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}
