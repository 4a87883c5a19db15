package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventlens-ai/insights-engine/pkg/models"
)

// fakeConn records every statement and can be programmed to fail at a
// specific stage.
type fakeConn struct {
	execs      []string
	queries    []string
	rows       []models.ResultRow
	execErrOn  string // statement prefix that should fail
	queryErr   error
	releaseErr error
	released   bool
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) error {
	c.execs = append(c.execs, sql)
	if c.execErrOn != "" && len(sql) >= len(c.execErrOn) && sql[:len(c.execErrOn)] == c.execErrOn {
		return errors.New("exec failed: " + sql)
	}
	return nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) ([]models.ResultRow, error) {
	c.queries = append(c.queries, sql)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return c.rows, nil
}

func (c *fakeConn) Release() error {
	c.released = true
	return c.releaseErr
}

type fakeAcquirer struct {
	conn *fakeConn
	err  error
}

func (a *fakeAcquirer) Acquire(ctx context.Context) (Conn, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.conn == nil {
		return nil, nil
	}
	return a.conn, nil
}

func TestQueryWithTimeout_HappyPath(t *testing.T) {
	conn := &fakeConn{rows: []models.ResultRow{{"city": "Berlin"}}}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	result, err := exec.QueryWithTimeout(context.Background(), "SELECT city FROM attendee LIMIT 50", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.ResultRow{{"city": "Berlin"}}, result.Rows)

	require.Len(t, conn.execs, 3)
	assert.Equal(t, "BEGIN", conn.execs[0])
	assert.Equal(t, "SET LOCAL statement_timeout = 1500", conn.execs[1])
	assert.Equal(t, "COMMIT", conn.execs[2])
	assert.Equal(t, []string{"SELECT city FROM attendee LIMIT 50"}, conn.queries)
	assert.True(t, conn.released)
}

func TestQueryWithTimeout_RejectsInjectionParameter(t *testing.T) {
	conn := &fakeConn{}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(),
		"SELECT city FROM attendee WHERE company_name = $1 LIMIT 50",
		[]any{"' OR 1=1 --"}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter rejected")
	assert.Empty(t, conn.execs, "query never reaches the database")
}

func TestQueryWithTimeout_AllowsBenignParameters(t *testing.T) {
	conn := &fakeConn{rows: []models.ResultRow{{"city": "Berlin"}}}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(),
		"SELECT city FROM attendee WHERE company_name = $1 LIMIT 50",
		[]any{"Acme GmbH", int64(5)}, 0)
	require.NoError(t, err)
}

func TestQueryWithTimeout_TimeoutClamping(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantSet string
	}{
		{"zero uses default", 0, "SET LOCAL statement_timeout = 1500"},
		{"below floor clamped", 10 * time.Millisecond, "SET LOCAL statement_timeout = 100"},
		{"above ceiling clamped", 5 * time.Minute, "SET LOCAL statement_timeout = 30000"},
		{"in range preserved", 2 * time.Second, "SET LOCAL statement_timeout = 2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{}
			exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

			_, err := exec.QueryWithTimeout(context.Background(), "SELECT 1", nil, tt.timeout)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, conn.execs[1])
		})
	}
}

func TestQueryWithTimeout_AcquireFailure(t *testing.T) {
	cause := errors.New("pool exhausted")
	exec := NewExecutor(&fakeAcquirer{err: cause}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(), "SELECT 1", nil, 0)
	var acqErr *ConnectionAcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.ErrorIs(t, err, cause)
}

func TestQueryWithTimeout_NilConnection(t *testing.T) {
	exec := NewExecutor(&fakeAcquirer{}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(), "SELECT 1", nil, 0)
	var acqErr *ConnectionAcquisitionError
	assert.ErrorAs(t, err, &acqErr)
}

func TestQueryWithTimeout_QueryErrorRollsBack(t *testing.T) {
	queryErr := errors.New("relation does not exist")
	conn := &fakeConn{queryErr: queryErr}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(), "SELECT nope", nil, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, queryErr)

	assert.Equal(t, []string{"BEGIN", "SET LOCAL statement_timeout = 1500", "ROLLBACK"}, conn.execs)
	assert.True(t, conn.released)
}

func TestQueryWithTimeout_RollbackFailureDoesNotMaskError(t *testing.T) {
	queryErr := errors.New("statement timeout")
	conn := &fakeConn{queryErr: queryErr, execErrOn: "ROLLBACK"}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(), "SELECT slow", nil, 0)
	assert.ErrorIs(t, err, queryErr)
	assert.True(t, conn.released)
}

func TestQueryWithTimeout_ReleaseFailureDoesNotMaskResult(t *testing.T) {
	conn := &fakeConn{
		rows:       []models.ResultRow{{"n": int64(1)}},
		releaseErr: errors.New("already closed"),
	}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	result, err := exec.QueryWithTimeout(context.Background(), "SELECT 1", nil, 0)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	assert.True(t, conn.released)
}

func TestQueryWithTimeout_CommitFailureRollsBack(t *testing.T) {
	conn := &fakeConn{execErrOn: "COMMIT"}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(), "SELECT 1", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit transaction")

	assert.Equal(t, []string{"BEGIN", "SET LOCAL statement_timeout = 1500", "COMMIT", "ROLLBACK"}, conn.execs)
	assert.True(t, conn.released)
}

func TestQueryWithTimeout_BeginFailure(t *testing.T) {
	conn := &fakeConn{execErrOn: "BEGIN"}
	exec := NewExecutor(&fakeAcquirer{conn: conn}, zap.NewNop())

	_, err := exec.QueryWithTimeout(context.Background(), "SELECT 1", nil, 0)
	require.Error(t, err)
	assert.Empty(t, conn.queries)
	assert.True(t, conn.released)
}
