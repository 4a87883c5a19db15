package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type failingQuerier struct{ err error }

func (q *failingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, q.err
}

func TestDescribe_StaticFallback(t *testing.T) {
	d := NewDescriber(&failingQuerier{err: errors.New("connection refused")}, zap.NewNop())

	text := d.Describe(context.Background())

	assert.Contains(t, text, `Table "attendee" columns:`)
	assert.Contains(t, text, "company_name text")
	assert.Contains(t, text, "arrival_time timestamp")
	assert.Contains(t, text, "updated_at timestamp")
	assert.Contains(t, text, "Rules for writing queries:")
	assert.Contains(t, text, "Generate a single SELECT statement only.")
	assert.Contains(t, text, "Always include a LIMIT clause.")
}

func TestDescribe_FallbackCoversEveryStaticColumn(t *testing.T) {
	d := NewDescriber(&failingQuerier{err: errors.New("down")}, zap.NewNop())

	text := d.Describe(context.Background())
	for _, col := range staticColumns {
		assert.Contains(t, text, col)
	}
}
