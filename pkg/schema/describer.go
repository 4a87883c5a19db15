// Package schema builds the textual table description injected into the
// SQL-synthesis prompt.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// AttendeeTable is the single queryable table.
const AttendeeTable = "attendee"

// Querier is the slice of pgxpool.Pool the describer needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Describer renders the attendee table's columns and the fixed
// query-writing rules for prompt injection. The live metadata query runs
// once per call; on failure a static column list is used instead, because a
// metadata hiccup must never fail the pipeline.
type Describer struct {
	db     Querier
	logger *zap.Logger
}

// NewDescriber creates a describer over the attendee store.
func NewDescriber(db Querier, logger *zap.Logger) *Describer {
	return &Describer{db: db, logger: logger.Named("schema")}
}

// staticColumns is the fallback description used when the metadata query
// fails. It must be kept in sync with the deployed attendee table.
var staticColumns = []string{
	"id uuid",
	"first_name text",
	"last_name text",
	"full_name text",
	"company_name text",
	"job_title text",
	"attendee_type text",
	"registration_status text",
	"is_vip boolean",
	"is_sponsor boolean",
	"country text",
	"city text",
	"hotel_name text",
	"hotel_room text",
	"arrival_date date",
	"arrival_time timestamp",
	"departure_date date",
	"badge_number text",
	"confirmation_number text",
	"concur_login_id text",
	"dietary_restrictions text",
	"checked_in_at timestamp",
	"created_at timestamp",
	"updated_at timestamp",
}

// queryRules is the fixed block of SQL-writing conventions appended to
// every schema description.
const queryRules = `Rules for writing queries:
- Generate a single SELECT statement only. Never write data.
- Always include a LIMIT clause.
- Timestamp columns are compared and formatted as 'YYYY-MM-DD HH24:MI'; date columns as 'YYYY-MM-DD'.
- Use ILIKE with % wildcards when matching names or companies.
- Wrap nullable name parts in COALESCE before concatenating.
- Guard every division with NULLIF on the divisor.`

// Describe returns the column listing plus the query-writing rules.
func (d *Describer) Describe(ctx context.Context) string {
	cols, err := d.liveColumns(ctx)
	if err != nil {
		d.logger.Warn("schema metadata query failed, using static column list", zap.Error(err))
		cols = staticColumns
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table %q columns:\n", AttendeeTable)
	for _, c := range cols {
		b.WriteString("  ")
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(queryRules)
	return b.String()
}

func (d *Describer) liveColumns(ctx context.Context) ([]string, error) {
	rows, err := d.db.Query(ctx,
		`SELECT column_name, data_type
		 FROM information_schema.columns
		 WHERE table_name = $1
		 ORDER BY ordinal_position`, AttendeeTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, err
		}
		cols = append(cols, name+" "+typ)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns found for table %q", AttendeeTable)
	}
	return cols, nil
}
