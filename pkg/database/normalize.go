package database

import (
	"strings"
	"time"

	"github.com/eventlens-ai/insights-engine/pkg/models"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// NormalizeRows converts driver-native temporal values into stable string
// representations for both UI and prompt consumption. Columns whose names
// contain "_at" or "time" keep a truncated time part; everything else is
// rendered date-only. Values are used exactly as returned by the store, no
// timezone conversion. Non-temporal values pass through unchanged,
// including nil.
func NormalizeRows(rows []models.ResultRow) []models.ResultRow {
	out := make([]models.ResultRow, len(rows))
	for i, row := range rows {
		normalized := make(models.ResultRow, len(row))
		for col, val := range row {
			normalized[col] = normalizeValue(col, val)
		}
		out[i] = normalized
	}
	return out
}

func normalizeValue(column string, val any) any {
	t, ok := val.(time.Time)
	if !ok {
		return val
	}
	if wantsTimePart(column) {
		return t.Format(dateTimeLayout)
	}
	return t.Format(dateLayout)
}

func wantsTimePart(column string) bool {
	lower := strings.ToLower(column)
	return strings.Contains(lower, "_at") || strings.Contains(lower, "time")
}
