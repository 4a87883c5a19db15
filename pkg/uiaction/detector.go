// Package uiaction recognizes questions that are really commands aimed at
// the presentation layer (reorder, hide, sort, filter a grid column) and
// short-circuits the SQL pipeline for them.
//
// Detection runs before scope classification on purpose: a structural
// command like "hide the email column" must never be scope-refused.
package uiaction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/eventlens-ai/insights-engine/pkg/columns"
	"github.com/eventlens-ai/insights-engine/pkg/models"
)

// rule pairs a matcher with an action builder. Rules are evaluated in
// order with first-match-wins semantics; the ordering is part of the
// contract and is covered by tests.
type rule struct {
	re    *regexp.Regexp
	build func(m []string) *models.UIAction
}

var rules = []rule{
	// 1. Reset column layout.
	{
		re: regexp.MustCompile(`(?i)\b(?:reset|restore)\b.*\bcolumns?\b|\boriginal\s+(?:column\s+)?order\b`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{Type: models.UIActionResetColumns}
		},
	},
	// Undo the last reorder.
	{
		re: regexp.MustCompile(`(?i)\bundo\b.*\b(?:move|reorder|column)\b`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{Type: models.UIActionUndoColumnReorder}
		},
	},
	// List visible columns.
	{
		re: regexp.MustCompile(`(?i)\b(?:list|what|which)\b.*\bcolumns\b`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{Type: models.UIActionListColumns}
		},
	},
	// 2a. Move to front.
	{
		re: regexp.MustCompile(`(?i)\bmove\s+(?:the\s+)?(.+?)(?:\s+column)?\s+to\s+(?:the\s+)?(?:front|beginning|start|left)\b`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{
				Type:     models.UIActionReorderColumn,
				Column:   columns.ResolveUIColumn(m[1]),
				Position: models.IntPtr(0),
			}
		},
	},
	// 2b. Move to back.
	{
		re: regexp.MustCompile(`(?i)\bmove\s+(?:the\s+)?(.+?)(?:\s+column)?\s+to\s+(?:the\s+)?(?:back|end|last|right)\b`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{
				Type:     models.UIActionReorderColumn,
				Column:   columns.ResolveUIColumn(m[1]),
				Position: models.IntPtr(-1),
			}
		},
	},
	// 2c. Move after another column.
	{
		re: regexp.MustCompile(`(?i)\bmove\s+(?:the\s+)?(.+?)(?:\s+column)?\s+(?:to\s+)?after\s+(?:the\s+)?(.+?)(?:\s+column)?\s*$`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{
				Type:        models.UIActionReorderColumn,
				Column:      columns.ResolveUIColumn(m[1]),
				AfterColumn: columns.ResolveUIColumn(m[2]),
			}
		},
	},
	// 2d. Move before another column.
	{
		re: regexp.MustCompile(`(?i)\bmove\s+(?:the\s+)?(.+?)(?:\s+column)?\s+(?:to\s+)?before\s+(?:the\s+)?(.+?)(?:\s+column)?\s*$`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{
				Type:         models.UIActionReorderColumn,
				Column:       columns.ResolveUIColumn(m[1]),
				BeforeColumn: columns.ResolveUIColumn(m[2]),
			}
		},
	},
	// 2e. Move to an ordinal position. User positions are 1-based; the
	// stored index is 0-based and clamped at 0.
	{
		re: regexp.MustCompile(`(?i)\bmove\s+(?:the\s+)?(.+?)(?:\s+column)?\s+to\s+(?:the\s+)?(?:position\s+)?(\d+)(?:st|nd|rd|th)?(?:\s+position)?\b`),
		build: func(m []string) *models.UIAction {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return &models.UIAction{Type: models.UIActionError, Message: "I couldn't understand that position."}
			}
			idx := n - 1
			if idx < 0 {
				idx = 0
			}
			return &models.UIAction{
				Type:   models.UIActionReorderColumn,
				Column: columns.ResolveUIColumn(m[1]),
				Index:  models.IntPtr(idx),
			}
		},
	},
	// Swap two columns.
	{
		re: regexp.MustCompile(`(?i)\bswap\s+(?:the\s+)?(.+?)(?:\s+column)?\s+(?:and|with)\s+(?:the\s+)?(.+?)(?:\s+columns?)?\s*$`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{
				Type:    models.UIActionSwapColumns,
				Column:  columns.ResolveUIColumn(m[1]),
				Column2: columns.ResolveUIColumn(m[2]),
			}
		},
	},
	// 5. Clear filter / clear sort. Checked before the filter and sort
	// rules so "clear the filter" never parses as a filter request.
	{
		re: regexp.MustCompile(`(?i)\b(?:clear|remove|reset)\b.*\bfilters?\b`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{Type: models.UIActionClearFilter}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(?:clear|remove|reset)\b.*\bsort(?:ing)?\b`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{Type: models.UIActionClearSort}
		},
	},
	// 3. Filter phrasing.
	{
		re: regexp.MustCompile(`(?i)\b(?:show|filter|display|only)\b.*?\b(?:attendees|records|rows)?\s*where\s+(.+?)\s+(?:is|equals|=|contains)\s+['"]?([^'"]+?)['"]?\s*$`),
		build: func(m []string) *models.UIAction {
			return &models.UIAction{
				Type:   models.UIActionFilter,
				Column: columns.ResolveUIColumn(m[1]),
				Value:  strings.TrimSpace(m[2]),
			}
		},
	},
	// 4. Sort phrasing; ascending is the default.
	{
		re: regexp.MustCompile(`(?i)\bsort(?:\s+(?:the\s+)?(?:data|table|rows))?\s+by\s+(.+?)(?:\s+(asc(?:ending)?|desc(?:ending)?))?\s*$`),
		build: func(m []string) *models.UIAction {
			dir := models.SortAscending
			if strings.HasPrefix(strings.ToLower(m[2]), "desc") {
				dir = models.SortDescending
			}
			return &models.UIAction{
				Type:      models.UIActionSort,
				Column:    columns.ResolveUIColumn(m[1]),
				Direction: dir,
			}
		},
	},
	// 6. Hide/remove a column.
	{
		re: regexp.MustCompile(`(?i)\b(?:hide|remove|delete|exclude)\s+(?:the\s+)?column\s+(.+?)\s*$|\b(?:hide|remove|delete|exclude|drop)\s+(?:the\s+)?(.+?)\s+column\b`),
		build: func(m []string) *models.UIAction {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			return &models.UIAction{
				Type:   models.UIActionRemoveColumn,
				Column: columns.ResolveUIColumn(name),
			}
		},
	},
}

// Detect returns the presentation-layer action a question asks for, or nil
// when the question should fall through to SQL generation. Pure function;
// applying the action to view state is the caller's job.
func Detect(question string) *models.UIAction {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil
	}
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(q); m != nil {
			return r.build(m)
		}
	}
	return nil
}
