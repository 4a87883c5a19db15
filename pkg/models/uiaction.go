package models

// UIActionType enumerates presentation-layer commands recognized by the
// detector. At most one action is produced per question, and an action is
// never combined with a SQL answer.
type UIActionType string

const (
	UIActionReorderColumn     UIActionType = "reorder_column"
	UIActionFilter            UIActionType = "filter"
	UIActionClearFilter       UIActionType = "clear_filter"
	UIActionSort              UIActionType = "sort"
	UIActionClearSort         UIActionType = "clear_sort"
	UIActionResetColumns      UIActionType = "reset_columns"
	UIActionRemoveColumn      UIActionType = "remove_column"
	UIActionSwapColumns       UIActionType = "swap_columns"
	UIActionListColumns       UIActionType = "list_columns"
	UIActionUndoColumnReorder UIActionType = "undo_column_reorder"
	UIActionError             UIActionType = "error"
)

// SortDirection is the direction requested by a sort action.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// UIAction is a tagged variant describing a command aimed at the
// presentation layer rather than at the data. Which fields are meaningful
// depends on Type; reorder actions set exactly one of Position, AfterColumn,
// BeforeColumn, or Index.
type UIAction struct {
	Type UIActionType `json:"type"`

	Column       string        `json:"column,omitempty"`
	Position     *int          `json:"position,omitempty"` // 0 = front
	AfterColumn  string        `json:"afterColumn,omitempty"`
	BeforeColumn string        `json:"beforeColumn,omitempty"`
	Index        *int          `json:"index,omitempty"` // 0-based target slot
	Value        string        `json:"value,omitempty"` // filter value
	Direction    SortDirection `json:"direction,omitempty"`
	Column2      string        `json:"column2,omitempty"` // swap target
	Message      string        `json:"message,omitempty"` // error text
}

// IntPtr is a convenience for building reorder actions in tests and
// detector rules.
func IntPtr(v int) *int { return &v }
