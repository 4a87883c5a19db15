package uiaction

import (
	"fmt"

	"github.com/eventlens-ai/insights-engine/pkg/columns"
	"github.com/eventlens-ai/insights-engine/pkg/models"
)

// Confirmation renders the fixed human-readable sentence for an applied
// action. The wording is part of the external contract and tests assert
// literal equality, so the templates here must not drift.
func Confirmation(a *models.UIAction) string {
	if a == nil {
		return ""
	}

	switch a.Type {
	case models.UIActionReorderColumn:
		name := columns.Display(a.Column)
		switch {
		case a.Position != nil && *a.Position == 0:
			return fmt.Sprintf("I've moved the %q column to the front.", name)
		case a.Position != nil:
			return fmt.Sprintf("I've moved the %q column to the end.", name)
		case a.AfterColumn != "":
			return fmt.Sprintf("I've moved the %q column after %q.", name, columns.Display(a.AfterColumn))
		case a.BeforeColumn != "":
			return fmt.Sprintf("I've moved the %q column before %q.", name, columns.Display(a.BeforeColumn))
		case a.Index != nil:
			return fmt.Sprintf("I've moved the %q column to position %d.", name, *a.Index+1)
		}
		return fmt.Sprintf("I've moved the %q column.", name)

	case models.UIActionFilter:
		return fmt.Sprintf("I've applied a filter: showing only records where %q contains %q.",
			columns.Display(a.Column), a.Value)

	case models.UIActionClearFilter:
		return "I've cleared all filters."

	case models.UIActionSort:
		dir := "ascending"
		if a.Direction == models.SortDescending {
			dir = "descending"
		}
		return fmt.Sprintf("I've sorted the data by %q in %s order.", columns.Display(a.Column), dir)

	case models.UIActionClearSort:
		return "I've cleared the sorting."

	case models.UIActionResetColumns:
		return "I've restored the column order to its original position."

	case models.UIActionRemoveColumn:
		return fmt.Sprintf("I've removed the %q column from the view.", columns.Display(a.Column))

	case models.UIActionSwapColumns:
		return fmt.Sprintf("I've swapped the %q and %q columns.",
			columns.Display(a.Column), columns.Display(a.Column2))

	case models.UIActionListColumns:
		return "Here are the columns currently in the view."

	case models.UIActionUndoColumnReorder:
		return "I've undone the last column move."

	case models.UIActionError:
		return a.Message
	}

	return ""
}
