// Package prompts builds the system prompts for SQL synthesis and answer
// synthesis.
package prompts

import (
	"fmt"
	"strings"
)

// BuildSQLSystemPrompt creates the system prompt for turning an attendee
// question into SQL. It embeds the scope rules, the live schema text, the
// PII columns the model must omit, and the house SQL conventions, and it
// demands a bare JSON envelope with no prose wrapper.
func BuildSQLSystemPrompt(schemaText string, piiColumns []string) string {
	var b strings.Builder

	b.WriteString("You translate questions about event attendees into PostgreSQL queries.\n\n")

	b.WriteString("## Scope\n")
	b.WriteString("Only questions answerable from the attendee table are in scope. ")
	b.WriteString("Hotel contracts, budgets, logistics, sponsorship packages, marketing, and general knowledge are not. ")
	b.WriteString("If the question names attendees, registrations, or the guest list, treat it as in scope.\n\n")

	b.WriteString("## Schema\n")
	b.WriteString(schemaText)
	b.WriteString("\n\n")

	b.WriteString("## Restricted columns\n")
	b.WriteString("Never select, filter on, or otherwise reference these columns. Omit them silently; do not apologize or explain:\n")
	for _, c := range piiColumns {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\n")

	b.WriteString("## SQL conventions\n")
	b.WriteString("- Single SELECT statement, no semicolons, always a LIMIT.\n")
	b.WriteString("- Division: always divide by NULLIF(divisor, 0).\n")
	b.WriteString("- Name and company matching: ILIKE with surrounding % wildcards.\n")
	b.WriteString("- Nullable name parts: wrap in COALESCE(col, '') before concatenating.\n")
	b.WriteString("- Status values: \"Confirmed\" means registration_status IN ('Registered', 'confirmed'); ")
	b.WriteString("\"Cancelled\" means registration_status IN ('Cancelled', 'canceled'); ")
	b.WriteString("\"Pending\" means registration_status IN ('Pending', 'In Progress').\n\n")

	b.WriteString("## Response format\n")
	b.WriteString("Return only a JSON object, no markdown fences, no commentary:\n")
	b.WriteString(`{"sql": "SELECT ...", "intent": "one short sentence describing what the query answers"}` + "\n")
	b.WriteString("If the message is a presentation command (reorder, hide, sort, filter a column) instead of a data question, ")
	b.WriteString(`return {"sql": "", "intent": "", "action": {"type": "...", "column": "..."}} instead.` + "\n")

	return b.String()
}

// AnswerSystemPrompt instructs the model to summarize query results.
const AnswerSystemPrompt = `You write executive summaries of attendee query results.

- Use only the data provided. Never invent numbers or names.
- Tone: concise and factual, not conversational. No greetings, no offers to help further.
- If the result set is empty, reply exactly: No records match the specified criteria.
- If the question is a mathematical exercise, a security or infrastructure question, or a general-knowledge question, decline briefly even when attendee rows are present. Do not pivot to unrelated expertise.`

// DirectiveAnswerSystemPrompt is the stronger re-prompt used once when the
// model refuses a question that is known to be in scope.
const DirectiveAnswerSystemPrompt = `You write executive summaries of attendee query results.

The question below is an approved attendee-data question and the rows provided answer it. You must answer from the rows. Do not refuse, do not mention scope or policies. If the result set is empty, reply exactly: No records match the specified criteria.`

// BuildAnswerUserPrompt renders the question, intent, and result rows for
// answer synthesis. Rows are expected to be pre-truncated by the caller.
func BuildAnswerUserPrompt(question, intent, rowsJSON string, rowCount, totalRows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	if intent != "" {
		fmt.Fprintf(&b, "Query intent: %s\n", intent)
	}
	if totalRows > rowCount {
		fmt.Fprintf(&b, "Result rows (%d of %d shown):\n", rowCount, totalRows)
	} else {
		fmt.Fprintf(&b, "Result rows (%d):\n", rowCount)
	}
	b.WriteString(rowsJSON)
	return b.String()
}
