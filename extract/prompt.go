package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vantage-hr/leaveboard/vacation"
)

// PromptVersion identifies the system-prompt template. Bump it whenever the
// template or the response schema changes so stored original_text can be
// correlated with the prompt that processed it.
const PromptVersion = "2024-06.1"

const systemPromptTemplate = `You are an expert HR assistant. Extract structured data from a vacation request written in natural language.

Available employees:
%s

Today is: %s

Rules:
1. Identify the employee going on leave (employee_id).
2. Identify the start date (YYYY-MM-DD).
3. Work out the number of days requested (day_count).
4. Identify a replacement covering their duties if one is mentioned (replacement_id), otherwise null.
5. Determine the type: "PHYSICAL_LEAVE" for ordinary vacation, or "DAYS_SOLD" when the request mentions selling days, payout or cash.

Respond with ONLY a valid JSON object in exactly this shape:
{
  "employee_id": "...",
  "start_date": "YYYY-MM-DD",
  "day_count": 0,
  "replacement_id": "... or null",
  "type": "PHYSICAL_LEAVE",
  "detected_reason": "one-line summary of the request"
}`

// buildSystemPrompt renders the template with the roster context and the
// current date. One "Name (ID: x)" line per employee, like the form's
// dropdown but resolvable by the model.
func buildSystemPrompt(roster []RosterEntry, today vacation.Date) string {
	lines := make([]string, len(roster))
	for i, entry := range roster {
		lines[i] = fmt.Sprintf("%s (ID: %s)", entry.Name, entry.ID)
	}
	return fmt.Sprintf(systemPromptTemplate, strings.Join(lines, "\n"), today.String())
}

// rawCandidate is the exact wire schema the service must return. Anything
// that does not decode into this shape is a malformed response.
type rawCandidate struct {
	EmployeeID     string  `json:"employee_id"`
	StartDate      string  `json:"start_date"`
	DayCount       int     `json:"day_count"`
	ReplacementID  *string `json:"replacement_id"`
	Type           string  `json:"type"`
	DetectedReason string  `json:"detected_reason"`
}

func parseResponse(body string) (rawCandidate, error) {
	var raw rawCandidate
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return raw, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return raw, nil
}
