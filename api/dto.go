/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model from the wire contract the dashboard consumes.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/vantage-hr/leaveboard/extract"
	"github.com/vantage-hr/leaveboard/store/sqlite"
	"github.com/vantage-hr/leaveboard/vacation"
)

// =============================================================================
// EMPLOYEE / BALANCE
// =============================================================================

// EmployeeDTO is one row of the balance dashboard: roster entry, display
// references, stored counters and the derived available/status pair.
type EmployeeDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleTitle string `json:"role_title"`
	HireDate  string `json:"hire_date"`
	Employer  string `json:"employer"`
	Site      string `json:"site"`

	Period    int    `json:"period"`
	Granted   int    `json:"days_granted"`
	Consumed  int    `json:"days_consumed"`
	Sold      int    `json:"days_sold"`
	Available int    `json:"days_available"`
	Status    string `json:"status"`
}

func toEmployeeDTO(row sqlite.EmployeeRow) EmployeeDTO {
	balance := vacation.Compute(row.Balance)
	return EmployeeDTO{
		ID:        string(row.Employee.ID),
		FirstName: row.Employee.FirstName,
		LastName:  row.Employee.LastName,
		RoleTitle: row.Employee.RoleTitle,
		HireDate:  row.Employee.HireDate.String(),
		Employer:  row.EmployerName,
		Site:      row.SiteName,
		Period:    row.Balance.Period,
		Granted:   balance.Granted.Int(),
		Consumed:  balance.Consumed.Int(),
		Sold:      balance.Sold.Int(),
		Available: balance.Available.Int(),
		Status:    string(balance.Status()),
	}
}

// =============================================================================
// MOVEMENTS
// =============================================================================

// MovementDTO is one movement as the history panel and calendar render it.
type MovementDTO struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    string  `json:"employee_name,omitempty"`
	ReplacementID   *string `json:"replacement_id"`
	ReplacementName *string `json:"replacement_name,omitempty"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	DayCount        int     `json:"day_count"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	OriginalText    string  `json:"original_text,omitempty"`
	DetectedReason  string  `json:"detected_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toMovementDTO(row sqlite.MovementRow) MovementDTO {
	m := row.Movement
	dto := MovementDTO{
		ID:              string(m.ID),
		EmployeeID:      string(m.EmployeeID),
		EmployeeName:    row.EmployeeName,
		ReplacementName: row.ReplacementName,
		StartDate:       m.StartDate.String(),
		EndDate:         m.End().String(),
		DayCount:        m.DayCount,
		Type:            string(m.Type),
		Status:          string(m.Status),
		OriginalText:    m.Meta.OriginalText,
		DetectedReason:  m.Meta.DetectedReason,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
	if m.ReplacementID != nil {
		s := string(*m.ReplacementID)
		dto.ReplacementID = &s
	}
	return dto
}

// CreateMovementRequest is the confirmed form submission. ReplacementID may
// arrive as an empty string; it is sanitized to an absent reference before
// persistence.
type CreateMovementRequest struct {
	EmployeeID     string `json:"employee_id"`
	ReplacementID  string `json:"replacement_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	DayCount       int    `json:"day_count"`
	Type           string `json:"type"`
	OriginalText   string `json:"original_text,omitempty"`
	DetectedReason string `json:"detected_reason,omitempty"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// CalendarDTO is the month view: full Monday-start weeks around the visible
// month, each cell carrying the absences covering that day.
type CalendarDTO struct {
	Month string            `json:"month"` // YYYY-MM
	Cells []CalendarCellDTO `json:"cells"`
}

type CalendarCellDTO struct {
	Date     string             `json:"date"`
	InMonth  bool               `json:"in_month"`
	Absences []CalendarEventDTO `json:"absences"`
}

type CalendarEventDTO struct {
	MovementID   string `json:"movement_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	DayCount     int    `json:"day_count"`
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractRequest carries the operator's free text.
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractResponseDTO is the candidate the form pre-fills from. Advisory
// only; nothing persists until the operator confirms.
type ExtractResponseDTO struct {
	EmployeeID     string  `json:"employee_id"`
	StartDate      string  `json:"start_date"`
	DayCount       int     `json:"day_count"`
	ReplacementID  *string `json:"replacement_id"`
	Type           string  `json:"type"`
	DetectedReason string  `json:"detected_reason"`
	PromptVersion  string  `json:"prompt_version"`
}

func toExtractResponseDTO(c *extract.Candidate) ExtractResponseDTO {
	dto := ExtractResponseDTO{
		EmployeeID:     string(c.EmployeeID),
		StartDate:      c.StartDate.String(),
		DayCount:       c.DayCount,
		Type:           string(c.Type),
		DetectedReason: c.DetectedReason,
		PromptVersion:  extract.PromptVersion,
	}
	if c.ReplacementID != nil {
		s := string(*c.ReplacementID)
		dto.ReplacementID = &s
	}
	return dto
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
