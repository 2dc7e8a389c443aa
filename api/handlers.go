/*
handlers.go - HTTP handlers for the vacation board API

PURPOSE:
  Exposes the balance dashboard, movement history, calendar and the
  extraction assistant over REST. Handles HTTP request/response and JSON
  serialization, delegating calculation to the vacation package and
  persistence to the store.

ENDPOINTS:
  GET  /api/employees                  Roster with balances for a period
  GET  /api/employees/{id}/movements   Movement history (newest first)
  POST /api/movements                  Record a confirmed movement
  POST /api/movements/{id}/cancel      Cancel a movement (status change)
  GET  /api/calendar                   Month grid with absences per day
  POST /api/extract                    Pre-fill candidate from free text

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown employee or movement
  - 409: Movement already cancelled
  - 422: Extraction could not produce a usable candidate
  - 500: Persistence failures

  No failure is fatal: every error degrades to a message the dashboard can
  show while keeping its current state.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vantage-hr/leaveboard/extract"
	"github.com/vantage-hr/leaveboard/store/sqlite"
	"github.com/vantage-hr/leaveboard/vacation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Extractor is the extraction adapter dependency. Satisfied by
// *extract.Extractor; stubbed in tests.
type Extractor interface {
	Extract(ctx context.Context, text string, roster []extract.RosterEntry) (*extract.Candidate, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Extractor Extractor

	// DefaultPeriod is the fiscal year shown when the client does not ask
	// for one.
	DefaultPeriod int

	log *logrus.Logger
}

// NewHandler creates a handler around the store and extraction adapter.
// extractor may be nil when no credential is configured; the extract
// endpoint then reports the assistant as unavailable.
func NewHandler(store *sqlite.Store, extractor Extractor, defaultPeriod int, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:         store,
		Extractor:     extractor,
		DefaultPeriod: defaultPeriod,
		log:           log,
	}
}

// =============================================================================
// EMPLOYEE / BALANCE HANDLERS
// =============================================================================

// ListEmployees returns the roster joined with employer, site and the
// period's balance, plus the derived available days and status label.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	period := h.DefaultPeriod
	if p := r.URL.Query().Get("period"); p != "" {
		parsed, err := parsePeriod(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period (use a four-digit year)", err)
			return
		}
		period = parsed
	}

	rows, err := h.Store.ListEmployees(r.Context(), period)
	if err != nil {
		h.log.WithError(err).Error("failed to list employees")
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toEmployeeDTO(row)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetMovements returns one employee's movement history, cancelled excluded,
// newest first.
func (h *Handler) GetMovements(w http.ResponseWriter, r *http.Request) {
	id := vacation.EmployeeID(chi.URLParam(r, "id"))
	ctx := r.Context()

	if _, err := h.Store.GetEmployee(ctx, id); err != nil {
		if errors.Is(err, vacation.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "Employee not found", nil)
			return
		}
		h.log.WithError(err).Error("failed to get employee")
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}

	rows, err := h.Store.MovementsByEmployee(ctx, id)
	if err != nil {
		h.log.WithError(err).Error("failed to get movements")
		writeError(w, http.StatusInternalServerError, "Failed to get movements", err)
		return
	}

	dtos := make([]MovementDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toMovementDTO(row)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

// CreateMovement records a confirmed form submission as a new movement.
func (h *Handler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	var req CreateMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	startDate, err := vacation.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	if req.DayCount <= 0 {
		writeError(w, http.StatusBadRequest, "day_count must be positive", nil)
		return
	}
	if !vacation.ValidMovementType(req.Type) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown type %q", req.Type), nil)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetEmployee(ctx, vacation.EmployeeID(req.EmployeeID)); err != nil {
		if errors.Is(err, vacation.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "Employee not found", nil)
			return
		}
		h.log.WithError(err).Error("failed to get employee")
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}

	movement := vacation.Movement{
		ID:         vacation.MovementID(uuid.NewString()),
		EmployeeID: vacation.EmployeeID(req.EmployeeID),
		StartDate:  startDate,
		DayCount:   req.DayCount,
		Type:       vacation.MovementType(req.Type),
		Status:     vacation.StatusActive,
		Meta: vacation.MovementMeta{
			OriginalText:   req.OriginalText,
			DetectedReason: req.DetectedReason,
		},
		CreatedAt: time.Now().UTC(),
	}

	// An empty replacement is an explicit absence, never an empty string.
	if req.ReplacementID != "" {
		id := vacation.EmployeeID(req.ReplacementID)
		movement.ReplacementID = &id
	}

	if req.EndDate != "" {
		endDate, err := vacation.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
			return
		}
		movement.EndDate = &endDate
	}

	if err := h.Store.InsertMovement(ctx, movement); err != nil {
		h.log.WithError(err).Error("failed to insert movement")
		writeError(w, http.StatusInternalServerError, "Failed to save movement", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"movement_id": movement.ID,
		"employee_id": movement.EmployeeID,
		"type":        movement.Type,
	}).Info("movement recorded")

	writeJSON(w, http.StatusCreated, toMovementDTO(sqlite.MovementRow{Movement: movement}))
}

// CancelMovement flips a movement to CANCELLED. Movements are never
// deleted; this is the only mutation the API allows on one.
func (h *Handler) CancelMovement(w http.ResponseWriter, r *http.Request) {
	id := vacation.MovementID(chi.URLParam(r, "id"))

	err := h.Store.CancelMovement(r.Context(), id)
	switch {
	case errors.Is(err, vacation.ErrMovementNotFound):
		writeError(w, http.StatusNotFound, "Movement not found", nil)
	case errors.Is(err, vacation.ErrMovementAlreadyCancelled):
		writeError(w, http.StatusConflict, "Movement already cancelled", nil)
	case err != nil:
		h.log.WithError(err).Error("failed to cancel movement")
		writeError(w, http.StatusInternalServerError, "Failed to cancel movement", err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":      string(vacation.StatusCancelled),
			"movement_id": string(id),
		})
	}
}

// =============================================================================
// CALENDAR HANDLER
// =============================================================================

// GetCalendar returns the month grid with the absences covering each day.
// Month defaults to the current month; days-sold movements never appear.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	anchor := vacation.Today()
	if m := r.URL.Query().Get("month"); m != "" {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
			return
		}
		anchor = vacation.DateOf(t)
	}

	rows, err := h.Store.LeaveMovements(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to load calendar movements")
		writeError(w, http.StatusInternalServerError, "Failed to load calendar", err)
		return
	}

	movements := make([]vacation.Movement, len(rows))
	names := make(map[vacation.MovementID]string, len(rows))
	for i, row := range rows {
		movements[i] = row.Movement
		names[row.Movement.ID] = row.EmployeeName
	}

	cells := vacation.BuildCalendar(anchor.Year(), anchor.Month(), movements)

	dto := CalendarDTO{
		Month: fmt.Sprintf("%04d-%02d", anchor.Year(), int(anchor.Month())),
		Cells: make([]CalendarCellDTO, len(cells)),
	}
	for i, cell := range cells {
		events := make([]CalendarEventDTO, len(cell.Movements))
		for j, m := range cell.Movements {
			events[j] = CalendarEventDTO{
				MovementID:   string(m.ID),
				EmployeeID:   string(m.EmployeeID),
				EmployeeName: names[m.ID],
				DayCount:     m.DayCount,
			}
		}
		dto.Cells[i] = CalendarCellDTO{
			Date:     cell.Day.String(),
			InMonth:  cell.InMonth,
			Absences: events,
		}
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// EXTRACTION HANDLER
// =============================================================================

// ExtractMovement runs the extraction adapter over the operator's text and
// returns a candidate for the form. The candidate is advisory; persistence
// happens only through CreateMovement after the operator confirms.
func (h *Handler) ExtractMovement(w http.ResponseWriter, r *http.Request) {
	if h.Extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "Extraction assistant is not configured", nil)
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required", nil)
		return
	}

	ctx := r.Context()
	rows, err := h.Store.ListEmployees(ctx, h.DefaultPeriod)
	if err != nil {
		h.log.WithError(err).Error("failed to load roster for extraction")
		writeError(w, http.StatusInternalServerError, "Failed to load roster", err)
		return
	}

	roster := make([]extract.RosterEntry, len(rows))
	for i, row := range rows {
		roster[i] = extract.RosterEntry{ID: row.Employee.ID, Name: row.Employee.FullName()}
	}

	candidate, err := h.Extractor.Extract(ctx, req.Text, roster)
	if err != nil {
		// A single attempt, no retry: the form stays as it was and the
		// operator gets a message they can act on.
		h.log.WithError(err).Warn("extraction failed")
		writeError(w, http.StatusUnprocessableEntity,
			"Could not understand the request. Try being more specific.", err)
		return
	}

	writeJSON(w, http.StatusOK, toExtractResponseDTO(candidate))
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(s string) (int, error) {
	t, err := time.Parse("2006", s)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
