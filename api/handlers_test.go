package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantage-hr/leaveboard/api"
	"github.com/vantage-hr/leaveboard/extract"
	"github.com/vantage-hr/leaveboard/store/sqlite"
	"github.com/vantage-hr/leaveboard/vacation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testPeriod = 2024

// stubExtractor returns a canned candidate or error.
type stubExtractor struct {
	candidate *extract.Candidate
	err       error

	gotText   string
	gotRoster []extract.RosterEntry
}

func (s *stubExtractor) Extract(_ context.Context, text string, roster []extract.RosterEntry) (*extract.Candidate, error) {
	s.gotText = text
	s.gotRoster = roster
	return s.candidate, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestServer wires an in-memory store, a small roster and the stub
// extractor behind the real router.
func newTestServer(t *testing.T, ex api.Extractor) (*httptest.Server, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveEmployer(ctx, vacation.Employer{ID: "co-1", Name: "Vantage Retail"}))
	require.NoError(t, store.SaveSite(ctx, vacation.Site{ID: "site-1", Name: "Lima Centro"}))

	employees := []vacation.Employee{
		{ID: "emp-maria", FirstName: "Maria", LastName: "Quispe", RoleTitle: "Cashier",
			HireDate: vacation.NewDate(2020, 3, 1), EmployerID: "co-1", SiteID: "site-1"},
		{ID: "emp-pedro", FirstName: "Pedro", LastName: "Salas", RoleTitle: "Supervisor",
			HireDate: vacation.NewDate(2019, 7, 15), EmployerID: "co-1", SiteID: "site-1"},
	}
	for _, e := range employees {
		require.NoError(t, store.SaveEmployee(ctx, e))
	}

	// Maria has a balance record; Pedro deliberately has none.
	require.NoError(t, store.SaveBalance(ctx, vacation.BalanceRecord{
		EmployeeID: "emp-maria",
		Period:     testPeriod,
		Granted:    vacation.NewAmount(30),
		Consumed:   vacation.NewAmount(10),
		Sold:       vacation.NewAmount(5),
	}))

	handler := api.NewHandler(store, ex, testPeriod, quietLogger())
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)

	return server, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// =============================================================================
// EMPLOYEE / BALANCE ENDPOINTS
// =============================================================================

func TestListEmployees_BalancesAndDerivedFields(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/employees")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var employees []api.EmployeeDTO
	decodeBody(t, resp, &employees)
	require.Len(t, employees, 2)

	// Sorted by last name: Quispe before Salas
	maria := employees[0]
	assert.Equal(t, "emp-maria", maria.ID)
	assert.Equal(t, "Vantage Retail", maria.Employer)
	assert.Equal(t, "Lima Centro", maria.Site)
	assert.Equal(t, 30, maria.Granted)
	assert.Equal(t, 15, maria.Available) // 30 - 10 - 5
	assert.Equal(t, "in progress", maria.Status)

	// No balance record defaults to zeros, never an error
	pedro := employees[1]
	assert.Equal(t, "emp-pedro", pedro.ID)
	assert.Equal(t, 0, pedro.Granted)
	assert.Equal(t, 0, pedro.Available)
	assert.Equal(t, "exhausted", pedro.Status)
}

func TestListEmployees_InvalidPeriod(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/employees?period=banana")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMovements_UnknownEmployee(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/employees/emp-ghost/movements")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// MOVEMENT ENDPOINTS
// =============================================================================

func TestCreateMovement_ThenHistory(t *testing.T) {
	// GIVEN: A confirmed form submission with a replacement
	// WHEN: It is created and the history is fetched
	// THEN: The movement comes back with names joined and derived end date

	server, _ := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/movements", api.CreateMovementRequest{
		EmployeeID:    "emp-maria",
		ReplacementID: "emp-pedro",
		StartDate:     "2024-06-10",
		DayCount:      5,
		Type:          "PHYSICAL_LEAVE",
		OriginalText:  "Maria out for a week, Pedro covers",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created api.MovementDTO
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "2024-06-14", created.EndDate) // start + (5-1) days
	assert.Equal(t, "ACTIVE", created.Status)

	histResp, err := http.Get(server.URL + "/api/employees/emp-maria/movements")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, histResp.StatusCode)

	var history []api.MovementDTO
	decodeBody(t, histResp, &history)
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].ID)
	assert.Equal(t, "Maria Quispe", history[0].EmployeeName)
	require.NotNil(t, history[0].ReplacementName)
	assert.Equal(t, "Pedro Salas", *history[0].ReplacementName)
}

func TestCreateMovement_EmptyReplacementSanitized(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/movements", api.CreateMovementRequest{
		EmployeeID: "emp-maria",
		StartDate:  "2024-07-01",
		DayCount:   3,
		Type:       "DAYS_SOLD",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created api.MovementDTO
	decodeBody(t, resp, &created)
	assert.Nil(t, created.ReplacementID)

	histResp, err := http.Get(server.URL + "/api/employees/emp-maria/movements")
	require.NoError(t, err)
	var history []api.MovementDTO
	decodeBody(t, histResp, &history)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].ReplacementID)
}

func TestCreateMovement_Validation(t *testing.T) {
	server, _ := newTestServer(t, nil)

	tests := []struct {
		name       string
		req        api.CreateMovementRequest
		wantStatus int
	}{
		{"missing employee", api.CreateMovementRequest{StartDate: "2024-06-10", DayCount: 5, Type: "PHYSICAL_LEAVE"}, http.StatusBadRequest},
		{"bad start date", api.CreateMovementRequest{EmployeeID: "emp-maria", StartDate: "soon", DayCount: 5, Type: "PHYSICAL_LEAVE"}, http.StatusBadRequest},
		{"zero days", api.CreateMovementRequest{EmployeeID: "emp-maria", StartDate: "2024-06-10", DayCount: 0, Type: "PHYSICAL_LEAVE"}, http.StatusBadRequest},
		{"unknown type", api.CreateMovementRequest{EmployeeID: "emp-maria", StartDate: "2024-06-10", DayCount: 5, Type: "SABBATICAL"}, http.StatusBadRequest},
		{"unknown employee", api.CreateMovementRequest{EmployeeID: "emp-ghost", StartDate: "2024-06-10", DayCount: 5, Type: "PHYSICAL_LEAVE"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, server.URL+"/api/movements", tt.req)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestCancelMovement_Lifecycle(t *testing.T) {
	// GIVEN: An active movement
	// WHEN: It is cancelled twice
	// THEN: First cancel succeeds, second reports the conflict

	server, _ := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/movements", api.CreateMovementRequest{
		EmployeeID: "emp-maria",
		StartDate:  "2024-06-10",
		DayCount:   5,
		Type:       "PHYSICAL_LEAVE",
	})
	var created api.MovementDTO
	decodeBody(t, resp, &created)

	cancelURL := server.URL + "/api/movements/" + created.ID + "/cancel"

	first := doJSON(t, http.MethodPost, cancelURL, nil)
	defer first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := doJSON(t, http.MethodPost, cancelURL, nil)
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)

	// Cancelled movements disappear from the history
	histResp, err := http.Get(server.URL + "/api/employees/emp-maria/movements")
	require.NoError(t, err)
	var history []api.MovementDTO
	decodeBody(t, histResp, &history)
	assert.Empty(t, history)
}

func TestCancelMovement_NotFound(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/movements/mov-ghost/cancel", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// CALENDAR ENDPOINT
// =============================================================================

func TestGetCalendar_MonthView(t *testing.T) {
	// GIVEN: A 5-day leave, a days-sold movement and a cancelled leave in June
	// WHEN: The June 2024 calendar is fetched
	// THEN: Only the active leave occupies cells, on exactly its 5 days

	server, store := newTestServer(t, nil)
	ctx := context.Background()

	leave := vacation.Movement{
		ID: "mov-leave", EmployeeID: "emp-maria",
		StartDate: vacation.NewDate(2024, 6, 10), DayCount: 5,
		Type: vacation.PhysicalLeave, Status: vacation.StatusActive,
	}
	sold := vacation.Movement{
		ID: "mov-sold", EmployeeID: "emp-pedro",
		StartDate: vacation.NewDate(2024, 6, 10), DayCount: 3,
		Type: vacation.DaysSold, Status: vacation.StatusActive,
	}
	cancelled := vacation.Movement{
		ID: "mov-cancelled", EmployeeID: "emp-pedro",
		StartDate: vacation.NewDate(2024, 6, 12), DayCount: 2,
		Type: vacation.PhysicalLeave, Status: vacation.StatusCancelled,
	}
	for _, m := range []vacation.Movement{leave, sold, cancelled} {
		require.NoError(t, store.InsertMovement(ctx, m))
	}

	resp, err := http.Get(server.URL + "/api/calendar?month=2024-06")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var calendar api.CalendarDTO
	decodeBody(t, resp, &calendar)
	assert.Equal(t, "2024-06", calendar.Month)

	// June 2024 pads to full Monday-start weeks: May 27 through June 30
	require.Len(t, calendar.Cells, 35)
	assert.Equal(t, "2024-05-27", calendar.Cells[0].Date)
	assert.False(t, calendar.Cells[0].InMonth)
	assert.True(t, calendar.Cells[5].InMonth) // June 1

	occupied := map[string][]api.CalendarEventDTO{}
	for _, cell := range calendar.Cells {
		if len(cell.Absences) > 0 {
			occupied[cell.Date] = cell.Absences
		}
	}

	require.Len(t, occupied, 5)
	for _, day := range []string{"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14"} {
		events, ok := occupied[day]
		require.True(t, ok, "expected absence on %s", day)
		require.Len(t, events, 1)
		assert.Equal(t, "mov-leave", events[0].MovementID)
		assert.Equal(t, "Maria Quispe", events[0].EmployeeName)
	}
}

func TestGetCalendar_InvalidMonth(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/calendar?month=June")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// EXTRACTION ENDPOINT
// =============================================================================

func TestExtractMovement_Success(t *testing.T) {
	replacement := vacation.EmployeeID("emp-pedro")
	stub := &stubExtractor{candidate: &extract.Candidate{
		EmployeeID:     "emp-maria",
		StartDate:      vacation.NewDate(2024, 6, 10),
		DayCount:       7,
		ReplacementID:  &replacement,
		Type:           vacation.PhysicalLeave,
		DetectedReason: "week off",
	}}
	server, _ := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/extract",
		api.ExtractRequest{Text: "Maria se va una semana, la cubre Pedro"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var candidate api.ExtractResponseDTO
	decodeBody(t, resp, &candidate)
	assert.Equal(t, "emp-maria", candidate.EmployeeID)
	assert.Equal(t, "2024-06-10", candidate.StartDate)
	assert.Equal(t, 7, candidate.DayCount)
	require.NotNil(t, candidate.ReplacementID)
	assert.Equal(t, "emp-pedro", *candidate.ReplacementID)
	assert.Equal(t, extract.PromptVersion, candidate.PromptVersion)

	// The adapter saw the operator text and the full roster
	assert.Equal(t, "Maria se va una semana, la cubre Pedro", stub.gotText)
	require.Len(t, stub.gotRoster, 2)
	assert.Equal(t, "Maria Quispe", stub.gotRoster[0].Name)
}

func TestExtractMovement_FailureKeepsFormUsable(t *testing.T) {
	// Any extraction failure surfaces as 422 with an actionable message; the
	// dashboard keeps its state and the operator retries or types manually.
	stub := &stubExtractor{err: errors.New("wrapped: " + extract.ErrAmbiguous.Error())}
	server, _ := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/extract", api.ExtractRequest{Text: "gibberish"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var errResp api.ErrorResponse
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "Could not understand the request. Try being more specific.", errResp.Error)
}

func TestExtractMovement_EmptyText(t *testing.T) {
	server, _ := newTestServer(t, &stubExtractor{})

	resp := doJSON(t, http.MethodPost, server.URL+"/api/extract", api.ExtractRequest{Text: ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractMovement_NotConfigured(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/extract", api.ExtractRequest{Text: "anything"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
