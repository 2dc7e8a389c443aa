/*
Package sqlite provides the SQLite-backed persistence adapter for the
vacation board.

PURPOSE:
  Implements the two operation families the dashboard needs:
  - Read: roster joined with employer/site/balance for a period, movement
    history per employee, and the calendar's leave set.
  - Write: insert one movement, cancel one movement (status change).

IMMUTABILITY:
  Movements are never updated in place and never deleted. The only UPDATE on
  the movements table flips status to CANCELLED; corrections are modeled as
  new movements.

REFERENCE SANITIZATION:
  replacement_id is a nullable reference column. An unset replacement is
  stored as NULL, never as an empty string - the store rejects nothing here,
  it simply normalizes before binding.

DECIMAL STORAGE:
  Balance day counters are stored as decimal strings and parsed back through
  vacation.ParseAmount, so derived arithmetic stays exact.

CONCURRENCY:
  sync.RWMutex around the connection; SQLite runs in WAL mode so readers do
  not block each other.

USAGE:
  store, err := sqlite.New("./data/leaveboard.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - vacation/types.go: The domain types persisted here
  - seed.go: Demo data loader
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vantage-hr/leaveboard/vacation"
)

// Store is the SQLite persistence adapter.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Read-only display references
	CREATE TABLE IF NOT EXISTS employers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	-- Roster
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		role_title TEXT NOT NULL DEFAULT '',
		hire_date TEXT NOT NULL,
		employer_id TEXT NOT NULL REFERENCES employers(id),
		site_id TEXT NOT NULL REFERENCES sites(id)
	);

	CREATE INDEX IF NOT EXISTS idx_employees_employer ON employees(employer_id);
	CREATE INDEX IF NOT EXISTS idx_employees_site ON employees(site_id);

	-- Per-employee, per-period day counters (decimal strings)
	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT NOT NULL REFERENCES employees(id),
		period INTEGER NOT NULL,
		days_granted TEXT NOT NULL DEFAULT '0',
		days_consumed TEXT NOT NULL DEFAULT '0',
		days_sold TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (employee_id, period)
	);

	-- Leave / days-sold events. Never deleted; cancellation is a status flip.
	CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		replacement_id TEXT REFERENCES employees(id),
		start_date TEXT NOT NULL,
		end_date TEXT,
		day_count INTEGER NOT NULL,
		mv_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		original_text TEXT,
		detected_reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_employee_created
		ON movements(employee_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_movements_status ON movements(status);
	CREATE INDEX IF NOT EXISTS idx_movements_type ON movements(mv_type);
	CREATE INDEX IF NOT EXISTS idx_movements_dates ON movements(start_date, end_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROSTER READS
// =============================================================================

// EmployeeRow is an employee joined with its display references and the
// balance record for the requested period.
type EmployeeRow struct {
	Employee     vacation.Employee
	EmployerName string
	SiteName     string
	Balance      vacation.BalanceRecord
	HasBalance   bool
}

// ListEmployees returns the full roster joined with employer, site and the
// balance record for the given period. Employees without a balance record
// for the period come back with a zero record (HasBalance false).
func (s *Store) ListEmployees(ctx context.Context, period int) ([]EmployeeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT e.id, e.first_name, e.last_name, e.role_title, e.hire_date,
		       e.employer_id, e.site_id,
		       c.name, st.name,
		       b.days_granted, b.days_consumed, b.days_sold
		FROM employees e
		JOIN employers c ON c.id = e.employer_id
		JOIN sites st ON st.id = e.site_id
		LEFT JOIN balances b ON b.employee_id = e.id AND b.period = ?
		ORDER BY e.last_name, e.first_name
	`

	rows, err := s.db.QueryContext(ctx, query, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []EmployeeRow
	for rows.Next() {
		var (
			row      EmployeeRow
			hireDate string
			granted  sql.NullString
			consumed sql.NullString
			sold     sql.NullString
		)

		err := rows.Scan(
			&row.Employee.ID, &row.Employee.FirstName, &row.Employee.LastName,
			&row.Employee.RoleTitle, &hireDate,
			&row.Employee.EmployerID, &row.Employee.SiteID,
			&row.EmployerName, &row.SiteName,
			&granted, &consumed, &sold,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}

		row.Employee.HireDate, _ = vacation.ParseDate(hireDate)
		row.Balance = vacation.ZeroBalanceRecord(row.Employee.ID, period)
		if granted.Valid {
			row.HasBalance = true
			row.Balance.Granted = vacation.ParseAmount(granted.String)
			row.Balance.Consumed = vacation.ParseAmount(consumed.String)
			row.Balance.Sold = vacation.ParseAmount(sold.String)
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

// GetEmployee returns a single employee, or vacation.ErrEmployeeNotFound.
func (s *Store) GetEmployee(ctx context.Context, id vacation.EmployeeID) (*vacation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		e        vacation.Employee
		hireDate string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, role_title, hire_date, employer_id, site_id
		 FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.FirstName, &e.LastName, &e.RoleTitle, &hireDate, &e.EmployerID, &e.SiteID)

	if err == sql.ErrNoRows {
		return nil, vacation.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	e.HireDate, _ = vacation.ParseDate(hireDate)
	return &e, nil
}

// =============================================================================
// MOVEMENT READS
// =============================================================================

// MovementRow is a movement joined with the names the views display.
type MovementRow struct {
	Movement        vacation.Movement
	EmployeeName    string  // "First Last" of the employee away
	ReplacementName *string // nil when no coverage
}

const movementColumns = `
	m.id, m.employee_id, m.replacement_id, m.start_date, m.end_date,
	m.day_count, m.mv_type, m.status, m.original_text, m.detected_reason,
	m.created_at,
	e.first_name, e.last_name,
	r.first_name, r.last_name
`

// MovementsByEmployee returns the movement history for one employee,
// cancelled excluded, newest first.
func (s *Store) MovementsByEmployee(ctx context.Context, employeeID vacation.EmployeeID) ([]MovementRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN employees e ON e.id = m.employee_id
		LEFT JOIN employees r ON r.id = m.replacement_id
		WHERE m.employee_id = ? AND m.status != ?
		ORDER BY m.created_at DESC
	`

	return s.queryMovements(ctx, query, employeeID, vacation.StatusCancelled)
}

// LeaveMovements returns the movements the calendar places on cells: every
// non-cancelled physical leave, across all employees. Days-sold movements
// never occupy calendar days.
func (s *Store) LeaveMovements(ctx context.Context) ([]MovementRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN employees e ON e.id = m.employee_id
		LEFT JOIN employees r ON r.id = m.replacement_id
		WHERE m.status != ? AND m.mv_type != ?
		ORDER BY m.start_date ASC, m.created_at ASC
	`

	return s.queryMovements(ctx, query, vacation.StatusCancelled, vacation.DaysSold)
}

func (s *Store) queryMovements(ctx context.Context, query string, args ...any) ([]MovementRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var out []MovementRow
	for rows.Next() {
		row, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func scanMovement(rows *sql.Rows) (MovementRow, error) {
	var (
		row            MovementRow
		replacementID  sql.NullString
		startDate      string
		endDate        sql.NullString
		originalText   sql.NullString
		detectedReason sql.NullString
		createdAt      string
		repFirst       sql.NullString
		repLast        sql.NullString
		empFirst       string
		empLast        string
	)

	err := rows.Scan(
		&row.Movement.ID, &row.Movement.EmployeeID, &replacementID,
		&startDate, &endDate,
		&row.Movement.DayCount, &row.Movement.Type, &row.Movement.Status,
		&originalText, &detectedReason, &createdAt,
		&empFirst, &empLast,
		&repFirst, &repLast,
	)
	if err != nil {
		return row, fmt.Errorf("failed to scan movement: %w", err)
	}

	if replacementID.Valid {
		id := vacation.EmployeeID(replacementID.String)
		row.Movement.ReplacementID = &id
	}
	row.Movement.StartDate, _ = vacation.ParseDate(startDate)
	if endDate.Valid && endDate.String != "" {
		d, err := vacation.ParseDate(endDate.String)
		if err == nil {
			row.Movement.EndDate = &d
		}
	}
	row.Movement.Meta.OriginalText = originalText.String
	row.Movement.Meta.DetectedReason = detectedReason.String
	row.Movement.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	row.EmployeeName = empFirst + " " + empLast
	if repFirst.Valid || repLast.Valid {
		name := repFirst.String + " " + repLast.String
		row.ReplacementName = &name
	}

	return row, nil
}

// =============================================================================
// MOVEMENT WRITES
// =============================================================================

// InsertMovement writes one movement. The replacement reference is
// normalized before binding: an empty or unset value is stored as NULL.
func (s *Store) InsertMovement(ctx context.Context, m vacation.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var endDate any
	if m.EndDate != nil {
		endDate = m.EndDate.String()
	}

	query := `
		INSERT INTO movements
		(id, employee_id, replacement_id, start_date, end_date, day_count,
		 mv_type, status, original_text, detected_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		m.ID,
		m.EmployeeID,
		nullableRef(m.ReplacementID),
		m.StartDate.String(),
		endDate,
		m.DayCount,
		m.Type,
		m.Status,
		m.Meta.OriginalText,
		m.Meta.DetectedReason,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}

	return nil
}

// CancelMovement flips a movement's status to CANCELLED. The row is
// otherwise untouched; movements are never deleted.
func (s *Store) CancelMovement(ctx context.Context, id vacation.MovementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status vacation.MovementStatus
	err := s.db.QueryRowContext(ctx,
		"SELECT status FROM movements WHERE id = ?", id,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return vacation.ErrMovementNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get movement: %w", err)
	}
	if status == vacation.StatusCancelled {
		return vacation.ErrMovementAlreadyCancelled
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE movements SET status = ? WHERE id = ?",
		vacation.StatusCancelled, id,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel movement: %w", err)
	}

	return nil
}

// nullableRef maps an absent or empty reference to NULL. The backing store
// treats empty strings in reference-typed columns as invalid.
func nullableRef(id *vacation.EmployeeID) any {
	if id == nil || *id == "" {
		return nil
	}
	return string(*id)
}

// =============================================================================
// ADMINISTRATIVE WRITES (seeding and setup flows)
// =============================================================================

// SaveEmployer upserts an employer reference.
func (s *Store) SaveEmployer(ctx context.Context, e vacation.Employer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employers (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		e.ID, e.Name,
	)
	return err
}

// SaveSite upserts a site reference.
func (s *Store) SaveSite(ctx context.Context, site vacation.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sites (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		site.ID, site.Name,
	)
	return err
}

// SaveEmployee upserts a roster entry.
func (s *Store) SaveEmployee(ctx context.Context, e vacation.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, first_name, last_name, role_title, hire_date, employer_id, site_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			role_title = excluded.role_title,
			hire_date = excluded.hire_date,
			employer_id = excluded.employer_id,
			site_id = excluded.site_id`,
		e.ID, e.FirstName, e.LastName, e.RoleTitle, e.HireDate.String(), e.EmployerID, e.SiteID,
	)
	return err
}

// SaveBalance upserts the day counters for one employee and period.
func (s *Store) SaveBalance(ctx context.Context, rec vacation.BalanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (employee_id, period, days_granted, days_consumed, days_sold)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(employee_id, period) DO UPDATE SET
			days_granted = excluded.days_granted,
			days_consumed = excluded.days_consumed,
			days_sold = excluded.days_sold`,
		rec.EmployeeID, rec.Period,
		rec.Granted.String(), rec.Consumed.String(), rec.Sold.String(),
	)
	return err
}
