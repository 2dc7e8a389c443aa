/*
Package vacation contains the domain model and pure calculation logic for
the vacation balance board.

PURPOSE:
  This package answers two questions without touching any I/O:
  - "How many days does this employee have left?" (balance.go)
  - "Who is away on this calendar day?" (calendar.go)

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount:        A day quantity backed by decimal.Decimal
  - Employee:      Roster entry with employer/site references
  - BalanceRecord: Per-employee, per-period granted/consumed/sold days
  - Movement:      A single leave-taking or days-sold event

DESIGN PRINCIPLES:
  1. Movements are immutable once written; corrections are new movements and
     cancellation is a status change, never a delete.
  2. Available balance is always derived (granted - consumed - sold), never
     stored.
  3. Precision: decimal.Decimal for all day arithmetic.

SEE ALSO:
  - balance.go:  Balance derivation and status labels
  - calendar.go: Date-range overlap and month grid
  - store/sqlite: Persistence of these types
*/
package vacation

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Day quantity
// =============================================================================

// Amount is a quantity of vacation days. Decimal-backed so that balance
// arithmetic never accumulates floating-point error.
type Amount struct {
	Value decimal.Decimal
}

func NewAmount(days int) Amount {
	return Amount{Value: decimal.NewFromInt(int64(days))}
}

func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{Value: decimal.Zero}
	}
	return Amount{Value: d}
}

func (a Amount) Add(b Amount) Amount   { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount   { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount           { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsZero() bool          { return a.Value.IsZero() }
func (a Amount) IsNegative() bool      { return a.Value.IsNegative() }
func (a Amount) IsPositive() bool      { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool   { return a.Value.Equal(b.Value) }
func (a Amount) Int() int              { return int(a.Value.IntPart()) }
func (a Amount) String() string        { return a.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type MovementID string

// =============================================================================
// ROSTER - Employees and their read-only references
// =============================================================================

// Employer is a display-only reference (many employees to one employer).
type Employer struct {
	ID   string
	Name string
}

// Site is a display-only reference (many employees to one site).
type Site struct {
	ID   string
	Name string
}

// Employee is a roster entry. Owned by the persistence store; this system
// only reads it.
type Employee struct {
	ID         EmployeeID
	FirstName  string
	LastName   string
	RoleTitle  string
	HireDate   Date
	EmployerID string
	SiteID     string
}

// DisplayName renders "LastName, FirstName" the way the dashboard lists
// employees.
func (e Employee) DisplayName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.LastName + ", " + e.FirstName
}

// FullName renders "FirstName LastName" for prompt/roster contexts.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// =============================================================================
// BALANCE RECORD - Per employee, per fiscal period
// =============================================================================

// BalanceRecord holds the persisted day counters for one employee in one
// fiscal period. Available is never stored; derive it with Compute().
type BalanceRecord struct {
	EmployeeID EmployeeID
	Period     int // fiscal year, e.g. 2024
	Granted    Amount
	Consumed   Amount
	Sold       Amount
}

// ZeroBalanceRecord is the default when no record exists for a period.
// The system tolerates zero records per (employee, period).
func ZeroBalanceRecord(employeeID EmployeeID, period int) BalanceRecord {
	return BalanceRecord{EmployeeID: employeeID, Period: period}
}

// =============================================================================
// MOVEMENT - Leave or days-sold event
// =============================================================================

type MovementType string

const (
	// PhysicalLeave is ordinary vacation taken as days away.
	PhysicalLeave MovementType = "PHYSICAL_LEAVE"
	// DaysSold is vacation days exchanged for pay instead of taken.
	DaysSold MovementType = "DAYS_SOLD"
)

// ValidMovementType reports whether s is a known movement type.
func ValidMovementType(s string) bool {
	switch MovementType(s) {
	case PhysicalLeave, DaysSold:
		return true
	}
	return false
}

type MovementStatus string

const (
	StatusActive    MovementStatus = "ACTIVE"
	StatusCancelled MovementStatus = "CANCELLED"
)

// MovementMeta is free-form context captured at submission time.
type MovementMeta struct {
	OriginalText   string
	DetectedReason string
}

// Movement records a single leave-taking or days-sold event. Created once by
// form submission; optionally cancelled (status change); never deleted.
type Movement struct {
	ID            MovementID
	EmployeeID    EmployeeID
	ReplacementID *EmployeeID // employee covering duties, nil when none
	StartDate     Date
	EndDate       *Date // optional; End() derives it from DayCount when nil
	DayCount      int
	Type          MovementType
	Status        MovementStatus
	Meta          MovementMeta
	CreatedAt     time.Time
}

// IsCancelled reports whether the movement has been cancelled.
func (m Movement) IsCancelled() bool { return m.Status == StatusCancelled }
