/*
balance.go - Available-balance derivation and status labels

PURPOSE:
  Turns a per-employee, per-period BalanceRecord into the derived numbers the
  dashboard shows: the available balance and a status category.

THE ONE RULE:
  available = granted - consumed - sold

  Available may be negative (over-consumption is displayed, not clamped) and
  is never persisted - it is recomputed from the record on every call.

STATUS LABELS:
  intact       nothing consumed or sold from a non-zero allotment
  exhausted    available == 0
  in progress  everything else

  Note: "intact" compares against the record's own granted allotment rather
  than a fixed company-wide constant, so part-year grants classify correctly.

SEE ALSO:
  - types.go: BalanceRecord, Amount
  - api/handlers.go: where these values reach the dashboard
*/
package vacation

// =============================================================================
// BALANCE - Derived state, recomputed on demand
// =============================================================================

type BalanceStatus string

const (
	StatusIntact     BalanceStatus = "intact"
	StatusExhausted  BalanceStatus = "exhausted"
	StatusInProgress BalanceStatus = "in progress"
)

// Balance is the derived view of a BalanceRecord. Pure data; build it with
// Compute.
type Balance struct {
	Granted   Amount
	Consumed  Amount
	Sold      Amount
	Available Amount
}

// Compute derives the available balance from a record. Pure function: no
// side effects, identical output for identical input.
func Compute(rec BalanceRecord) Balance {
	return Balance{
		Granted:   rec.Granted,
		Consumed:  rec.Consumed,
		Sold:      rec.Sold,
		Available: rec.Granted.Sub(rec.Consumed).Sub(rec.Sold),
	}
}

// Status classifies the balance for display.
func (b Balance) Status() BalanceStatus {
	switch {
	case b.Available.Equal(b.Granted) && b.Granted.IsPositive():
		return StatusIntact
	case b.Available.IsZero():
		return StatusExhausted
	default:
		return StatusInProgress
	}
}
