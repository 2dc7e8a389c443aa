/*
calendar.go - Date-range overlap engine and month grid

PURPOSE:
  Places leave movements on calendar cells. Two pieces:
  - Overlap: which movements cover a given calendar day?
  - Grid:    which days does the visible month render?

OVERLAP RULES:
  - A movement covers day D when start <= D <= end, inclusive on both ends,
    at calendar-day granularity.
  - end is the explicit end date when present, otherwise
    start + max(dayCount - 1, 0): a one-day leave starts and ends the same
    day.
  - Cancelled movements never cover anything.
  - All covering movements are returned; a day may show several colleagues
    away at once. Output order follows input order, so results are
    deterministic for a fixed input.

GRID RULES:
  The grid always renders full Monday-start weeks surrounding the visible
  month, so it includes trailing/leading days of the adjacent months and is
  always 5 or 6 rows of 7 cells.

SEE ALSO:
  - date.go:  Date arithmetic and week boundaries
  - api/handlers.go: GetCalendar builds the month view from this
*/
package vacation

import "time"

// =============================================================================
// OVERLAP ENGINE
// =============================================================================

// End returns the inclusive last day of the movement. Falls back to
// start + (dayCount - 1) when no explicit end date was stored.
func (m Movement) End() Date {
	if m.EndDate != nil {
		return *m.EndDate
	}
	extra := m.DayCount - 1
	if extra < 0 {
		extra = 0
	}
	return m.StartDate.AddDays(extra)
}

// Covers reports whether the movement's inclusive [start, end] interval
// contains day. Cancelled movements cover nothing.
func (m Movement) Covers(day Date) bool {
	if m.IsCancelled() {
		return false
	}
	return m.StartDate.BeforeOrEqual(day) && day.BeforeOrEqual(m.End())
}

// MovementsOn returns the subset of movements covering day, preserving
// input order.
func MovementsOn(day Date, movements []Movement) []Movement {
	var out []Movement
	for _, m := range movements {
		if m.Covers(day) {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// MONTH GRID
// =============================================================================

// MonthGrid returns every day the calendar renders for a month: full
// Monday-start weeks from the week of the 1st through the week of the last
// day. Length is always a multiple of 7.
func MonthGrid(year int, month time.Month) []Date {
	first := StartOfWeek(StartOfMonth(year, month))
	last := EndOfWeek(EndOfMonth(year, month))

	var days []Date
	for d := first; d.BeforeOrEqual(last); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// CalendarCell is one rendered day with the movements covering it.
type CalendarCell struct {
	Day       Date
	InMonth   bool // false for the adjacent-month days at the grid edges
	Movements []Movement
}

// BuildCalendar evaluates the overlap engine across the whole grid for the
// visible month.
func BuildCalendar(year int, month time.Month, movements []Movement) []CalendarCell {
	anchor := StartOfMonth(year, month)
	grid := MonthGrid(year, month)

	cells := make([]CalendarCell, len(grid))
	for i, day := range grid {
		cells[i] = CalendarCell{
			Day:       day,
			InMonth:   day.SameMonth(anchor),
			Movements: MovementsOn(day, movements),
		}
	}
	return cells
}
