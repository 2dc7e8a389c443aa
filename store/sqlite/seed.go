/*
seed.go - Demo data loader

PURPOSE:
  Populates the database with a small realistic roster so the dashboard has
  something to show in development and demos: two employers, two sites, six
  employees with 2024 balance records, and a handful of movements covering
  the interesting cases (multi-day leave, days sold, a cancellation).

  Reference data is upserted so seeding is repeatable; movements are only
  inserted into an empty table.

USAGE:
  ./server -seed
*/
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vantage-hr/leaveboard/vacation"
)

// Seed loads the demo dataset. Safe to call on an already-seeded database.
func (s *Store) Seed(ctx context.Context) error {
	employers := []vacation.Employer{
		{ID: "emp-co-andes", Name: "Andes Logistics S.A."},
		{ID: "emp-co-pacific", Name: "Pacific Retail Group"},
	}
	sites := []vacation.Site{
		{ID: "site-hq", Name: "Headquarters"},
		{ID: "site-north", Name: "North Branch"},
	}

	employees := []vacation.Employee{
		{ID: "emp-maria", FirstName: "Maria", LastName: "Quispe", RoleTitle: "Operations Analyst", HireDate: vacation.NewDate(2019, time.March, 4), EmployerID: "emp-co-andes", SiteID: "site-hq"},
		{ID: "emp-pedro", FirstName: "Pedro", LastName: "Salas", RoleTitle: "Warehouse Supervisor", HireDate: vacation.NewDate(2020, time.July, 13), EmployerID: "emp-co-andes", SiteID: "site-north"},
		{ID: "emp-lucia", FirstName: "Lucia", LastName: "Fernandez", RoleTitle: "HR Generalist", HireDate: vacation.NewDate(2018, time.January, 8), EmployerID: "emp-co-andes", SiteID: "site-hq"},
		{ID: "emp-jorge", FirstName: "Jorge", LastName: "Mendoza", RoleTitle: "Accountant", HireDate: vacation.NewDate(2021, time.October, 1), EmployerID: "emp-co-pacific", SiteID: "site-hq"},
		{ID: "emp-ana", FirstName: "Ana", LastName: "Torres", RoleTitle: "Sales Lead", HireDate: vacation.NewDate(2022, time.May, 16), EmployerID: "emp-co-pacific", SiteID: "site-north"},
		{ID: "emp-carlos", FirstName: "Carlos", LastName: "Vega", RoleTitle: "IT Support", HireDate: vacation.NewDate(2023, time.February, 20), EmployerID: "emp-co-pacific", SiteID: "site-north"},
	}

	balances := []vacation.BalanceRecord{
		balanceRec("emp-maria", 30, 12, 0),
		balanceRec("emp-pedro", 30, 0, 0), // untouched: shows as intact
		balanceRec("emp-lucia", 30, 25, 5), // exhausted
		balanceRec("emp-jorge", 30, 8, 7),
		balanceRec("emp-ana", 15, 3, 0), // part-year grant
		// emp-carlos has no 2024 record on purpose: exercises the zero default
	}

	for _, e := range employers {
		if err := s.SaveEmployer(ctx, e); err != nil {
			return fmt.Errorf("seed employer %s: %w", e.ID, err)
		}
	}
	for _, site := range sites {
		if err := s.SaveSite(ctx, site); err != nil {
			return fmt.Errorf("seed site %s: %w", site.ID, err)
		}
	}
	for _, e := range employees {
		if err := s.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	for _, b := range balances {
		if err := s.SaveBalance(ctx, b); err != nil {
			return fmt.Errorf("seed balance %s: %w", b.EmployeeID, err)
		}
	}

	return s.seedMovements(ctx)
}

func balanceRec(id vacation.EmployeeID, granted, consumed, sold int) vacation.BalanceRecord {
	return vacation.BalanceRecord{
		EmployeeID: id,
		Period:     2024,
		Granted:    vacation.NewAmount(granted),
		Consumed:   vacation.NewAmount(consumed),
		Sold:       vacation.NewAmount(sold),
	}
}

func (s *Store) seedMovements(ctx context.Context) error {
	s.mu.RLock()
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movements").Scan(&count)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("seed movements: %w", err)
	}
	if count > 0 {
		return nil // already seeded
	}

	pedro := vacation.EmployeeID("emp-pedro")
	endJorge := vacation.NewDate(2024, time.June, 14)

	movements := []vacation.Movement{
		{
			ID:         "mov-seed-1",
			EmployeeID: "emp-maria",
			// No replacement covering; stored as NULL
			StartDate: vacation.NewDate(2024, time.April, 8),
			DayCount:  12,
			Type:      vacation.PhysicalLeave,
			Status:    vacation.StatusActive,
			Meta: vacation.MovementMeta{
				OriginalText:   "Maria takes two weeks in April",
				DetectedReason: "annual vacation",
			},
			CreatedAt: time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:            "mov-seed-2",
			EmployeeID:    "emp-jorge",
			ReplacementID: &pedro,
			StartDate:     vacation.NewDate(2024, time.June, 10),
			EndDate:       &endJorge,
			DayCount:      5,
			Type:          vacation.PhysicalLeave,
			Status:        vacation.StatusActive,
			CreatedAt:     time.Date(2024, time.May, 28, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:         "mov-seed-3",
			EmployeeID: "emp-jorge",
			StartDate:  vacation.NewDate(2024, time.June, 1),
			DayCount:   7,
			Type:       vacation.DaysSold,
			Status:     vacation.StatusActive,
			Meta: vacation.MovementMeta{
				DetectedReason: "sold a week for cash",
			},
			CreatedAt: time.Date(2024, time.May, 30, 16, 15, 0, 0, time.UTC),
		},
		{
			ID:         "mov-seed-4",
			EmployeeID: "emp-lucia",
			StartDate:  vacation.NewDate(2024, time.August, 5),
			DayCount:   3,
			Type:       vacation.PhysicalLeave,
			Status:     vacation.StatusCancelled,
			CreatedAt:  time.Date(2024, time.July, 2, 11, 45, 0, 0, time.UTC),
		},
	}

	for _, m := range movements {
		if err := s.InsertMovement(ctx, m); err != nil {
			return fmt.Errorf("seed movement %s: %w", m.ID, err)
		}
	}
	return nil
}
