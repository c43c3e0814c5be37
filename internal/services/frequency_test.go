package services

import (
	"errors"
	"testing"

	"ledger/internal/core"
)

func TestMonthlyAdvancer_Next(t *testing.T) {
	tests := []struct {
		name     string
		start    core.Date
		interval int
		current  core.Date
		want     string
	}{
		{"plain month", core.NewDate(2026, 1, 10), 1, core.NewDate(2026, 1, 10), "2026-02-10"},
		{"clamps to february", core.NewDate(2026, 1, 31), 1, core.NewDate(2026, 1, 31), "2026-02-28"},
		{"keeps clamped day after short month", core.NewDate(2026, 1, 31), 1, core.NewDate(2026, 2, 28), "2026-03-28"},
		{"leap february", core.NewDate(2028, 1, 30), 1, core.NewDate(2028, 1, 30), "2028-02-29"},
		{"quarterly", core.NewDate(2026, 1, 15), 3, core.NewDate(2026, 1, 15), "2026-04-15"},
		{"crosses year", core.NewDate(2026, 12, 5), 1, core.NewDate(2026, 12, 5), "2027-01-05"},
		{"zero interval treated as one", core.NewDate(2026, 1, 5), 0, core.NewDate(2026, 1, 5), "2026-02-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd := core.RecurringDefinition{StartDate: tt.start, Interval: tt.interval, Frequency: core.Monthly}
			got := MonthlyAdvancer{}.Next(rd, tt.current)
			if got.String() != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestYearlyAdvancer_Next(t *testing.T) {
	tests := []struct {
		name     string
		start    core.Date
		interval int
		current  core.Date
		want     string
	}{
		{"plain year", core.NewDate(2026, 3, 1), 1, core.NewDate(2026, 3, 1), "2027-03-01"},
		{"leap day to common year", core.NewDate(2028, 2, 29), 1, core.NewDate(2028, 2, 29), "2029-02-28"},
		{"stays on clamped day in leap year", core.NewDate(2028, 2, 29), 1, core.NewDate(2031, 2, 28), "2032-02-28"},
		{"every two years", core.NewDate(2026, 6, 30), 2, core.NewDate(2026, 6, 30), "2028-06-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd := core.RecurringDefinition{StartDate: tt.start, Interval: tt.interval, Frequency: core.Yearly}
			got := YearlyAdvancer{}.Next(rd, tt.current)
			if got.String() != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

type weeklyAdvancer struct{}

func (weeklyAdvancer) Next(_ core.RecurringDefinition, current core.Date) core.Date {
	return core.DateOf(current.AddDate(0, 0, 7))
}

func TestFrequencyRegistry(t *testing.T) {
	if _, err := GetAdvancer(core.Monthly); err != nil {
		t.Errorf("monthly should be registered: %v", err)
	}
	if _, err := GetAdvancer(core.Yearly); err != nil {
		t.Errorf("yearly should be registered: %v", err)
	}

	weekly := core.Frequency("weekly")
	if _, err := GetAdvancer(weekly); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("unknown frequency error = %v, want ErrInvalidArgument", err)
	}

	RegisterFrequency(weekly, weeklyAdvancer{})
	t.Cleanup(func() {
		frequenciesMu.Lock()
		delete(frequencies, weekly)
		frequenciesMu.Unlock()
	})

	a, err := GetAdvancer(weekly)
	if err != nil {
		t.Fatalf("GetAdvancer(weekly): %v", err)
	}
	if got := a.Next(core.RecurringDefinition{}, core.NewDate(2026, 1, 1)); got.String() != "2026-01-08" {
		t.Errorf("weekly Next = %s", got)
	}
}
