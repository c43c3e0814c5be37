package core

import "testing"

func TestClassifyBudget(t *testing.T) {
	tests := []struct {
		name        string
		spent       int64
		ceiling     int64
		wantPercent string
		wantStatus  BudgetState
	}{
		{"warning", 8000, 10000, "80", BudgetWarning},
		{"exceeded", 12000, 10000, "120", BudgetExceeded},
		{"exactly at ceiling", 10000, 10000, "100", BudgetExceeded},
		{"exactly at warning", 7000, 10000, "70", BudgetWarning},
		{"ok", 6999, 10000, "69.99", BudgetOK},
		{"zero ceiling", 5000, 0, "0", BudgetOK},
		{"nothing spent", 0, 10000, "0", BudgetOK},
		{"repeating fraction", 100, 300, "33.33", BudgetOK},
		{"just under ceiling rounds to 100", 199990, 200000, "100", BudgetWarning},
		{"just under warning rounds to 70", 139990, 200000, "70", BudgetOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, status := ClassifyBudget(Money{Cents: tt.spent}, Money{Cents: tt.ceiling})
			if pct.String() != tt.wantPercent {
				t.Errorf("percent = %s, want %s", pct, tt.wantPercent)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
		})
	}
}
