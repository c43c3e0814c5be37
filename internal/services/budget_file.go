package services

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"ledger/internal/core"
)

// BudgetFile is the YAML layout accepted by budget import:
//
//	period: 2026-03
//	budgets:
//	  - category_id: 4
//	    ceiling: "250.00"
//	  - category_id: 7
//	    ceiling: "80"
//	    period: 2026-04
//
// A row without a period inherits the file's.
type BudgetFile struct {
	Period  string          `yaml:"period"`
	Budgets []BudgetFileRow `yaml:"budgets"`
}

type BudgetFileRow struct {
	CategoryID int64  `yaml:"category_id"`
	Ceiling    string `yaml:"ceiling"`
	Period     string `yaml:"period"`
}

// ParseBudgetFile decodes a budget file into budgets owned by ownerID.
func ParseBudgetFile(r io.Reader, ownerID int64) ([]core.Budget, error) {
	var f BudgetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty budget file", core.ErrInvalidArgument)
		}
		return nil, fmt.Errorf("%w: parse budget file: %v", core.ErrInvalidArgument, err)
	}

	budgets := make([]core.Budget, 0, len(f.Budgets))
	for i, row := range f.Budgets {
		period := strings.TrimSpace(row.Period)
		if period == "" {
			period = strings.TrimSpace(f.Period)
		}
		ym, err := core.ParseYearMonth(period)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if row.CategoryID <= 0 {
			return nil, fmt.Errorf("row %d: %w: category_id is required", i+1, core.ErrInvalidArgument)
		}
		ceiling, err := core.ParseMoney(row.Ceiling)
		if err != nil {
			return nil, fmt.Errorf("row %d: ceiling: %w", i+1, err)
		}
		budgets = append(budgets, core.Budget{
			OwnerID:    ownerID,
			CategoryID: row.CategoryID,
			Period:     ym,
			Ceiling:    ceiling,
		})
	}
	return budgets, nil
}
