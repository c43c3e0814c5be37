// Package services provides business logic and orchestration services.
//
// Recurrence frequencies are strategies looked up in a registry: each one
// knows how to move a definition's cursor to its next occurrence.
package services

import (
	"fmt"
	"sync"

	"ledger/internal/core"
)

// Advancer computes the occurrence that follows current for a definition.
type Advancer interface {
	Next(rd core.RecurringDefinition, current core.Date) core.Date
}

// MonthlyAdvancer steps Interval months from the current occurrence, clamping
// the day to shorter months. Once clamped, the cycle stays on the new day.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(rd core.RecurringDefinition, current core.Date) core.Date {
	return core.AddMonths(current, interval(rd))
}

// YearlyAdvancer steps Interval years. Feb 29 falls back to Feb 28 in common
// years.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Next(rd core.RecurringDefinition, current core.Date) core.Date {
	return core.AddMonths(current, 12*interval(rd))
}

func interval(rd core.RecurringDefinition) int {
	if rd.Interval < 1 {
		return 1
	}
	return rd.Interval
}

var (
	frequenciesMu sync.RWMutex
	frequencies   = map[core.Frequency]Advancer{
		core.Monthly: MonthlyAdvancer{},
		core.Yearly:  YearlyAdvancer{},
	}
)

// RegisterFrequency adds or replaces the strategy for a frequency.
func RegisterFrequency(f core.Frequency, a Advancer) {
	frequenciesMu.Lock()
	defer frequenciesMu.Unlock()
	frequencies[f] = a
}

// GetAdvancer returns the strategy registered for f.
func GetAdvancer(f core.Frequency) (Advancer, error) {
	frequenciesMu.RLock()
	defer frequenciesMu.RUnlock()
	a, ok := frequencies[f]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported frequency %q", core.ErrInvalidArgument, f)
	}
	return a, nil
}
