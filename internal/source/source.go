// Package source defines the billing period and the interface shared by the
// provider cost sources.
package source

import (
	"context"
	"time"

	"github.com/theirongolddev/costnotify/internal/model"
)

// Period is a half-open UTC date range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthToDate returns the period covering the whole calendar month that
// contains now: the first of this month to the first of next month.
func MonthToDate(now time.Time) Period {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// StartDate returns Start as YYYY-MM-DD.
func (p Period) StartDate() string { return p.Start.Format("2006-01-02") }

// EndDate returns End as YYYY-MM-DD.
func (p Period) EndDate() string { return p.End.Format("2006-01-02") }

// Fetcher returns the cost records of one provider for a period.
type Fetcher interface {
	Provider() model.Provider
	Fetch(ctx context.Context, period Period) ([]model.CostRecord, error)
}
