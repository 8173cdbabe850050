// Package pipeline turns provider cost records into per-project totals,
// rankings and budget forecasts.
package pipeline

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/model"
)

// Convert returns a copy of records with every amount expressed in the
// report currency. Each record is converted at its own date when it has one,
// otherwise at the given time.
func Convert(records []model.CostRecord, rates *config.RateTable, at time.Time) ([]model.CostRecord, error) {
	out := make([]model.CostRecord, 0, len(records))
	for _, r := range records {
		when := at
		if !r.Date.IsZero() {
			when = r.Date
		}
		amount, err := rates.Convert(r.Amount, r.Currency, when)
		if err != nil {
			return nil, fmt.Errorf("converting %s %s/%s: %w", r.Provider.Label(), r.AccountID, r.Service, err)
		}
		r.Amount = amount
		r.Currency = rates.Base()
		out = append(out, r)
	}
	return out, nil
}
