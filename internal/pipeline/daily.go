package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/model"
)

// DailySeries returns one entry per UTC day in [start, end), oldest first.
// Days without spend are present with a zero amount.
func DailySeries(pc *model.ProjectCosts, start, end time.Time) []model.DailyCost {
	day := truncateDay(start)
	stop := truncateDay(end)

	var out []model.DailyCost
	for day.Before(stop) {
		amount, ok := pc.Daily[day.Format("2006-01-02")]
		if !ok {
			amount = decimal.Zero
		}
		out = append(out, model.DailyCost{Date: day, Amount: amount})
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
