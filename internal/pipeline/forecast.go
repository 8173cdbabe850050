package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/model"
)

var hundred = decimal.NewFromInt(100)

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Forecast extrapolates month-to-date spend linearly to a full month.
// forecastDays overrides the month length; 0 uses the calendar.
// Percentages round half to even.
func Forecast(spend, budget decimal.Decimal, now time.Time, forecastDays int) model.BudgetStats {
	now = now.UTC()
	day := now.Day()
	daysInMonth := DaysInMonth(now)
	days := forecastDays
	if days <= 0 {
		days = daysInMonth
	}

	stats := model.BudgetStats{
		Budget:       budget,
		HasBudget:    budget.IsPositive(),
		Spend:        spend,
		ForecastDays: days,
		DayOfMonth:   day,
		DaysInMonth:  daysInMonth,
	}

	stats.DailyBurnRate = spend.Div(decimal.NewFromInt(int64(day)))
	stats.Forecast = stats.DailyBurnRate.Mul(decimal.NewFromInt(int64(days)))
	stats.Remaining = budget.Sub(stats.Forecast)
	if stats.HasBudget {
		stats.UsedPercent = spend.Mul(hundred).Div(budget).RoundBank(0).IntPart()
	}
	stats.MonthProgressPercent = decimal.NewFromInt(int64(day * 100)).
		Div(decimal.NewFromInt(int64(daysInMonth))).
		RoundBank(0).
		IntPart()
	return stats
}
