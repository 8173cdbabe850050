package model

import "github.com/shopspring/decimal"

// BudgetStats holds budget tracking and forecast data for one project.
type BudgetStats struct {
	Budget               decimal.Decimal
	HasBudget            bool
	Spend                decimal.Decimal
	DailyBurnRate        decimal.Decimal
	Forecast             decimal.Decimal
	ForecastDays         int
	Remaining            decimal.Decimal // Budget - Forecast
	UsedPercent          int64
	DayOfMonth           int
	DaysInMonth          int
	MonthProgressPercent int64
}
