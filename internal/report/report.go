// Package report assembles and renders the per-project budget report.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/pipeline"
	"github.com/theirongolddev/costnotify/internal/source"
)

// Input is everything Build needs for one project.
type Input struct {
	Project       config.Project
	Costs         *model.ProjectCosts
	Names         map[model.Provider]map[string]string
	Period        source.Period
	Now           time.Time
	Subject       string
	CurrencyLabel string
	TopN          int
	ForecastDays  int
	Warnings      []string
}

// ProviderTotal is one row of the per-provider table.
type ProviderTotal struct {
	Provider model.Provider
	Amount   decimal.Decimal
}

// Report is the view model of one project's email.
type Report struct {
	Project        string
	Subject        string
	Heading        string
	CurrencyLabel  string
	GeneratedAt    time.Time
	Budget         model.BudgetStats
	Total          decimal.Decimal
	ProviderTotals []ProviderTotal
	Accounts       []model.AccountLine
	TopServices    []model.RankedItem
	TopN           int
	Daily          []model.DailyCost
	Records        int
	Warnings       []string
	Recipients     []string
}

// Subject returns the email subject for a project.
func Subject(subject, project string) string {
	return fmt.Sprintf("%s - %s", subject, project)
}

// Build assembles the report for one project.
func Build(in Input) Report {
	costs := in.Costs
	if costs == nil {
		costs = model.NewProjectCosts(in.Project.Name)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	total := costs.Total()
	budget := pipeline.Forecast(total, in.Project.Budget, now, in.ForecastDays)

	r := Report{
		Project:       in.Project.Name,
		Subject:       Subject(in.Subject, in.Project.Name),
		CurrencyLabel: in.CurrencyLabel,
		GeneratedAt:   now.UTC(),
		Budget:        budget,
		Total:         total,
		Accounts:      pipeline.RankAccounts(costs, in.Names),
		TopServices:   pipeline.RankServices(costs, in.TopN),
		TopN:          in.TopN,
		Records:       costs.Records,
		Warnings:      in.Warnings,
		Recipients:    in.Project.Recipients,
	}
	if r.TopN <= 0 {
		r.TopN = len(r.TopServices)
	}
	r.Heading = fmt.Sprintf("%s (%d%% of month elapsed)", r.Subject, budget.MonthProgressPercent)

	for _, p := range model.Providers {
		r.ProviderTotals = append(r.ProviderTotals, ProviderTotal{Provider: p, Amount: costs.ProviderTotal(p)})
	}
	if !in.Period.Start.IsZero() {
		end := in.Period.End
		if tomorrow := dayAfter(now); tomorrow.Before(end) {
			end = tomorrow
		}
		r.Daily = pipeline.DailySeries(costs, in.Period.Start, end)
	}
	return r
}

func dayAfter(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
}
