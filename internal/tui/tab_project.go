package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/report"
	"github.com/theirongolddev/costnotify/internal/tui/components"
	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

const (
	chartHeight = 6
	twoColWidth = 120
)

func (a App) renderProjectTab(rep report.Report, cw int) string {
	t := theme.Active
	bs := rep.Budget
	label := rep.CurrencyLabel

	budgetValue := "not set"
	remainingValue := cli.FormatDelta(bs.Remaining, 0)
	remainingColor := t.Green
	if bs.HasBudget {
		budgetValue = cli.FormatCurrency(bs.Budget, 0, label)
	}
	if bs.Remaining.IsNegative() {
		remainingColor = t.Red
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Spend so far", Value: cli.FormatCurrency(rep.Total, 0, label),
			Note: fmt.Sprintf("day %d of %d", bs.DayOfMonth, bs.DaysInMonth)},
		{Label: "Forecast", Value: cli.FormatCurrency(bs.Forecast, 0, label),
			Note: fmt.Sprintf("%s/day over %d days", cli.FormatMoney(bs.DailyBurnRate, 0), bs.ForecastDays)},
		{Label: "Budget", Value: budgetValue},
		{Label: "Budget − forecast", Value: remainingValue + " " + label, Color: remainingColor},
	}, cw))
	b.WriteString("\n")

	innerW := components.CardInnerWidth(cw)
	var bar string
	if bs.HasBudget {
		bar = components.BudgetBar("Used", bs.UsedPercent, bs.MonthProgressPercent, 6, max(innerW-14, 10))
	} else {
		bar = components.NoBudget("Used", 6)
	}
	b.WriteString(components.ContentCard("Budget", bar, cw))
	b.WriteString("\n")

	if len(rep.Daily) > 0 {
		chart := components.DailyChart(rep.Daily, t.Accent, innerW, chartHeight)
		b.WriteString(components.ContentCard("Daily spend", chart, cw))
		b.WriteString("\n")
	}

	title := fmt.Sprintf("Top %d services", rep.TopN)
	if cw >= twoColWidth {
		widths := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard(title, servicesTable(rep, components.CardInnerWidth(widths[0])), widths[0]),
			components.ContentCard("Accounts", accountsTable(rep, components.CardInnerWidth(widths[1])), widths[1]),
		}))
	} else {
		b.WriteString(components.ContentCard(title, servicesTable(rep, innerW), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Accounts", accountsTable(rep, innerW), cw))
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Warnings", strings.Join(rep.Warnings, "\n"), cw))
	}
	return b.String()
}

func servicesTable(rep report.Report, innerW int) string {
	t := theme.Active
	rankStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	numStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(rep.TopServices) == 0 {
		return rankStyle.Render("no spend yet")
	}

	const numW = 14
	nameW := max(innerW-4-8-numW, 10)

	var lines []string
	for _, item := range rep.TopServices {
		provStyle := lipgloss.NewStyle().Foreground(t.Provider(string(item.Provider))).Background(t.Surface)
		lines = append(lines,
			rankStyle.Render(fmt.Sprintf("%3d ", item.Rank))+
				provStyle.Render(fmt.Sprintf("%-7s ", item.Provider.Label()))+
				nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(item.Name, nameW)))+
				numStyle.Render(fmt.Sprintf("%*s", numW, cli.FormatMoney(item.Amount, 2))))
	}
	return strings.Join(lines, "\n")
}

func accountsTable(rep report.Report, innerW int) string {
	t := theme.Active
	idStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	numStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(rep.Accounts) == 0 {
		return idStyle.Render("no accounts")
	}

	const numW = 14
	idW := 14
	nameW := max(innerW-8-idW-numW-2, 8)

	var lines []string
	for _, acct := range rep.Accounts {
		provStyle := lipgloss.NewStyle().Foreground(t.Provider(string(acct.Provider))).Background(t.Surface)
		lines = append(lines,
			provStyle.Render(fmt.Sprintf("%-7s ", acct.Provider.Label()))+
				nameStyle.Render(fmt.Sprintf("%-*s ", nameW, truncStr(acct.Name, nameW)))+
				idStyle.Render(fmt.Sprintf("%-*s ", idW, truncStr(acct.ID, idW)))+
				numStyle.Render(fmt.Sprintf("%*s", numW, cli.FormatMoney(acct.Amount, 0))))
	}
	return strings.Join(lines, "\n")
}
