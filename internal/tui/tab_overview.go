package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/tui/components"
	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	res := a.result

	label := ""
	total := decimal.Zero
	byProvider := make(map[model.Provider]decimal.Decimal)
	for _, rep := range res.Reports {
		label = rep.CurrencyLabel
		total = total.Add(rep.Total)
		for _, pt := range rep.ProviderTotals {
			byProvider[pt.Provider] = byProvider[pt.Provider].Add(pt.Amount)
		}
	}

	metrics := []components.Metric{
		{Label: "Spend so far", Value: cli.FormatCurrency(total, 0, label), Note: fmt.Sprintf("%d projects", len(res.Reports))},
	}
	for _, p := range model.Providers {
		metrics = append(metrics, components.Metric{
			Label: p.Label(),
			Value: cli.FormatCurrency(byProvider[p], 0, label),
			Note:  fmt.Sprintf("%s records", cli.FormatNumber(int64(res.Records[p]))),
			Color: t.Provider(string(p)),
		})
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Projects", a.projectsTable(components.CardInnerWidth(cw)), cw))

	if len(res.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Warnings", strings.Join(res.Warnings, "\n"), cw))
	}
	return b.String()
}

// projectsTable renders one budget line per project.
func (a App) projectsTable(innerW int) string {
	t := theme.Active
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	numStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	nameW := 8
	for _, rep := range a.result.Reports {
		nameW = max(nameW, lipgloss.Width(rep.Project))
	}
	nameW = min(nameW, 24)
	const numW = 14
	barW := max(innerW-nameW-2*numW-10, 10)

	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-*s %*s %*s  %s", nameW, "Project", numW, "Spend", numW, "Forecast", "Budget used")))
	for _, rep := range a.result.Reports {
		b.WriteString("\n")
		b.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(rep.Project, nameW))))
		b.WriteString(numStyle.Render(fmt.Sprintf(" %*s %*s  ", numW, cli.FormatMoney(rep.Total, 0), numW, cli.FormatMoney(rep.Budget.Forecast, 0))))
		if rep.Budget.HasBudget {
			b.WriteString(components.BudgetBar("", rep.Budget.UsedPercent, 0, 0, barW))
		} else {
			b.WriteString(components.NoBudget("", 0))
		}
	}
	return b.String()
}
