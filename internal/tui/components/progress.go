package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

// BudgetBar renders a labeled budget bar. usedPct may exceed 100; the bar is
// full from there on and the percentage turns red. monthPct, when positive,
// is marked under the bar so spend can be compared with elapsed time.
func BudgetBar(label string, usedPct, monthPct int64, labelW, barWidth int) string {
	t := theme.Active
	color := t.ForPercent(usedPct)

	frac := float64(usedPct) / 100
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	line := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(frac) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%4d%%", usedPct))

	if monthPct <= 0 {
		return line
	}
	return line + "\n" + monthMarker(monthPct, labelW, barWidth)
}

// monthMarker renders a caret under the bar at the elapsed-month position.
func monthMarker(monthPct int64, labelW, barWidth int) string {
	t := theme.Active
	pos := int(monthPct * int64(barWidth) / 100)
	if pos >= barWidth {
		pos = barWidth - 1
	}
	if pos < 0 {
		pos = 0
	}
	markStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	return markStyle.Render(strings.Repeat(" ", labelW+1+pos) + fmt.Sprintf("^ %d%% of month", monthPct))
}

// NoBudget renders the placeholder shown instead of a budget bar.
func NoBudget(label string, labelW int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + dimStyle.Render(" no budget set")
}
