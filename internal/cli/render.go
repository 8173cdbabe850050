package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	colorBorder = lipgloss.Color("#282726")
	colorDim    = lipgloss.Color("#575653")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorOK     = lipgloss.Color("#879A39")
	colorWarn   = lipgloss.Color("#DA702C")
	colorOver   = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	ruleStyle   = lipgloss.NewStyle().Foreground(colorDim)
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	overStyle   = lipgloss.NewStyle().Foreground(colorOver)
)

// SeparatorRow is a row that renders as a horizontal rule.
var SeparatorRow = []string{"---"}

// Table is a bordered text table. Columns whose cells are all amounts,
// percentages or "-" are right-aligned; the rest are left-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		if !isSeparator(row) && len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	right := make([]bool, cols)
	for i := range right {
		right[i] = true
	}
	seen := make([]bool, cols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			continue
		}
		for i := 0; i < cols; i++ {
			c := cell(row, i)
			widths[i] = max(widths[i], lipgloss.Width(c))
			switch {
			case c == "" || c == "-":
			case isAmount(c):
				seen[i] = true
			default:
				right[i] = false
			}
		}
	}
	for i := range right {
		right[i] = right[i] && seen[i]
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, widths, right, headerStyle))
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			b.WriteString(rule(widths, "├", "┼", "┤"))
			continue
		}
		b.WriteString(line(row, widths, right, valueStyle))
	}
	b.WriteString(rule(widths, "╰", "┴", "╯"))
	return b.String()
}

func rule(widths []int, left, mid, right string) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	return ruleStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
}

func line(row []string, widths []int, right []bool, style lipgloss.Style) string {
	bar := ruleStyle.Render("│")
	var b strings.Builder
	b.WriteString(bar)
	for i, w := range widths {
		c := cell(row, i)
		pad := strings.Repeat(" ", w-lipgloss.Width(c))
		if right[i] {
			c = pad + c
		} else {
			c += pad
		}
		b.WriteString(style.Render(" " + c + " "))
		b.WriteString(bar)
	}
	b.WriteString("\n")
	return b.String()
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == SeparatorRow[0]
}

// isAmount reports whether s is a formatted number such as "1,234.50",
// "-300" or "42%".
func isAmount(s string) bool {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, ",", "")
	_, err := decimal.NewFromString(s)
	return err == nil
}

// RenderBudgetBar renders a text bar for a budget usage percentage.
// The bar turns orange past 80% and red past 100%.
func RenderBudgetBar(pct int64, width int) string {
	if width <= 0 {
		return ""
	}

	clamped := pct
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}

	filled := int(clamped * int64(width) / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := okStyle
	switch {
	case pct > 100:
		style = overStyle
	case pct > 80:
		style = warnStyle
	}
	return fmt.Sprintf("[%s] %s", style.Render(bar), FormatPercent(pct))
}

// RenderWarning renders a highlighted warning line.
func RenderWarning(msg string) string {
	return warnStyle.Render("! " + msg)
}

// RenderMuted renders secondary text.
func RenderMuted(msg string) string {
	return mutedStyle.Render(msg)
}

// RenderSparkline renders values as a row of unicode blocks scaled to the peak.
func RenderSparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	out := make([]rune, len(values))
	for i, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		out[i] = blocks[min(max(idx, 0), len(blocks)-1)]
	}
	return string(out)
}
