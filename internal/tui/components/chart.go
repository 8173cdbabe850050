package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

var blocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line unicode sparkline.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v/peak*float64(len(blocks)-2)) + 1
		idx = min(max(idx, 1), len(blocks)-1)
		buf.WriteRune(blocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// DailyChart renders daily spend as vertical bars with a y-axis and day labels.
// It falls back to a sparkline when the area is too small.
func DailyChart(days []model.DailyCost, color lipgloss.Color, width, height int) string {
	if len(days) == 0 {
		return ""
	}
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = d.Amount.InexactFloat64()
	}
	if width < 20 || height < 3 {
		return Sparkline(values, color)
	}

	t := theme.Active
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blankStyle := lipgloss.NewStyle().Background(t.Surface)

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	step := tickStep(peak)
	ceiling := math.Max(step, math.Ceil(peak/step)*step)

	yLabelW := max(len(formatAxis(ceiling)), 4)
	chartW := width - yLabelW - 1
	n := len(values)
	barW := max((chartW-(n-1))/n, 1)
	barW = min(barW, 4)
	gap := 1
	if barW == 1 {
		gap = 0
	}
	axisLen := n*barW + (n-1)*gap

	var b strings.Builder
	for row := height; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(height)
		rowBottom := ceiling * float64(row-1) / float64(height)

		label := ""
		if row == height {
			label = formatAxis(ceiling)
		} else if row == (height+1)/2 {
			label = formatAxis(ceiling / 2)
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blankStyle.Render(" "))
			}
			var cell string
			switch {
			case v >= rowTop:
				cell = strings.Repeat("█", barW)
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				idx = min(max(idx, 1), 8)
				cell = strings.Repeat(string(blocks[idx]), barW)
			default:
				b.WriteString(blankStyle.Render(strings.Repeat(" ", barW)))
				continue
			}
			b.WriteString(barStyle.Render(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└", yLabelW, "0")))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))
	b.WriteString("\n")
	b.WriteString(blankStyle.Render(strings.Repeat(" ", yLabelW+1)))
	b.WriteString(axisStyle.Render(dayLabels(days, barW+gap, axisLen)))
	return b.String()
}

// dayLabels places day-of-month labels under the bars without overlap.
// The first label and month changes show the month abbreviation.
func dayLabels(days []model.DailyCost, stride, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	lastEnd := -1
	for i, d := range days {
		lbl := strconv.Itoa(d.Date.Day())
		if i == 0 || d.Date.Day() == 1 {
			lbl = d.Date.Format("Jan 2")
		}
		pos := i * stride
		end := pos + len(lbl)
		if pos <= lastEnd || end > axisLen {
			continue
		}
		copy(buf[pos:end], lbl)
		lastEnd = end
	}
	return strings.TrimRight(string(buf), " ")
}

// tickStep returns a 1-2-5 step giving about two intervals over peak.
func tickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 2
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatAxis(v float64) string {
	switch {
	case v >= 1e6:
		return strconv.FormatFloat(math.Round(v/1e5)/10, 'f', -1, 64) + "M"
	case v >= 1e3:
		return strconv.FormatFloat(math.Round(v/100)/10, 'f', -1, 64) + "k"
	case v >= 1:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}
