package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	got := LayoutRow(10, 3)
	want := []int{4, 3, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LayoutRow(10, 3) = %v, want %v", got, want)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow(10, 0) should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no styling in the padded area: %q", i, lines[i])
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Spend", Value: "12,000 JPY"},
		{Label: "Forecast", Value: "30,000 JPY", Note: "31 days"},
		{Label: "Budget", Value: "50,000 JPY"},
	}, 90)
	if w := lipgloss.Width(row); w != 90 {
		t.Errorf("row width = %d, want 90", w)
	}
	if !strings.Contains(row, "31 days") {
		t.Error("note not rendered")
	}
}

func TestVisibleTabs(t *testing.T) {
	names := []string{"All", "alpha", "beta", "gamma", "delta"}

	first, last := VisibleTabs(names, 0, 200)
	if first != 0 || last != len(names) {
		t.Errorf("wide bar: got [%d,%d)", first, last)
	}

	// "gamma" = 7 cols, neighbours "beta" = 6 and "delta" = 7.
	first, last = VisibleTabs(names, 3, 15)
	if first > 3 || last <= 3 {
		t.Errorf("active tab not visible: [%d,%d)", first, last)
	}
	if last-first != 2 {
		t.Errorf("expected two tabs to fit, got [%d,%d)", first, last)
	}

	if f, l := VisibleTabs(nil, 0, 80); f != 0 || l != 0 {
		t.Errorf("empty: got [%d,%d)", f, l)
	}
}

func TestRenderTabBarShowsActive(t *testing.T) {
	bar := RenderTabBar([]string{"All", "alpha"}, 1, 40)
	if !strings.Contains(bar, "alpha") || !strings.Contains(bar, "All") {
		t.Errorf("tab bar missing names: %q", bar)
	}
	if w := lipgloss.Width(bar); w != 40 {
		t.Errorf("tab bar width = %d, want 40", w)
	}
}

func TestBudgetBar(t *testing.T) {
	line := BudgetBar("Budget", 130, 40, 8, 20)
	if !strings.Contains(line, "130%") {
		t.Errorf("missing percentage: %q", line)
	}
	if !strings.Contains(line, "40% of month") {
		t.Errorf("missing month marker: %q", line)
	}

	plain := BudgetBar("Budget", 10, 0, 8, 20)
	if strings.Contains(plain, "of month") {
		t.Error("month marker should be omitted when monthPct is 0")
	}
}

func TestDailyChart(t *testing.T) {
	var days []model.DailyCost
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		days = append(days, model.DailyCost{
			Date:   start.AddDate(0, 0, i),
			Amount: decimal.NewFromInt(int64(i * 1000)),
		})
	}

	chart := DailyChart(days, theme.Active.Accent, 60, 6)
	lines := strings.Split(chart, "\n")
	// rows + axis + labels
	if len(lines) != 8 {
		t.Fatalf("chart has %d lines, want 8:\n%s", len(lines), chart)
	}
	if !strings.Contains(chart, "Apr 1") {
		t.Errorf("first day label missing:\n%s", chart)
	}
	if !strings.Contains(chart, "█") {
		t.Error("no bars rendered")
	}

	small := DailyChart(days, theme.Active.Accent, 10, 2)
	if strings.Contains(small, "\n") {
		t.Error("small area should fall back to a sparkline")
	}
	if DailyChart(nil, theme.Active.Accent, 60, 6) != "" {
		t.Error("empty series should render nothing")
	}
}

func TestTickStep(t *testing.T) {
	tests := []struct {
		peak float64
		want float64
	}{
		{0, 1},
		{9000, 5000},
		{4000, 2000},
		{2500, 1000},
	}
	for _, tt := range tests {
		if got := tickStep(tt.peak); got != tt.want {
			t.Errorf("tickStep(%v) = %v, want %v", tt.peak, got, tt.want)
		}
	}
}
