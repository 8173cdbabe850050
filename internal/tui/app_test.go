package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/job"
	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/report"
	"github.com/theirongolddev/costnotify/internal/source"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type fakeCollector struct {
	res   *job.Result
	err   error
	calls int
}

func (f *fakeCollector) Collect(context.Context) (*job.Result, error) {
	f.calls++
	return f.res, f.err
}

func testResult() *job.Result {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	mk := func(name string, total, budget int64) report.Report {
		return report.Report{
			Project:       name,
			CurrencyLabel: "JPY",
			Total:         decimal.NewFromInt(total),
			TopN:          10,
			Budget: model.BudgetStats{
				Budget:       decimal.NewFromInt(budget),
				HasBudget:    budget > 0,
				Spend:        decimal.NewFromInt(total),
				Forecast:     decimal.NewFromInt(total * 3),
				ForecastDays: 30,
				Remaining:    decimal.NewFromInt(budget - total*3),
				UsedPercent:  total * 100 / max(budget, 1),
				DayOfMonth:   10,
				DaysInMonth:  30,
			},
			ProviderTotals: []report.ProviderTotal{{Provider: model.AWS, Amount: decimal.NewFromInt(total)}},
			TopServices:    []model.RankedItem{{Rank: 1, Provider: model.AWS, Name: "Amazon EC2", Amount: decimal.NewFromInt(total)}},
			Accounts:       []model.AccountLine{{Provider: model.AWS, ID: "111", Name: name + "-prod", Amount: decimal.NewFromInt(total)}},
			Daily: []model.DailyCost{
				{Date: now.AddDate(0, 0, -1), Amount: decimal.NewFromInt(total / 2)},
				{Date: now, Amount: decimal.NewFromInt(total / 2)},
			},
		}
	}
	return &job.Result{
		Period:  source.MonthToDate(now),
		Records: map[model.Provider]int{model.AWS: 12},
		Reports: []report.Report{mk("alpha", 12000, 50000), mk("common", 800, 0)},
	}
}

func loadedApp(t *testing.T, c *fakeCollector) App {
	t.Helper()
	a := NewApp(c, time.Second)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 130, Height: 50})
	msg := collectCmd(c, time.Second)()
	m, _ = m.Update(msg)
	return m.(App)
}

func press(t *testing.T, a App, key string) App {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, _ := a.Update(msg)
	return m.(App)
}

func TestAppLoadingView(t *testing.T) {
	a := NewApp(&fakeCollector{}, 0)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if view := m.View(); !strings.Contains(view, "Fetching month-to-date costs") {
		t.Errorf("loading view missing spinner text:\n%s", view)
	}
}

func TestAppTooNarrow(t *testing.T) {
	a := NewApp(&fakeCollector{}, 0)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if view := m.View(); !strings.Contains(view, "too narrow") {
		t.Errorf("expected narrow warning, got:\n%s", view)
	}
}

func TestAppTabs(t *testing.T) {
	a := loadedApp(t, &fakeCollector{res: testResult()})

	view := a.View()
	for _, want := range []string{"All projects", "alpha", "common", "Spend so far"} {
		if !strings.Contains(view, want) {
			t.Errorf("overview missing %q", want)
		}
	}

	a = press(t, a, "right")
	if a.activeTab != 1 {
		t.Fatalf("activeTab = %d, want 1", a.activeTab)
	}
	view = a.View()
	for _, want := range []string{"Top 10 services", "Amazon EC2", "alpha-prod", "Forecast"} {
		if !strings.Contains(view, want) {
			t.Errorf("project view missing %q", want)
		}
	}

	a = press(t, a, "tab")
	if a.activeTab != 2 {
		t.Fatalf("activeTab = %d, want 2", a.activeTab)
	}
	if view := a.View(); !strings.Contains(view, "no budget set") {
		t.Error("project without budget should say so")
	}

	a = press(t, a, "right")
	if a.activeTab != 0 {
		t.Errorf("tabs should wrap, got %d", a.activeTab)
	}
	a = press(t, a, "left")
	if a.activeTab != 2 {
		t.Errorf("left should wrap to last, got %d", a.activeTab)
	}
}

func TestAppHelpToggle(t *testing.T) {
	a := loadedApp(t, &fakeCollector{res: testResult()})
	a = press(t, a, "?")
	if !a.showHelp || !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("help not shown")
	}
	a = press(t, a, "x")
	if a.showHelp {
		t.Error("any key should close help")
	}
}

func TestAppRefresh(t *testing.T) {
	c := &fakeCollector{res: testResult()}
	a := loadedApp(t, c)

	a = press(t, a, "r")
	if !a.refreshing {
		t.Fatal("r should start a refresh")
	}
	again := press(t, a, "r")
	if !again.refreshing {
		t.Error("second r should keep refreshing")
	}

	c.err = errors.New("throttled")
	m, _ := a.Update(collectCmd(c, time.Second)())
	a = m.(App)
	if a.refreshing {
		t.Error("refresh should finish")
	}
	if a.result == nil {
		t.Fatal("a failed refresh must keep the previous result")
	}
	if view := a.View(); !strings.Contains(view, "refresh failed: throttled") {
		t.Errorf("refresh error not shown:\n%s", view)
	}
	if c.calls != 2 {
		t.Errorf("collector calls = %d, want 2", c.calls)
	}
}

func TestAppLoadError(t *testing.T) {
	a := loadedApp(t, &fakeCollector{err: errors.New("no credentials")})
	view := a.View()
	if !strings.Contains(view, "Could not load costs") || !strings.Contains(view, "no credentials") {
		t.Errorf("error card missing:\n%s", view)
	}
	a = press(t, a, "right")
	if a.activeTab != 0 {
		t.Error("only the overview tab exists without data")
	}
}

func TestAppQuit(t *testing.T) {
	a := NewApp(&fakeCollector{}, 0)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
