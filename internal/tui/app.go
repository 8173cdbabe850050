// Package tui provides the interactive Bubble Tea dashboard for costnotify.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/job"
	"github.com/theirongolddev/costnotify/internal/tui/components"
	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

// Collector produces the per-project reports shown by the dashboard.
type Collector interface {
	Collect(ctx context.Context) (*job.Result, error)
}

// DataLoadedMsg is sent when a collection finishes.
type DataLoadedMsg struct {
	Result   *job.Result
	Err      error
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	collector Collector
	timeout   time.Duration

	// Data
	result   *job.Result
	loadErr  error
	loaded   bool
	loadTime time.Duration

	refreshing  bool
	lastRefresh time.Time

	// UI state
	width     int
	height    int
	activeTab int // 0 is the overview, i is Reports[i-1]
	showHelp  bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	defaultTimeout = 2 * time.Minute
	overviewTab    = "All projects"
)

// NewApp creates the dashboard model. timeout bounds each collection; 0 uses
// two minutes.
func NewApp(c Collector, timeout time.Duration) App {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		collector: c,
		timeout:   timeout,
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(collectCmd(a.collector, a.timeout), a.spinner.Tick)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Result != nil && msg.Err == nil {
			a.result = msg.Result
		}
		if a.activeTab >= a.tabCount() {
			a.activeTab = a.tabCount() - 1
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" || key == "q" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	n := a.tabCount()
	switch key {
	case "left", "h", "shift+tab":
		a.activeTab = (a.activeTab - 1 + n) % n
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % n
	case "home", "g":
		a.activeTab = 0
	case "end", "G":
		a.activeTab = n - 1
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(collectCmd(a.collector, a.timeout), a.spinner.Tick)
		}
	}
	return a, nil
}

func (a App) tabCount() int {
	if a.result == nil {
		return 1
	}
	return len(a.result.Reports) + 1
}

func (a App) tabNames() []string {
	names := []string{overviewTab}
	if a.result != nil {
		for _, rep := range a.result.Reports {
			names = append(names, rep.Project)
		}
	}
	return names
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  costnotify needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ costnotify"))
	b.WriteString(subtitleStyle.Render(" · cloud cost report"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Fetching month-to-date costs..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	bindings := []struct{ key, desc string }{
		{"← → tab", "Previous / next project"},
		{"g G", "First / last tab"},
		{"r", "Fetch costs again"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.tabNames(), a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.statusInfo(), a.refreshing)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.result == nil:
		content = a.renderError(cw)
	case a.activeTab == 0:
		content = a.renderOverviewTab(cw)
	default:
		content = a.renderProjectTab(a.result.Reports[a.activeTab-1], cw)
	}
	if a.loadErr != nil && a.result != nil {
		content = renderErrorLine(a.loadErr, cw) + "\n" + content
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() string {
	if a.result == nil {
		return ""
	}
	p := a.result.Period
	return fmt.Sprintf("%s → %s · %s %s",
		p.StartDate(), p.EndDate(),
		a.lastRefresh.Format("15:04"),
		cli.FormatDuration(a.loadTime))
}

func (a App) renderError(cw int) string {
	if a.loadErr == nil {
		return ""
	}
	return components.ContentCard("Could not load costs", a.loadErr.Error(), cw)
}

func renderErrorLine(err error, cw int) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Width(cw)
	return style.Render(truncStr(" refresh failed: "+err.Error(), cw))
}

// collectCmd runs one collection in the background.
func collectCmd(c Collector, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := c.Collect(ctx)
		return DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
