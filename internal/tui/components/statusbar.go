package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// info (period, data age) on the right.
func RenderStatusBar(width int, info string, refreshing bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	left := " " + keyStyle.Render("←/→") + textStyle.Render(" project  ") +
		keyStyle.Render("r") + textStyle.Render(" refresh  ") +
		keyStyle.Render("?") + textStyle.Render(" help  ") +
		keyStyle.Render("q") + textStyle.Render(" quit")

	right := info
	if refreshing {
		right = "refreshing… " + right
	}
	right = textStyle.Render(right + " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		return style.Render(left)
	}
	return style.Render(left + textStyle.Render(strings.Repeat(" ", padding)) + right)
}

