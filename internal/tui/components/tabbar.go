package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

const tabSeparator = "│"

// TabVisualWidth returns the rendered width of a tab label including padding.
func TabVisualWidth(name string) int {
	return lipgloss.Width(name) + 2
}

// VisibleTabs returns the index range [first, last) of tabs that fit in width,
// keeping active in view.
func VisibleTabs(names []string, active, width int) (int, int) {
	if len(names) == 0 {
		return 0, 0
	}
	if active < 0 {
		active = 0
	}
	if active >= len(names) {
		active = len(names) - 1
	}

	first, last := active, active+1
	used := TabVisualWidth(names[active])
	for {
		grew := false
		if last < len(names) {
			if w := used + 1 + TabVisualWidth(names[last]); w <= width {
				used = w
				last++
				grew = true
			}
		}
		if first > 0 {
			if w := used + 1 + TabVisualWidth(names[first-1]); w <= width {
				used = w
				first--
				grew = true
			}
		}
		if !grew {
			return first, last
		}
	}
}

// RenderTabBar renders one line of tabs with active highlighted.
// Tabs that do not fit are scrolled out of view.
func RenderTabBar(names []string, active, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)
	sepStyle := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)

	first, last := VisibleTabs(names, active, width)

	var out string
	for i := first; i < last; i++ {
		if i > first {
			out += sepStyle.Render(tabSeparator)
		}
		if i == active {
			out += activeStyle.Render(names[i])
		} else {
			out += inactiveStyle.Render(names[i])
		}
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(out)
}
