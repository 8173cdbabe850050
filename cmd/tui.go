package cmd

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/mail"
	"github.com/theirongolddev/costnotify/internal/tui"
	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// Log output would corrupt the alternate screen.
	setup, cfg, err := setupJob(context.Background(), &mail.WriterSender{W: io.Discard}, io.Discard)
	if err != nil {
		return err
	}
	defer setup.Close()

	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	p := tea.NewProgram(tui.NewApp(setup.Job, 0), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
