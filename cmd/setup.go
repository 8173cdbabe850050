package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	values := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&values).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing was saved.")
			return nil
		}
		return err
	}
	if err := values.Apply(&cfg); err != nil {
		return err
	}

	if err := config.Save(flagConfig, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path(flagConfig))
	fmt.Println("  Next: `costnotify projects` to check the project map,")
	fmt.Println("        `costnotify report --dry-run --out-dir ./out` to render without sending.")
	fmt.Println()
	return nil
}
