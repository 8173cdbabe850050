// Package cmd implements the costnotify CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/job"
	"github.com/theirongolddev/costnotify/internal/logging"
	"github.com/theirongolddev/costnotify/internal/mail"
)

var (
	flagConfig    string
	flagQuiet     bool
	flagLogLevel  string
	flagLogFormat string
	flagNoHistory bool
)

var rootCmd = &cobra.Command{
	Use:   "costnotify",
	Short: "Monthly AWS + Azure cost notifications per project",
	Long: "Fetch month-to-date AWS and Azure costs, attribute them to projects,\n" +
		"forecast the month against each project's budget and email a report.",
	SilenceUsage: true,
	RunE:         runReport,
}

// Execute is the main entry point called from main.go.
func Execute() {
	_ = godotenv.Load()

	if len(os.Args) == 1 && os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		rootCmd.SetArgs([]string{"lambda"})
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/costnotify/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record the run in the history database")
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagNoHistory {
		cfg.Store.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", config.Path(flagConfig), err)
	}
	return cfg, nil
}

// newLogger builds the logger from the persistent flags, writing to out.
func newLogger(out io.Writer) (*logrus.Logger, error) {
	level := flagLogLevel
	if flagQuiet {
		level = "warn"
	}
	return logging.New(level, flagLogFormat, out)
}

// setupJob loads config and wires a job. The caller must Close the setup.
func setupJob(ctx context.Context, sender mail.Sender, logOut io.Writer) (*job.Setup, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	log, err := newLogger(logOut)
	if err != nil {
		return nil, cfg, err
	}
	setup, err := job.FromConfig(ctx, cfg, sender, log)
	if err != nil {
		return nil, cfg, err
	}
	return setup, cfg, nil
}

// exitError reports a partial send as a failure without repeating the
// per-project errors the job already logged.
func exitError(err error) error {
	if errors.Is(err, job.ErrPartialSend) {
		return errors.New("some reports could not be sent; see the log above")
	}
	return err
}
