package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path(flagConfig))
	if config.Exists(flagConfig) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  Invalid:     %v\n", err)
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Subject:        %s\n", cfg.General.Subject)
	fmt.Printf("    Currency:       %s (label %s)\n", cfg.General.ReportCurrency, cfg.General.Label())
	fmt.Printf("    Top services:   %d\n", cfg.General.TopN)
	if cfg.General.ForecastDays > 0 {
		fmt.Printf("    Forecast days:  %d\n", cfg.General.ForecastDays)
	} else {
		fmt.Println("    Forecast days:  days in the current month")
	}
	fmt.Printf("    Allow partial:  %v\n", cfg.General.AllowPartial)
	fmt.Println()

	fmt.Println("  [AWS]")
	fmt.Printf("    Enabled:        %v\n", !cfg.AWS.Disabled)
	fmt.Printf("    Region:         %s\n", orNotSet(cfg.AWS.Region))
	fmt.Printf("    Profile:        %s\n", orNotSet(cfg.AWS.Profile))
	if cfg.AWS.AccessKeyID != "" {
		fmt.Printf("    Access key:     %s\n", maskSecret(cfg.AWS.AccessKeyID))
		fmt.Printf("    Secret key:     %s\n", maskSecret(cfg.AWS.SecretAccessKey))
	}
	fmt.Printf("    Project param:  %s\n", orNotSet(cfg.AWS.ProjectDataParameter))
	fmt.Printf("    Secret param:   %s\n", orNotSet(cfg.AWS.SecretParameter))
	fmt.Printf("    Account names:  %v\n", cfg.AWS.LookupAccountNames)
	fmt.Printf("    CE requests/s:  %g\n", cfg.AWS.RequestsPerSecond)
	fmt.Println()

	fmt.Println("  [Azure]")
	fmt.Printf("    Enabled:        %v\n", cfg.Azure.Enabled)
	for _, c := range cfg.Azure.Subscriptions {
		fmt.Printf("    Subscription:   %s (client %s, secret %s)\n",
			c.SubscriptionID, maskSecret(c.ClientID), maskSecret(c.ClientSecret))
	}
	fmt.Println()

	fmt.Println("  [Mail]")
	fmt.Printf("    Sender:         %s\n", orNotSet(cfg.Mail.Sender))
	if len(cfg.Mail.Recipients) > 0 {
		fmt.Printf("    Recipients:     %s\n", strings.Join(cfg.Mail.Recipients, ", "))
	}
	fmt.Println()

	if len(cfg.Projects.Items) > 0 {
		fmt.Println("  [Projects]")
		fmt.Printf("    Default:        %s\n", orNotSet(cfg.Projects.Default))
		fmt.Printf("    Projects:       %d\n", len(cfg.Projects.Items))
		fmt.Println()
	}

	fmt.Println("  [Rates]")
	currencies := make([]string, 0, len(cfg.Rates.Fixed))
	for c := range cfg.Rates.Fixed {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		fmt.Printf("    %-15s %g %s\n", c+":", cfg.Rates.Fixed[c], cfg.General.ReportCurrency)
	}
	for _, e := range cfg.Rates.Schedule {
		fmt.Printf("    %-15s %g %s from %s\n", e.Currency+":", e.Rate, cfg.General.ReportCurrency, e.EffectiveFrom)
	}
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Enabled:        %v\n", cfg.Store.Enabled)
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}
	fmt.Printf("    Path:           %s\n", path)
	fmt.Println()

	fmt.Println("  [Metrics]")
	fmt.Printf("    Pushgateway:    %s\n", orNotSet(cfg.Metrics.PushgatewayURL))
	fmt.Println()

	fmt.Println("  Run `costnotify setup` to reconfigure.")
	return nil
}

func orNotSet(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "not set"
	case len(s) > 12:
		return s[:4] + "..." + s[len(s)-4:]
	case len(s) > 4:
		return s[:2] + "..."
	default:
		return "****"
	}
}
