// Package config loads and validates costnotify configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all costnotify configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	AWS        AWSConfig        `toml:"aws"`
	Azure      AzureConfig      `toml:"azure"`
	Mail       MailConfig       `toml:"mail"`
	Projects   ProjectsConfig   `toml:"projects"`
	Rates      RatesConfig      `toml:"rates"`
	Store      StoreConfig      `toml:"store"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds report-wide settings.
type GeneralConfig struct {
	Subject        string `toml:"subject"`
	ReportCurrency string `toml:"report_currency"`
	CurrencyLabel  string `toml:"currency_label,omitempty"`
	TopN           int    `toml:"top_n"`
	// ForecastDays overrides the month length used for the forecast. 0 uses the calendar.
	ForecastDays int  `toml:"forecast_days,omitempty"`
	AllowPartial bool `toml:"allow_partial,omitempty"`
}

// AWSConfig holds AWS session and parameter settings.
type AWSConfig struct {
	Region               string  `toml:"region,omitempty"`
	Profile              string  `toml:"profile,omitempty"`
	AccessKeyID          string  `toml:"access_key_id,omitempty"`
	SecretAccessKey      string  `toml:"secret_access_key,omitempty"`
	SessionToken         string  `toml:"session_token,omitempty"`
	ProjectDataParameter string  `toml:"project_data_parameter,omitempty"`
	SecretParameter      string  `toml:"secret_parameter,omitempty"`
	LookupAccountNames   bool    `toml:"lookup_account_names"`
	RequestsPerSecond    float64 `toml:"requests_per_second,omitempty"`
	Disabled             bool    `toml:"disabled,omitempty"`
}

// AzureConfig holds Azure Cost Management settings.
type AzureConfig struct {
	Enabled       bool              `toml:"enabled"`
	Subscriptions []AzureCredential `toml:"subscriptions,omitempty"`
}

// MailConfig holds notification email settings.
type MailConfig struct {
	Sender     string   `toml:"sender,omitempty"`
	Recipients []string `toml:"recipients,omitempty"`
}

// ProjectsConfig holds the project map when it is not read from SSM.
type ProjectsConfig struct {
	Default string                   `toml:"default,omitempty"`
	Items   map[string]ProjectConfig `toml:"items,omitempty"`
}

// ProjectConfig holds one project's membership and budget.
type ProjectConfig struct {
	AccountIDs      []string `toml:"account_ids,omitempty"`
	SubscriptionIDs []string `toml:"subscription_ids,omitempty"`
	Budget          float64  `toml:"budget,omitempty"`
	Recipients      []string `toml:"recipients,omitempty"`
}

// RatesConfig holds exchange rates into the report currency.
type RatesConfig struct {
	Fixed    map[string]float64 `toml:"fixed,omitempty"`
	Schedule []RateEntry        `toml:"schedule,omitempty"`
}

// RateEntry is an effective-dated exchange rate.
type RateEntry struct {
	Currency      string  `toml:"currency"`
	Rate          float64 `toml:"rate"`
	EffectiveFrom string  `toml:"effective_from"` // YYYY-MM-DD
}

// StoreConfig holds run history settings.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// MetricsConfig holds Prometheus Pushgateway settings.
type MetricsConfig struct {
	PushgatewayURL string `toml:"pushgateway_url,omitempty"`
	Job            string `toml:"job,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Subject:        "simple cost notification",
			ReportCurrency: "JPY",
			TopN:           10,
		},
		AWS: AWSConfig{
			LookupAccountNames: true,
			RequestsPerSecond:  1,
		},
		Azure: AzureConfig{
			Enabled: true,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Job: "costnotify",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "costnotify")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "costnotify")
}

// Path returns the config file path: the explicit path if given,
// then $COSTNOTIFY_CONFIG, then the XDG default.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("COSTNOTIFY_CONFIG"); env != "" {
		return env
	}
	return filepath.Join(Dir(), "config.toml")
}

// Exists returns true if a config file exists at the resolved path.
func Exists(path string) bool {
	_, err := os.Stat(Path(path))
	return err == nil
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(path string, cfg Config) error {
	path = Path(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// ApplyEnv overlays the environment variables used by the Lambda deployment.
func ApplyEnv(cfg *Config) error {
	if v := firstEnv("Region", "AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := firstEnv("PROFILE_NAME"); v != "" {
		cfg.AWS.Profile = v
	}
	if v := firstEnv("SENDER_EMAIL"); v != "" {
		cfg.Mail.Sender = v
	}
	if v := firstEnv("PROJECT_DATA_PARAMETER_NAME"); v != "" {
		cfg.AWS.ProjectDataParameter = v
	}
	if v := firstEnv("SECRET_PARAMETER_NAME"); v != "" {
		cfg.AWS.SecretParameter = v
	}
	if v := firstEnv("SUBJECT"); v != "" {
		cfg.General.Subject = v
	}
	if v := firstEnv("RATE_VALUE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 {
			return fmt.Errorf("RATE_VALUE must be a positive number, got %q", v)
		}
		if cfg.Rates.Fixed == nil {
			cfg.Rates.Fixed = make(map[string]float64)
		}
		cfg.Rates.Fixed["USD"] = rate
	}
	if v := firstEnv("COSTNOTIFY_PUSHGATEWAY"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
	return nil
}

// Validate checks settings that do not depend on remote parameters.
func (c Config) Validate() error {
	if strings.TrimSpace(c.General.ReportCurrency) == "" {
		return errors.New("general.report_currency must be set")
	}
	if c.General.TopN < 0 {
		return errors.New("general.top_n must be >= 0")
	}
	if c.General.ForecastDays < 0 || c.General.ForecastDays > 31 {
		return fmt.Errorf("general.forecast_days must be between 0 and 31, got %d", c.General.ForecastDays)
	}
	if c.AWS.RequestsPerSecond < 0 {
		return errors.New("aws.requests_per_second must be >= 0")
	}
	if c.AWS.Disabled && !c.Azure.Enabled {
		return errors.New("both providers are disabled")
	}
	if _, err := NewRateTable(c.General.ReportCurrency, c.Rates); err != nil {
		return err
	}
	return nil
}

// Label returns the currency label shown next to amounts.
func (g GeneralConfig) Label() string {
	if g.CurrencyLabel != "" {
		return g.CurrencyLabel
	}
	return strings.ToUpper(g.ReportCurrency)
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
