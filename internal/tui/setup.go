package tui

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/tui/theme"
)

// SetupValues holds the answers of the setup wizard.
type SetupValues struct {
	Sender           string
	Region           string
	Profile          string
	ProjectParameter string
	SecretParameter  string
	Currency         string
	USDRate          string
	AzureEnabled     bool
	Theme            string
}

var currencyOptions = []string{"JPY", "USD", "EUR"}

// SetupValuesFrom pre-fills the wizard from an existing configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	v := SetupValues{
		Sender:           cfg.Mail.Sender,
		Region:           cfg.AWS.Region,
		Profile:          cfg.AWS.Profile,
		ProjectParameter: cfg.AWS.ProjectDataParameter,
		SecretParameter:  cfg.AWS.SecretParameter,
		Currency:         strings.ToUpper(cfg.General.ReportCurrency),
		AzureEnabled:     cfg.Azure.Enabled,
		Theme:            cfg.Appearance.Theme,
	}
	if rate, ok := cfg.Rates.Fixed["USD"]; ok {
		v.USDRate = strconv.FormatFloat(rate, 'f', -1, 64)
	}
	return v
}

// NewSetupForm builds the setup wizard writing into v.
func NewSetupForm(v *SetupValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to costnotify").
				Description("Monthly AWS + Azure spend per project, mailed against a budget.\nLeave a field empty to keep its default."),
			huh.NewInput().
				Title("Sender email").
				Description("Verified SES identity; reports are sent from (and by default to) it.").
				Value(&v.Sender).
				Validate(validateEmail),
			huh.NewInput().
				Title("AWS region").
				Placeholder("ap-northeast-1").
				Value(&v.Region),
			huh.NewInput().
				Title("AWS profile").
				Description("Shared config profile. Empty uses the default credential chain.").
				Value(&v.Profile),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SSM parameter with the project map").
				Description("JSON with default_project and project_data. Empty uses [projects] from the config file.").
				Value(&v.ProjectParameter),
			huh.NewInput().
				Title("SSM parameter with Azure credentials").
				Description("SecureString JSON list of service principals.").
				Value(&v.SecretParameter),
			huh.NewConfirm().
				Title("Include Azure costs?").
				Value(&v.AzureEnabled),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Report currency").
				Options(huh.NewOptions(currencyOptions...)...).
				Value(&v.Currency),
			huh.NewInput().
				Title("USD exchange rate").
				Description("Units of the report currency per USD.").
				Value(&v.USDRate).
				Validate(validateRate),
			huh.NewSelect[string]().
				Title("Dashboard theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.Theme),
		),
	)
}

// Apply writes the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) error {
	if err := validateEmail(v.Sender); err != nil {
		return err
	}
	if err := validateRate(v.USDRate); err != nil {
		return err
	}

	cfg.Mail.Sender = strings.TrimSpace(v.Sender)
	cfg.AWS.Region = strings.TrimSpace(v.Region)
	cfg.AWS.Profile = strings.TrimSpace(v.Profile)
	cfg.AWS.ProjectDataParameter = strings.TrimSpace(v.ProjectParameter)
	cfg.AWS.SecretParameter = strings.TrimSpace(v.SecretParameter)
	cfg.Azure.Enabled = v.AzureEnabled
	if v.Currency != "" {
		cfg.General.ReportCurrency = v.Currency
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}

	if rate := strings.TrimSpace(v.USDRate); rate != "" {
		f, _ := strconv.ParseFloat(rate, 64)
		if cfg.Rates.Fixed == nil {
			cfg.Rates.Fixed = make(map[string]float64)
		}
		cfg.Rates.Fixed["USD"] = f
	}
	return cfg.Validate()
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("%q is not an email address", s)
	}
	return nil
}

func validateRate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("rate must be a number")
	}
	if f <= 0 {
		return errors.New("rate must be positive")
	}
	return nil
}
