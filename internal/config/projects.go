package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoDefaultProject is returned when the default project is missing from the project map.
var ErrNoDefaultProject = errors.New("config: default project is not defined")

// Project is one budget-tracked group of AWS accounts and Azure subscriptions.
type Project struct {
	Name            string
	AccountIDs      []string
	SubscriptionIDs []string
	Budget          decimal.Decimal
	Recipients      []string
}

// HasAccount reports whether the AWS account belongs to the project.
func (p Project) HasAccount(id string) bool {
	for _, a := range p.AccountIDs {
		if a == id {
			return true
		}
	}
	return false
}

// HasSubscription reports whether the Azure subscription belongs to the project.
// Subscription IDs are GUIDs and compared case-insensitively.
func (p Project) HasSubscription(id string) bool {
	for _, s := range p.SubscriptionIDs {
		if strings.EqualFold(s, id) {
			return true
		}
	}
	return false
}

// ProjectMap is the full attribution table.
type ProjectMap struct {
	Default  string
	Projects map[string]Project
}

// Names returns project names in sorted order.
func (m ProjectMap) Names() []string {
	names := make([]string, 0, len(m.Projects))
	for name := range m.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the map is usable for attribution.
func (m ProjectMap) Validate() error {
	if len(m.Projects) == 0 {
		return errors.New("config: no projects defined")
	}
	if _, ok := m.Projects[m.Default]; !ok || m.Default == "" {
		return fmt.Errorf("%w: %q", ErrNoDefaultProject, m.Default)
	}
	return nil
}

// ProjectMapFromConfig builds a ProjectMap from the [projects] config section.
func ProjectMapFromConfig(pc ProjectsConfig) ProjectMap {
	m := ProjectMap{
		Default:  pc.Default,
		Projects: make(map[string]Project, len(pc.Items)),
	}
	for name, item := range pc.Items {
		m.Projects[name] = Project{
			Name:            name,
			AccountIDs:      item.AccountIDs,
			SubscriptionIDs: item.SubscriptionIDs,
			Budget:          decimal.NewFromFloat(item.Budget),
			Recipients:      item.Recipients,
		}
	}
	return m
}

type projectDataJSON struct {
	DefaultProject string                     `json:"default_project"`
	ProjectData    map[string]projectItemJSON `json:"project_data"`
}

type projectItemJSON struct {
	AccountID      []string         `json:"AccountID"`
	SubscriptionID []string         `json:"SubscriptionID"`
	BudgetYen      *decimal.Decimal `json:"budget_yen"`
	Budget         *decimal.Decimal `json:"budget"`
	Recipients     []string         `json:"recipients"`
}

// ParseProjectData parses the project map stored in the SSM parameter:
//
//	{"default_project": "common",
//	 "project_data": {"common": {"AccountID": ["1111"], "SubscriptionID": [], "budget_yen": 100000}}}
func ParseProjectData(data []byte) (ProjectMap, error) {
	var raw projectDataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProjectMap{}, fmt.Errorf("parsing project data: %w", err)
	}

	m := ProjectMap{
		Default:  raw.DefaultProject,
		Projects: make(map[string]Project, len(raw.ProjectData)),
	}
	for name, item := range raw.ProjectData {
		budget := decimal.Zero
		switch {
		case item.BudgetYen != nil:
			budget = *item.BudgetYen
		case item.Budget != nil:
			budget = *item.Budget
		}
		m.Projects[name] = Project{
			Name:            name,
			AccountIDs:      item.AccountID,
			SubscriptionIDs: item.SubscriptionID,
			Budget:          budget,
			Recipients:      item.Recipients,
		}
	}
	return m, nil
}

// AzureCredential is a service principal scoped to one subscription.
type AzureCredential struct {
	TenantID         string `toml:"tenant_id" json:"az_tenant_id"`
	ClientID         string `toml:"client_id" json:"az_client_id"`
	ClientSecret     string `toml:"client_secret" json:"az_client_secret"`
	SubscriptionID   string `toml:"subscription_id" json:"az_subscription_id"`
	SubscriptionName string `toml:"subscription_name,omitempty" json:"az_subscription_name"`
}

// Validate checks that every field needed to authenticate is present.
func (c AzureCredential) Validate() error {
	var missing []string
	if c.TenantID == "" {
		missing = append(missing, "tenant_id")
	}
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if c.SubscriptionID == "" {
		missing = append(missing, "subscription_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("azure credential %q: missing %s", c.SubscriptionID, strings.Join(missing, ", "))
	}
	return nil
}

// ParseAzureCredentials parses the credential list stored in the secure SSM parameter.
func ParseAzureCredentials(data []byte) ([]AzureCredential, error) {
	var creds []AzureCredential
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing azure credentials: %w", err)
	}
	for _, c := range creds {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return creds, nil
}

// MergeAzureCredentials concatenates credential lists, keeping the first
// entry seen for each subscription.
func MergeAzureCredentials(lists ...[]AzureCredential) []AzureCredential {
	seen := make(map[string]struct{})
	var out []AzureCredential
	for _, list := range lists {
		for _, c := range list {
			key := strings.ToLower(c.SubscriptionID)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the named project.
func (m ProjectMap) Lookup(name string) (Project, bool) {
	p, ok := m.Projects[name]
	return p, ok
}
