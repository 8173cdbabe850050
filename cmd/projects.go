package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/awsclient"
	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/params"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Show the project map: accounts, subscriptions, budgets and recipients",
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var api params.ParameterAPI
	if cfg.AWS.ProjectDataParameter != "" || cfg.AWS.SecretParameter != "" {
		awsCfg, err := awsclient.Load(ctx, cfg.AWS)
		if err != nil {
			return err
		}
		api = ssm.NewFromConfig(awsCfg)
	}

	resolved, err := params.NewLoader(api, log).Resolve(ctx, cfg)
	if err != nil {
		return err
	}
	pm := resolved.Projects

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  from %s", resolved.ProjectSource)))
	fmt.Println()

	rows := make([][]string, 0, len(pm.Projects))
	for _, name := range pm.Names() {
		p := pm.Projects[name]
		label := name
		if name == pm.Default {
			label += " *"
		}
		budget := "-"
		if p.Budget.IsPositive() {
			budget = cli.FormatMoney(p.Budget, 0)
		}
		rows = append(rows, []string{
			label,
			joinOrDash(p.AccountIDs),
			joinOrDash(p.SubscriptionIDs),
			budget,
			joinOrDash(p.Recipients),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "AWS accounts", "Azure subscriptions", "Budget", "Recipients"},
		Rows:    rows,
	}))
	fmt.Println(cli.RenderMuted("  * default project: receives costs of unlisted accounts"))

	if len(resolved.AzureCredentials) > 0 {
		fmt.Println()
		credRows := make([][]string, 0, len(resolved.AzureCredentials))
		for _, c := range resolved.AzureCredentials {
			name := c.SubscriptionName
			if name == "" {
				name = "-"
			}
			credRows = append(credRows, []string{c.SubscriptionID, name, c.TenantID, maskSecret(c.ClientID)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Azure subscriptions",
			Headers: []string{"Subscription", "Name", "Tenant", "Client"},
			Rows:    credRows,
		}))
	}
	return nil
}

func joinOrDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ", ")
}
