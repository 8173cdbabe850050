package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/job"
	"github.com/theirongolddev/costnotify/internal/mail"
	"github.com/theirongolddev/costnotify/internal/report"
)

var (
	flagPreviewProject string
	flagPreviewHTML    bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the per-project reports without sending anything",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&flagPreviewProject, "project", "p", "", "Only show this project")
	previewCmd.Flags().BoolVar(&flagPreviewHTML, "html", false, "Print the email HTML of --project instead of tables")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(_ *cobra.Command, _ []string) error {
	if flagPreviewHTML && flagPreviewProject == "" {
		return errors.New("--html needs --project")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	setup, _, err := setupJob(ctx, &mail.WriterSender{W: io.Discard}, os.Stderr)
	if err != nil {
		return err
	}
	defer setup.Close()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching month-to-date costs...\n")
	}
	start := time.Now()
	res, err := setup.Job.Collect(ctx)
	if err != nil {
		return err
	}

	if flagPreviewHTML {
		rep, ok := res.Report(flagPreviewProject)
		if !ok {
			return fmt.Errorf("%w: %q", job.ErrUnknownProject, flagPreviewProject)
		}
		renderer, err := setup.Job.Renderer()
		if err != nil {
			return err
		}
		html, err := renderer.HTML(rep)
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	}

	shown := 0
	for _, rep := range res.Reports {
		if flagPreviewProject != "" && rep.Project != flagPreviewProject {
			continue
		}
		printReport(rep)
		shown++
	}
	if shown == 0 && flagPreviewProject != "" {
		return fmt.Errorf("%w: %q", job.ErrUnknownProject, flagPreviewProject)
	}
	for _, w := range res.Warnings {
		fmt.Println(cli.RenderWarning(w))
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %d projects, source: %s, fetched in %s\n",
			len(res.Reports), res.ProjectSource, cli.FormatDuration(time.Since(start)))
	}
	return nil
}

func printReport(rep report.Report) {
	bs := rep.Budget
	label := rep.CurrencyLabel

	fmt.Println()
	fmt.Println(cli.RenderTitle(rep.Heading))
	fmt.Println()

	fmt.Printf("  %-22s %s\n", "Spend so far", cli.FormatCurrency(rep.Total, 0, label))
	fmt.Printf("  %-22s %s\n", fmt.Sprintf("Forecast (%d days)", bs.ForecastDays), cli.FormatCurrency(bs.Forecast, 0, label))
	if bs.HasBudget {
		fmt.Printf("  %-22s %s\n", "Budget", cli.FormatCurrency(bs.Budget, 0, label))
		fmt.Printf("  %-22s %s %s\n", "Budget - forecast", cli.FormatDelta(bs.Remaining, 0), label)
		fmt.Printf("  %-22s %s\n", "Budget used", cli.RenderBudgetBar(bs.UsedPercent, 30))
	} else {
		fmt.Printf("  %-22s %s\n", "Budget", cli.RenderMuted("not set"))
	}
	if len(rep.Daily) > 0 {
		values := make([]float64, len(rep.Daily))
		for i, d := range rep.Daily {
			values[i] = d.Amount.InexactFloat64()
		}
		fmt.Printf("  %-22s %s\n", "Daily", cli.RenderSparkline(values))
	}
	fmt.Println()

	providerRows := make([][]string, 0, len(rep.ProviderTotals))
	for _, pt := range rep.ProviderTotals {
		providerRows = append(providerRows, []string{pt.Provider.Label(), cli.FormatMoney(pt.Amount, 0)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Provider", "Amount"},
		Rows:    providerRows,
	}))

	accountRows := make([][]string, 0, len(rep.Accounts))
	for _, a := range rep.Accounts {
		accountRows = append(accountRows, []string{a.Provider.Label(), a.ID, a.Name, cli.FormatMoney(a.Amount, 0)})
	}
	if len(accountRows) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Provider", "Account", "Name", "Amount"},
			Rows:    accountRows,
		}))
	}

	serviceRows := make([][]string, 0, len(rep.TopServices))
	for _, s := range rep.TopServices {
		serviceRows = append(serviceRows, []string{
			fmt.Sprint(s.Rank), s.Provider.Label(), s.Name, cli.FormatMoney(s.Amount, 2),
		})
	}
	if len(serviceRows) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Top %d services", rep.TopN),
			Headers: []string{"#", "Provider", "Service", "Amount"},
			Rows:    serviceRows,
		}))
	}

	if len(rep.Recipients) > 0 {
		fmt.Println(cli.RenderMuted("  Recipients: " + strings.Join(rep.Recipients, ", ")))
	}
}
