package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/job"
	"github.com/theirongolddev/costnotify/internal/mail"
)

var (
	flagDryRun  bool
	flagOutDir  string
	flagProject string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch costs and email one report per project",
	RunE:  runReport,
}

func init() {
	addReportFlags(reportCmd.Flags())
	addReportFlags(rootCmd.Flags())
	rootCmd.AddCommand(reportCmd)
}

func addReportFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&flagDryRun, "dry-run", false, "Render the reports without sending email")
	fs.StringVar(&flagOutDir, "out-dir", "", "With --dry-run, write one HTML file per project here instead of stdout")
	fs.StringVarP(&flagProject, "project", "p", "", "Only send the report of this project")
}

func runReport(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sender mail.Sender
	if flagDryRun {
		if flagOutDir != "" {
			sender = mail.DirSender{Dir: flagOutDir}
		} else {
			sender = &mail.WriterSender{W: os.Stdout}
		}
	}

	setup, _, err := setupJob(ctx, sender, os.Stderr)
	if err != nil {
		return err
	}
	defer setup.Close()

	res, err := setup.Job.Run(ctx, job.Options{DryRun: flagDryRun, Project: flagProject})
	if res != nil && !flagQuiet {
		printRunSummary(res)
	}
	return exitError(err)
}

func printRunSummary(res *job.Result) {
	if len(res.Reports) == 0 {
		return
	}
	rows := make([][]string, 0, len(res.Reports))
	sent := make(map[string]string, len(res.Sent)+len(res.Failed))
	for _, p := range res.Sent {
		sent[p] = "sent"
		if flagDryRun {
			sent[p] = "rendered"
		}
	}
	for _, p := range res.Failed {
		sent[p] = "FAILED"
	}

	for _, rep := range res.Reports {
		used := "-"
		if rep.Budget.HasBudget {
			used = cli.FormatPercent(rep.Budget.UsedPercent)
		}
		status := sent[rep.Project]
		if status == "" {
			status = "skipped"
		}
		rows = append(rows, []string{
			rep.Project,
			cli.FormatMoney(rep.Total, 0),
			cli.FormatMoney(rep.Budget.Forecast, 0),
			used,
			status,
		})
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s → %s (%s)", res.Period.StartDate(), res.Period.EndDate(), res.Currency),
		Headers: []string{"Project", "Spend", "Forecast", "Used", "Email"},
		Rows:    rows,
	}))
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(w))
	}
	if flagDryRun && flagOutDir != "" {
		fmt.Fprintf(os.Stderr, "  Wrote %d reports to %s\n", len(res.Sent), flagOutDir)
	}
}
