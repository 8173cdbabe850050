package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/store"
)

var (
	flagHistoryLimit   int
	flagHistoryProject string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs from the history database",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().StringVarP(&flagHistoryProject, "project", "p", "", "Show the spend history of one project")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Printf("\n  No history yet (%s).\n", path)
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if flagHistoryProject != "" {
		return printProjectHistory(st, flagHistoryProject)
	}

	runs, err := st.RecentRuns(flagHistoryLimit)
	if err != nil {
		return err
	}
	total, err := st.RunCount()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("\n  No runs recorded.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RUNS  %d of %d", len(runs), total)))
	fmt.Println()

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := r.Status
		if r.DryRun {
			status += " (dry)"
		}
		sent := 0
		for _, p := range r.Projects {
			if p.Sent {
				sent++
			}
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			status,
			cli.FormatDuration(r.Duration()),
			cli.FormatNumber(int64(r.AWSRecords)),
			cli.FormatNumber(int64(r.AzureRecords)),
			fmt.Sprintf("%d/%d", sent, len(r.Projects)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Started", "Status", "Took", "AWS rows", "Azure rows", "Sent"},
		Rows:    rows,
	}))

	for _, r := range runs {
		if r.Error != "" {
			fmt.Println(cli.RenderWarning(fmt.Sprintf("%s: %s", r.StartedAt.Local().Format("2006-01-02 15:04"), r.Error)))
		}
	}
	return nil
}

func printProjectHistory(st *store.Store, project string) error {
	snaps, err := st.ProjectHistory(project, flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Printf("\n  No runs recorded for %q.\n", project)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HISTORY  %s", project)))
	fmt.Println()

	// newest first from the store; the sparkline reads oldest to newest
	values := make([]float64, len(snaps))
	rows := make([][]string, 0, len(snaps))
	for i, s := range snaps {
		values[len(snaps)-1-i] = s.Total.InexactFloat64()
		used := "-"
		if s.Budget.IsPositive() {
			used = cli.FormatPercent(s.UsedPercent)
		}
		rows = append(rows, []string{
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			cli.FormatMoney(s.AWS, 0),
			cli.FormatMoney(s.Azure, 0),
			cli.FormatMoney(s.Total, 0),
			cli.FormatMoney(s.Forecast, 0),
			used,
		})
	}
	fmt.Printf("  Spend trend  %s\n\n", cli.RenderSparkline(values))
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Run", "AWS", "Azure", "Total", "Forecast", "Used"},
		Rows:    rows,
	}))
	return nil
}
