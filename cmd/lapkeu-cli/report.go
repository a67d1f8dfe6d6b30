package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lapkeu/internal/cli"
	"lapkeu/internal/report"
)

func reportCmd(a *app) *cobra.Command {
	var (
		period string
		month  string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the summary and the periodic reports",
		Example: `  lapkeu-cli report
  lapkeu-cli report --month 2025-01
  lapkeu-cli report --period weekly --limit 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month = strings.TrimSpace(month)
			if month == "" || strings.EqualFold(month, "all") {
				month = report.AllMonths
			}

			var periods []report.Period
			if period != "" {
				p, ok := report.ParsePeriod(period)
				if !ok {
					return fmt.Errorf("unknown period %q, use daily, weekly, monthly or yearly", period)
				}
				periods = []report.Period{p}
			} else {
				periods = report.Periods
			}

			ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer ledger.Close()

			list, err := ledger.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderSummary(report.Summarize(list, month)))
			for _, p := range periods {
				n := limit
				if !cmd.Flags().Changed("limit") {
					n = -1
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, cli.RenderPeriodic(report.Periodic(list, p, n)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "only this period (daily, weekly, monthly, yearly)")
	cmd.Flags().StringVar(&month, "month", "", "summary month as YYYY-MM, default all months")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows per table, 0 for all; default depends on the period")
	return cmd
}
