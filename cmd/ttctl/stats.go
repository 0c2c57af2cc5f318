package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timetracker/internal/core"
)

var timeNow = time.Now

func statsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summaries of tracked time",
	}
	cmd.AddCommand(statsCategoriesCmd(opts))
	cmd.AddCommand(statsDailyCmd(opts))
	cmd.AddCommand(statsSummaryCmd(opts))
	return cmd
}

func statsCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Total time per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			totals := a.aggregator.GroupByCategory(cmdContext(cmd))
			grand := 0
			for _, t := range totals {
				grand += t.TotalDuration
			}
			rows := make([][]string, 0, len(totals))
			for _, t := range totals {
				share := 0.0
				if grand > 0 {
					share = float64(t.TotalDuration) / float64(grand)
				}
				rows = append(rows, []string{t.Category, core.FormatDuration(t.TotalDuration), bar(share, 20)})
			}
			renderTable(cmd.OutOrStdout(), []string{"CATEGORY", "TOTAL", "SHARE"}, rows)
			return nil
		},
	}
}

func statsDailyCmd(opts *rootOptions) *cobra.Command {
	var (
		days int
		fill bool
	)

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Total time per day over a trailing window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > 366 {
				return fmt.Errorf("days must be between 1 and 366, got %d", days)
			}
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			totals := a.aggregator.GroupByDay(cmdContext(cmd), days)
			if fill {
				totals = core.FillMissingDays(totals, timeNow(), days)
			}
			longest := 0
			for _, t := range totals {
				longest = max(longest, t.TotalDuration)
			}
			rows := make([][]string, 0, len(totals))
			for _, t := range totals {
				share := 0.0
				if longest > 0 {
					share = float64(t.TotalDuration) / float64(longest)
				}
				rows = append(rows, []string{t.Date, core.FormatDuration(t.TotalDuration), bar(share, 20)})
			}
			renderTable(cmd.OutOrStdout(), []string{"DATE", "TOTAL", ""}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "window size in days")
	cmd.Flags().BoolVar(&fill, "fill", false, "include days with no entries")
	return cmd
}

func statsSummaryCmd(opts *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Dashboard figures for a trailing window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > 366 {
				return fmt.Errorf("days must be between 1 and 366, got %d", days)
			}
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.aggregator.Dashboard(cmdContext(cmd), days)
			renderPairs(cmd.OutOrStdout(), [][2]string{
				{"Window", fmt.Sprintf("%d days", s.WindowDays)},
				{"Total time", core.FormatDuration(s.TotalMinutes)},
				{"Active days", fmt.Sprintf("%d", s.ActiveDays)},
				{"Average per day", fmt.Sprintf("%.1fh", s.AverageDailyHours)},
				{"Tasks completed", fmt.Sprintf("%d/%d", s.CompletedTasks, s.TotalTasks)},
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "window size in days")
	return cmd
}
