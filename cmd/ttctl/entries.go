package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"timetracker/internal/core"
)

func entriesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"e"},
		Short:   "List and edit time entries",
	}
	cmd.AddCommand(entriesListCmd(opts))
	cmd.AddCommand(entriesAddCmd(opts))
	cmd.AddCommand(entriesDeleteCmd(opts))
	cmd.AddCommand(entriesProgressCmd(opts))
	return cmd
}

func entriesListCmd(opts *rootOptions) *cobra.Command {
	var (
		from, to string
		open     bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range []string{from, to} {
				if d == "" {
					continue
				}
				if err := core.ValidateDate(d); err != nil {
					return err
				}
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmdContext(cmd)
			var entries []core.TimeEntry
			switch {
			case open:
				entries = a.repo.ListIncomplete(ctx)
			case from != "" || to != "":
				entries = a.repo.ListByDateRange(ctx, from, to)
			default:
				entries = a.repo.ListAll(ctx)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.ID,
					e.Date,
					truncate(e.Title, 40),
					e.Category,
					core.FormatDuration(e.Duration),
					progressLabel(e),
				})
			}
			renderTable(out, []string{"ID", "DATE", "TITLE", "CATEGORY", "DURATION", "PROGRESS"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date to include (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&open, "open", false, "only entries not yet completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func entriesAddCmd(opts *rootOptions) *cobra.Command {
	var (
		in       core.EntryInput
		duration string
		progress int
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Log a new entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			if duration != "" {
				minutes, err := core.ParseDuration(duration)
				if err != nil {
					return err
				}
				in.Duration = minutes
			}
			if cmd.Flags().Changed("progress") {
				in.Progress = &progress
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.mutator.Create(cmdContext(cmd), in)
			if err != nil {
				return err
			}
			if err := mutationError(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %s\n", res.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", core.FormatDate(timeNow()), "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "time spent, e.g. 1h30m or 90")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "category")
	cmd.Flags().StringVar(&in.Description, "description", "", "free-form notes")
	cmd.Flags().IntVar(&progress, "progress", 0, "completion percentage (0-100)")
	return cmd
}

func entriesDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := mutationError(a.mutator.Delete(cmdContext(cmd), args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", args[0])
			return nil
		},
	}
}

func entriesProgressCmd(opts *rootOptions) *cobra.Command {
	var completed bool

	cmd := &cobra.Command{
		Use:   "progress [id] [percent]",
		Short: "Set an entry's progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("invalid percent %q: must be a whole number", args[1])
			}
			if !cmd.Flags().Changed("completed") {
				completed = progress >= core.MaxProgress
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.mutator.SetProgress(cmdContext(cmd), args[0], progress, completed)
			if err != nil {
				return err
			}
			if err := mutationError(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s at %d%% (completed: %t)\n", args[0], progress, completed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "mark the task completed; defaults to percent >= 100")
	return cmd
}

func progressLabel(e core.TimeEntry) string {
	if e.Completed {
		return "done"
	}
	return fmt.Sprintf("%d%%", e.Progress)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
