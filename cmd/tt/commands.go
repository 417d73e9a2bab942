package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"time-ledger/internal/store"
	"time-ledger/internal/tracker"
	"time-ledger/internal/ui"

	"github.com/spf13/cobra"
)

type runE = func(cmd *cobra.Command, args []string) error

// parseGoal reads a goal such as "25m" or "1h30m". Empty means no goal.
func parseGoal(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("invalid goal %q: %w", s, err)
	}
	if d <= 0 || d > 24*time.Hour {
		return nil, fmt.Errorf("goal must be between 1s and 24h")
	}
	return tracker.Int64(int64(d / time.Second)), nil
}

// editTimes turns --from/--to into new timestamps. Each clock is read on the
// day of the instant it replaces, and an empty one leaves that instant as is.
// An end before the start is left for validation to reject.
func editTimes(e tracker.TimeEntry, from, to string, loc *time.Location) (start, end *int64, err error) {
	if from = strings.TrimSpace(from); from != "" {
		day := tracker.DateOf(e.StartTime, loc)
		ms, err := tracker.ClockOn(day, from, loc)
		if err != nil {
			return nil, nil, err
		}
		start = &ms
	}
	if to = strings.TrimSpace(to); to != "" {
		if e.EndTime == nil {
			return nil, nil, fmt.Errorf("stop the timer before editing its end")
		}
		day := tracker.DateOf(*e.EndTime, loc)
		ms, err := tracker.ClockOn(day, to, loc)
		if err != nil {
			return nil, nil, err
		}
		end = &ms
	}
	return start, end, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *app) printEntry(e tracker.TimeEntry) {
	now := tracker.Millis(a.store.Now())
	name := e.ClientID
	if c, err := a.resolveClient(e.ClientID); err == nil {
		name = c.Name
	}
	fmt.Fprintf(a.out, "%s  %s  %s  %s  %s\n", shortID(e.ID), e.Date, name, e.TaskName,
		tracker.FormatDuration(tracker.EffectiveDuration(e, now)))
	if g, ok := tracker.Goal(e, now); ok && e.IsActive() {
		if g.IsOvertime {
			fmt.Fprintf(a.out, "  overtime %s (%s)\n", tracker.FormatDuration(-g.Remaining), g.Severity)
		} else {
			fmt.Fprintf(a.out, "  %s left of %s (%s)\n", tracker.FormatDuration(g.Remaining), tracker.FormatDuration(g.Target), g.Severity)
		}
	}
}

// ---------- auth ----------

func newRegisterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register USERNAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}
			u, err := a.api.Register(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "registered %s, now run `tt login %s`\n", u.Username, u.Username)
			return nil
		},
	}
	cmd.Flags().String("password", "", "password (prompted when empty)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}
			token, err := a.api.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			a.settings.Set("token", token)
			a.settings.Set("server", a.api.BaseURL)
			if err := a.settings.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "logged in as %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("password", "", "password (prompted when empty)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			if a.settings.Token() != "" {
				if err := a.api.Logout(cmd.Context()); err != nil {
					fmt.Fprintf(a.out, "server logout failed: %v\n", err)
				}
			}
			a.settings.Set("token", "")
			if err := a.settings.Save(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "logged out")
			return nil
		},
	}
}

// ---------- clients ----------

func newClientsCmd(a *app, withStore func(runE) runE) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List clients, most recently used first",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for _, c := range a.store.ClientsByRecency() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", shortID(c.ID), c.Name, c.Color)
			}
			return w.Flush()
		}),
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a client",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")
			c, err := a.store.AddClient(cmd.Context(), strings.Join(args, " "), color)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added %s (%s)\n", c.Name, c.Color)
			return nil
		}),
	}
	add.Flags().String("color", "", "#rrggbb colour (derived from the name when empty)")

	rm := &cobra.Command{
		Use:   "rm CLIENT",
		Short: "Delete a client and all of its entries",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			c, err := a.resolveClient(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteClient(cmd.Context(), c.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", c.Name)
			return nil
		}),
	}

	cmd.AddCommand(add, rm)
	return cmd
}

// ---------- timer ----------

func newStartCmd(a *app, withStore func(runE) runE) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start TASK",
		Short: "Start a timer",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			if _, ok := a.store.Active(); ok {
				return fmt.Errorf("a timer is already running, stop it first")
			}
			clientRef, _ := cmd.Flags().GetString("client")
			c, err := a.clientFor(clientRef)
			if err != nil {
				return err
			}
			goalStr, _ := cmd.Flags().GetString("goal")
			goal, err := parseGoal(goalStr)
			if err != nil {
				return err
			}
			e, err := a.store.StartTimer(cmd.Context(), strings.Join(args, " "), c.ID, goal)
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, "started ")
			a.printEntry(e)
			return nil
		}),
	}
	cmd.Flags().StringP("client", "c", "", "client name or id (default: most recent)")
	cmd.Flags().StringP("goal", "g", "", "target duration, e.g. 25m")
	return cmd
}

func (a *app) pause(ctx context.Context) (tracker.TimeEntry, error)  { return a.store.PauseTimer(ctx) }
func (a *app) resume(ctx context.Context) (tracker.TimeEntry, error) { return a.store.ResumeTimer(ctx) }
func (a *app) stop(ctx context.Context) (tracker.TimeEntry, error)   { return a.store.StopTimer(ctx) }

func newTimerCmd(a *app, withStore func(runE) runE, use, short string, op func(context.Context) (tracker.TimeEntry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			e, err := op(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s ", e.State())
			a.printEntry(e)
			return nil
		}),
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active timer as the server sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			t, err := a.api.Timer(cmd.Context())
			if err != nil {
				return err
			}
			if t.Entry == nil {
				fmt.Fprintln(a.out, "no active timer")
				return nil
			}
			fmt.Fprintf(a.out, "%s  %s  %s\n", t.State, t.Entry.TaskName, t.Display)
			if t.Goal != nil {
				if t.Goal.IsOvertime {
					fmt.Fprintf(a.out, "overtime %s\n", tracker.FormatDuration(-t.Goal.Remaining))
				} else {
					fmt.Fprintf(a.out, "%s left (%s)\n", tracker.FormatDuration(t.Goal.Remaining), t.Goal.Severity)
				}
			}
			return nil
		},
	}
}

// ---------- entries ----------

func newAddCmd(a *app, withStore func(runE) runE) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add TASK",
		Short: "Record completed entries, e.g. tt add Design --from 09:00 --to 10:30 --from 13:00 --to 14:00",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			clientRef, _ := cmd.Flags().GetString("client")
			c, err := a.clientFor(clientRef)
			if err != nil {
				return err
			}
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = a.store.Now().In(a.location()).Format(tracker.DateLayout)
			}
			froms, _ := cmd.Flags().GetStringArray("from")
			tos, _ := cmd.Flags().GetStringArray("to")
			if len(froms) != len(tos) {
				return fmt.Errorf("got %d --from and %d --to, they come in pairs", len(froms), len(tos))
			}
			comment, _ := cmd.Flags().GetString("comment")

			batch := make([]store.ManualEntry, len(froms))
			for i := range froms {
				batch[i] = store.ManualEntry{
					TaskName: strings.Join(args, " "),
					ClientID: c.ID,
					Date:     date,
					From:     froms[i],
					To:       tos[i],
					Comment:  comment,
				}
			}

			var added []tracker.TimeEntry
			if len(batch) == 1 {
				e, err := a.store.AddManualEntry(cmd.Context(), batch[0])
				if err != nil {
					return err
				}
				added = append(added, e)
			} else if added, err = a.store.AddManualEntries(cmd.Context(), batch); err != nil {
				return err
			}
			for _, e := range added {
				fmt.Fprint(a.out, "added ")
				a.printEntry(e)
			}
			return nil
		}),
	}
	cmd.Flags().StringP("client", "c", "", "client name or id (default: most recent)")
	cmd.Flags().StringP("date", "d", "", "YYYY-MM-DD (default: today)")
	cmd.Flags().StringArray("from", nil, "start HH:MM, repeat for several entries")
	cmd.Flags().StringArray("to", nil, "end HH:MM, earlier than its --from means the next day")
	cmd.Flags().String("comment", "", "comment")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newEditCmd(a *app, withStore func(runE) runE) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit ENTRY",
		Short: "Edit an entry by id or id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			e, err := a.resolveEntry(args[0])
			if err != nil {
				return err
			}
			var edit store.EntryEdit
			flags := cmd.Flags()
			if flags.Changed("task") {
				v, _ := flags.GetString("task")
				edit.TaskName = &v
			}
			if flags.Changed("client") {
				v, _ := flags.GetString("client")
				c, err := a.resolveClient(v)
				if err != nil {
					return err
				}
				edit.ClientID = &c.ID
			}
			if flags.Changed("comment") {
				v, _ := flags.GetString("comment")
				edit.Comment = &v
			}
			if flags.Changed("goal") {
				v, _ := flags.GetString("goal")
				goal, err := parseGoal(v)
				if err != nil {
					return err
				}
				if goal == nil {
					goal = tracker.Int64(0)
				}
				edit.TargetDuration = goal
			}
			if flags.Changed("from") || flags.Changed("to") {
				from, _ := flags.GetString("from")
				to, _ := flags.GetString("to")
				start, end, err := editTimes(e, from, to, a.location())
				if err != nil {
					return err
				}
				edit.StartTime, edit.EndTime = start, end
			}

			updated, err := a.store.UpdateEntry(cmd.Context(), e.ID, edit)
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, "updated ")
			a.printEntry(updated)
			return nil
		}),
	}
	cmd.Flags().String("task", "", "task name")
	cmd.Flags().StringP("client", "c", "", "client name or id")
	cmd.Flags().String("comment", "", "comment")
	cmd.Flags().StringP("goal", "g", "", "target duration, empty clears it")
	cmd.Flags().String("from", "", "start HH:MM on the day the entry started")
	cmd.Flags().String("to", "", "end HH:MM on the day the entry ended")
	return cmd
}

func newRmCmd(a *app, withStore func(runE) runE) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ENTRY",
		Short: "Delete an entry by id or id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			e, err := a.resolveEntry(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteEntry(cmd.Context(), e.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s %s\n", shortID(e.ID), e.TaskName)
			return nil
		}),
	}
}

func newListCmd(a *app, withStore func(runE) runE) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent entries",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("limit")
			filterStr, _ := cmd.Flags().GetString("filter")
			filter, err := tracker.ParseDateFilter(filterStr)
			if err != nil {
				return err
			}
			now := a.store.Now().In(a.location())
			shown := 0
			for _, e := range a.store.Snapshot().Entries {
				if n > 0 && shown >= n {
					break
				}
				if !filter.Includes(e, now) {
					continue
				}
				a.printEntry(e)
				shown++
			}
			return nil
		}),
	}
	cmd.Flags().IntP("limit", "n", 20, "number of entries, 0 for all")
	cmd.Flags().StringP("filter", "f", string(tracker.FilterAll), "all, today, thisWeek, lastWeek or thisMonth")
	return cmd
}

// ---------- report ----------

func writeReport(w io.Writer, r tracker.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t\t%s\t%.1fh\n", r.Filter.Label(), tracker.FormatDuration(r.Total), tracker.Hours(r.Total))
	for _, g := range r.ClientGroups {
		fmt.Fprintf(tw, "%s\t\t%s\t%.1fh\n", g.ClientName, tracker.FormatDuration(g.TotalDuration), tracker.Hours(g.TotalDuration))
		for _, t := range g.Tasks {
			fmt.Fprintf(tw, "\t%s\t%s\t%s\n", t.TaskName, tracker.FormatDuration(t.TotalDuration), strconv.Itoa(t.EntryCount)+"x")
		}
	}
	if len(r.Daily) > 0 {
		fmt.Fprintln(tw)
		for _, d := range r.Daily {
			fmt.Fprintf(tw, "%s\t\t%.1fh\t\n", d.Date, d.Hours)
		}
	}
	return tw.Flush()
}

func newReportCmd(a *app, withStore func(runE) runE) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Totals by client and task",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			filterStr, _ := cmd.Flags().GetString("filter")
			filter, err := tracker.ParseDateFilter(filterStr)
			if err != nil {
				return err
			}
			return writeReport(a.out, a.store.Report(filter))
		}),
	}
	cmd.Flags().StringP("filter", "f", string(tracker.FilterThisWeek), "all, today, thisWeek, lastWeek or thisMonth")
	return cmd
}

// ---------- backups ----------

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a server-side backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			b, err := a.api.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "backup %d %s\n", b.ID, b.FileName)
			return nil
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			items, err := a.api.ListBackups(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range items {
				fmt.Fprintf(a.out, "%d  %s  %s  %d bytes\n", b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.FileName, b.Size)
			}
			return nil
		},
	}
	restore := &cobra.Command{
		Use:   "restore ID",
		Short: "Replace all clients and entries with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid backup id %q", args[0])
			}
			if err := a.open(cmd); err != nil {
				return err
			}
			if err := a.api.RestoreBackup(cmd.Context(), uint(id)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "restored backup %d\n", id)
			return nil
		},
	}
	cmd.AddCommand(list, restore)
	return cmd
}

// ---------- ui ----------

func newUICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			// the alt screen would be garbled by rollback messages
			if err := a.load(cmd.Context(), nil); err != nil {
				return err
			}
			goalStr, _ := cmd.Flags().GetString("goal")
			goal, err := parseGoal(goalStr)
			if err != nil {
				return err
			}
			return ui.Run(cmd.Context(), a.store, goal)
		},
	}
	cmd.Flags().StringP("goal", "g", "", "target duration for new timers, e.g. 25m")
	return cmd
}
