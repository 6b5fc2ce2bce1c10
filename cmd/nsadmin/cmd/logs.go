package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/nullscape-admin/internal/migrate"
	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/resource"
)

const activityLimit = 20

func newActivityCmd(opts *rootOptions) *cobra.Command {
	var q resource.ListQuery
	c := &cobra.Command{
		Use:   "activity",
		Short: "Show the server activity log",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup("activity")
			if err != nil {
				return err
			}
			page, err := resource.For[model.ActivityLog](a.client, res).List(ctx, q)
			if err != nil {
				return a.failed(err, "Failed to load activity")
			}
			if len(page.Items) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("No activity yet."))
				return nil
			}
			rows := make([][]string, 0, len(page.Items))
			for _, e := range page.Items {
				who := "-"
				if e.User != nil {
					who = displayName(e.User)
				}
				rows = append(rows, []string{e.CreatedAt.Local().Format(time.DateTime), e.Action, e.Entity, e.EntityID, who})
			}
			fmt.Fprintln(a.out, renderTable([]string{"When", "Action", "Entity", "ID", "User"}, rows))
			return nil
		}),
	}
	c.Flags().IntVar(&q.Page, "page", 1, "page number")
	c.Flags().IntVar(&q.Limit, "limit", activityLimit, "entries per page")
	return c
}

func newJournalCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		prune time.Duration
	)
	c := &cobra.Command{
		Use:   "journal",
		Short: "Show the local journal of changes made from this machine",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if a.durable {
				v, err := migrate.Version(ctx, a.cfg.JournalDSN)
				if err != nil {
					return fmt.Errorf("journal: %w", err)
				}
				fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf("Journal schema version %d", v)))
			} else {
				fmt.Fprintln(a.out, mutedStyle.Render("The journal is kept in memory; set NULLSCAPE_JOURNAL_DSN to keep it between runs."))
			}
			if prune > 0 {
				n, err := a.journal.Prune(ctx, time.Now().Add(-prune))
				if err != nil {
					return fmt.Errorf("prune journal: %w", err)
				}
				a.bus.Info(fmt.Sprintf("Pruned %d journal entries", n))
			}
			entries, err := a.journal.Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("No journal entries."))
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				result := "ok"
				switch {
				case !e.OK:
					result = "failed"
				case e.Superseded:
					result = "superseded"
				}
				rows = append(rows, []string{
					e.FinishedAt.Local().Format(time.DateTime),
					e.Name,
					result,
					e.Duration().Round(time.Millisecond).String(),
					e.Message,
				})
			}
			fmt.Fprintln(a.out, renderTable([]string{"Finished", "Mutation", "Result", "Took", "Message"}, rows))
			return nil
		}),
	}
	c.Flags().IntVar(&limit, "limit", activityLimit, "entries to show")
	c.Flags().DurationVar(&prune, "prune", 0, "delete entries older than this first, e.g. 720h")
	return c
}
