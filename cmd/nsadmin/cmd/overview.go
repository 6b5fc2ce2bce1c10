package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/nav"
	"github.com/and161185/nullscape-admin/internal/resource"
)

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the site overview",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			sum, err := resource.FetchSummary(ctx, a.client)
			if err != nil {
				return a.failed(err, "Failed to load dashboard")
			}
			printTitle(a.out, "Overview")
			fmt.Fprintln(a.out, renderTable([]string{"Metric", "Value"}, [][]string{
				{"Services", strconv.Itoa(sum.TotalServices)},
				{"Blog posts", strconv.Itoa(sum.TotalBlogPosts)},
				{"Projects", strconv.Itoa(sum.TotalProjects)},
				{"Enquiries today", strconv.Itoa(sum.EnquiriesToday)},
			}))
			if len(sum.LatestInquiries) == 0 {
				return nil
			}
			inq, _ := resource.Lookup("inquiries")
			printTitle(a.out, "Latest inquiries")
			fmt.Fprintln(a.out, recordTable(inq, sum.LatestInquiries))
			return nil
		}),
	}
}

func newNavCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "Show the menu available to the signed-in account",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			items := nav.Visible(a.session)
			active, _ := nav.Active(items, a.router.Path())
			for _, g := range nav.Grouped(items) {
				printTitle(a.out, g.Name)
				for _, it := range g.Items {
					mark := " "
					if it.Href == active.Href {
						mark = "›"
					}
					fmt.Fprintf(a.out, "%s %-22s %s\n", mark, it.Name, mutedStyle.Render(it.Href))
				}
			}
			return nil
		}),
	}
}

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the collections nsadmin can manage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows [][]string
			for _, r := range resource.All() {
				var flags []string
				if r.AdminOnly {
					flags = append(flags, "admin")
				}
				if r.ReadOnly {
					flags = append(flags, "read-only")
				}
				if r.ExportPath != "" {
					flags = append(flags, "export")
				}
				rows = append(rows, []string{r.Name, r.Title, r.Path, strings.Join(flags, ",")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Title", "Path", "Flags"}, rows))
			return nil
		},
	}
}

func recordTable(res resource.Resource, recs []model.Record) string {
	headers := []string{"ID"}
	for _, c := range res.Columns {
		headers = append(headers, c.Header)
	}
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := []string{rec.ID()}
		for _, c := range res.Columns {
			row = append(row, rec.Field(c.Field))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows)
}
