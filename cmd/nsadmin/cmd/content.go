package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/resource"
	"github.com/and161185/nullscape-admin/internal/validate"
)

func newSEOCmd(opts *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "seo",
		Short: "Show or change robots.txt and the sitemap links",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored robots.txt and public SEO links",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			if _, err := a.lookup("seo"); err != nil {
				return err
			}
			seo := resource.NewSEO(a.client, a.client.BaseURL())
			printTitle(a.out, "robots.txt")
			fmt.Fprintln(a.out, seo.RobotsTxt(ctx))
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, "robots:  "+seo.RobotsURL())
			fmt.Fprintln(a.out, "sitemap: "+seo.SitemapURL())
			return nil
		}),
	}

	var robotsFile string
	save := &cobra.Command{
		Use:   "save",
		Short: "Replace robots.txt",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			if _, err := a.lookup("seo"); err != nil {
				return err
			}
			text, err := readText(a.in, robotsFile)
			if err != nil {
				return err
			}
			seo := resource.NewSEO(a.client, a.client.BaseURL())
			current, err := seo.Load(ctx)
			if err != nil {
				return a.failed(err, "Failed to load SEO settings")
			}
			_, err = mutate(ctx, a, action{
				name:    "seo.save",
				success: "SEO settings saved",
				failure: "Failed to save SEO settings",
			}, func(ctx context.Context, robots string) (model.Record, error) {
				return seo.Save(ctx, current, robots)
			}, text)
			return err
		}),
	}
	save.Flags().StringVarP(&robotsFile, "robots", "r", "-", "robots.txt source file, - for stdin")

	c.AddCommand(show, save)
	return c
}

func newCMSCmd(opts *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "cms",
		Short: "Inspect and edit CMS page sections",
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the sections of a CMS page as editable JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup("cms")
			if err != nil {
				return err
			}
			page, err := resource.For[model.CMSPage](a.client, res).Get(ctx, args[0])
			if err != nil {
				return a.failed(err, "Failed to load page")
			}
			text, err := validate.FormatSections(page.Sections)
			if err != nil {
				return err
			}
			printTitle(a.out, page.Page)
			fmt.Fprintln(a.out, text)
			return nil
		}),
	}

	var sectionsFile string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the sections of a CMS page",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup("cms")
			if err != nil {
				return err
			}
			text, err := readText(a.in, sectionsFile)
			if err != nil {
				return err
			}
			sections, err := validate.ParseSections(text)
			if err != nil {
				return a.failed(err, "")
			}
			coll := resource.For[model.Record](a.client, res)
			current, err := coll.Get(ctx, args[0])
			if err != nil {
				return a.failed(err, "Failed to load page")
			}
			current["sections"] = sections
			_, err = mutate(ctx, a, action{
				name:    "cms.update",
				success: "Page updated",
				failure: "Failed to update page",
			}, func(ctx context.Context, rec model.Record) (model.Record, error) {
				return coll.Update(ctx, args[0], rec)
			}, current)
			return err
		}),
	}
	edit.Flags().StringVarP(&sectionsFile, "sections", "s", "-", "sections JSON file, - for stdin")

	c.AddCommand(show, edit)
	return c
}

func readText(in io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(in)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}
