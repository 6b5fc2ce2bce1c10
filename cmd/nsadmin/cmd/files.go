package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/model"
)

func newUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			parts := make([]api.FilePart, 0, len(args))
			for _, p := range args {
				f, err := os.Open(p)
				if err != nil {
					return err
				}
				defer f.Close()
				parts = append(parts, api.FilePart{Name: filepath.Base(p), Body: f})
			}
			files, err := mutate(ctx, a, action{
				name:    "uploads.create",
				success: "Files uploaded",
				failure: "Upload failed",
			}, func(ctx context.Context, parts []api.FilePart) ([]model.UploadedFile, error) {
				return a.client.Upload(ctx, parts...)
			}, parts)
			if err != nil {
				return err
			}
			printUploads(a, files)
			return nil
		}),
	}
}

func newUploadsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uploads",
		Short: "List uploaded media",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			// The media library is a convenience; a failed listing leaves it empty.
			files, err := a.client.ListUploads(ctx)
			if err != nil {
				a.log.Debug("list uploads", zap.Error(err))
				files = nil
			}
			printUploads(a, files)
			return nil
		}),
	}
}

func printUploads(a *app, files []model.UploadedFile) {
	if len(files) == 0 {
		fmt.Fprintln(a.out, mutedStyle.Render("No uploads."))
		return
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Filename, f.URL})
	}
	fmt.Fprintln(a.out, renderTable([]string{"File", "URL"}, rows))
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		output  string
		urlOnly bool
	)
	c := &cobra.Command{
		Use:   "export <resource>",
		Short: "Download the CSV export of inquiries or newsletter subscribers",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			res, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			if res.ExportPath == "" {
				return fmt.Errorf("%s has no export", res.Name)
			}
			if urlOnly {
				fmt.Fprintln(a.out, a.client.ExportURL(res.ExportPath))
				return nil
			}
			data, err := a.client.Download(ctx, res.ExportPath)
			if err != nil {
				return a.failed(err, "Export failed")
			}
			if output == "" || output == "-" {
				_, err = a.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			a.bus.Success(fmt.Sprintf("Exported %s to %s", res.Title, output))
			return nil
		}),
	}
	c.Flags().StringVarP(&output, "output", "o", "", "write the CSV to a file instead of stdout")
	c.Flags().BoolVar(&urlOnly, "url", false, "print the export link instead of downloading")
	return c
}
