package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// rootOptions are the persistent flags shared by every command. Set flags
// override the environment.
type rootOptions struct {
	envFile     string
	apiURL      string
	host        string
	store       string
	storeDir    string
	debug       bool
	autoRefresh bool
}

// reportedError marks an error the user has already seen as a toast.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "nsadmin",
		Short: "Nullscape admin client",
		Long: `Manage the Nullscape site from the terminal: content collections, CMS pages,
inquiries, newsletter exports, uploads and SEO settings.`,
		Version:       version + " (" + buildDate + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env", ".env", "dotenv file to load before the environment")
	pf.StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides NULLSCAPE_API_URL)")
	pf.StringVar(&opts.host, "host", "", "host used to infer the API URL (overrides NULLSCAPE_HOST)")
	pf.StringVar(&opts.store, "store", "", "cookie store: file, bolt, redis or memory")
	pf.StringVar(&opts.storeDir, "store-dir", "", "directory of the file and bolt cookie stores")
	pf.BoolVar(&opts.debug, "debug", false, "verbose development logging")
	pf.BoolVar(&opts.autoRefresh, "auto-refresh", false, "refresh the access token once on 401")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newRefreshCmd(opts),
		newWhoamiCmd(opts),
		newDashboardCmd(opts),
		newNavCmd(opts),
		newResourcesCmd(),
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newUploadCmd(opts),
		newUploadsCmd(opts),
		newExportCmd(opts),
		newActivityCmd(opts),
		newJournalCmd(opts),
		newSEOCmd(opts),
		newCMSCmd(opts),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	var rep *reportedError
	if err != nil && !errors.As(err, &rep) {
		fmt.Fprintln(stderr, errorStyle.Render("error:"), err)
	}
	return err
}

// withApp builds the application for one command invocation and tears it
// down afterwards.
func withApp(opts *rootOptions, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, args)
	}
}
