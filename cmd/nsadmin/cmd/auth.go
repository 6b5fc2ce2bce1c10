package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/session"
)

type credentials struct {
	email    string
	password string
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var creds credentials
	c := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the token pair in the cookie store",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if creds.email == "" || creds.password == "" {
				if err := promptCredentials(&creds.email, &creds.password); err != nil {
					return err
				}
			}
			a.router.Navigate(session.LoginPath)
			_, err := mutate(ctx, a, action{name: "auth.login", failure: "Login failed"},
				func(ctx context.Context, c credentials) (struct{}, error) {
					return struct{}{}, a.session.Login(ctx, c.email, c.password)
				}, creds)
			if err != nil {
				return err
			}
			a.router.Navigate("/dashboard")
			a.bus.Success("Signed in as " + displayName(a.session.User()))
			return nil
		}),
	}
	c.Flags().StringVarP(&creds.email, "email", "e", "", "account email (prompted when empty)")
	c.Flags().StringVarP(&creds.password, "password", "p", "", "account password (prompted when empty)")
	return c
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.session.Logout(ctx); err != nil {
				return a.failed(err, "Failed to sign out")
			}
			a.bus.Info("Signed out")
			return nil
		}),
	}
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trade the stored refresh token for a new token pair",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			_, err := mutate(ctx, a, action{
				name:    "auth.refresh",
				success: "Session refreshed",
				failure: "Session expired, sign in again",
			}, func(ctx context.Context, _ struct{}) (struct{}, error) {
				if err := a.client.Refresh(ctx); err != nil {
					return struct{}{}, err
				}
				return struct{}{}, a.session.RefreshUser(ctx)
			}, struct{}{})
			return err
		}),
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			u := a.session.User()
			fmt.Fprintf(a.out, "%s <%s>\n", displayName(u), u.Email)
			fmt.Fprintf(a.out, "roles: %s\n", strings.Join(u.Roles, ", "))
			return nil
		}),
	}
}

func displayName(u *model.User) string {
	switch {
	case u == nil:
		return "anonymous"
	case u.Name != "":
		return u.Name
	default:
		return u.Email
	}
}
