package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/pkce"
	"github.com/kbukum/authkit/session"
	"github.com/kbukum/authkit/token"
	"github.com/kbukum/authkit/version"
)

var errNotSignedIn = errors.New("not signed in")

// browser opens authorization URLs unless --no-browser is set.
var browser pkce.Navigator = pkce.BrowserNavigator{}

func withApp(cmd *cobra.Command, opts *rootOptions, ao appOptions, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, opts, ao)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))
	return fn(ctx, a)
}

func printStatus(cmd *cobra.Command, opts *rootOptions, st session.AuthState) error {
	if opts.json {
		return writeJSON(cmd.OutOrStdout(), newStatusView(st))
	}
	renderStatus(cmd.OutOrStdout(), st)
	return nil
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var (
		creds         session.Credentials
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password. Missing values are prompted for when
stdin is a terminal.

Examples:
  authctl login --email ada@example.com
  echo "$PASSWORD" | authctl login --email ada@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				creds.Password = strings.TrimRight(line, "\r\n")
			}
			if err := promptCredentials(&creds); err != nil {
				return err
			}

			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				resp := a.ctrl.Login(ctx, creds)
				if !resp.Success {
					return fmt.Errorf("login failed: %s", resp.Error)
				}
				return printStatus(cmd, opts, a.ctrl.State())
			})
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().StringVar(&creds.TenantID, "tenant", "", "tenant to sign in to")
	return cmd
}

func newSignupCmd(opts *rootOptions) *cobra.Command {
	var form session.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := promptSignup(&form); err != nil {
				return err
			}
			if err := form.Validate(); err != nil {
				return err
			}

			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				resp := a.ctrl.Signup(ctx, form.SignupData())
				if !resp.Success {
					return fmt.Errorf("signup failed: %s", resp.Error)
				}
				return printStatus(cmd, opts, a.ctrl.State())
			})
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "password again")
	cmd.Flags().StringVar(&form.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&form.TenantID, "tenant", "", "tenant to join")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				a.ctrl.Logout(ctx)
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), newStatusView(a.ctrl.State()))
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Signed out."))
				return nil
			})
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, appOptions{}, func(_ context.Context, a *app) error {
				return printStatus(cmd, opts, a.ctrl.State())
			})
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the access token for use in scripts",
		Long: `Print the stored access token. Fails when there is no token or it expires
within the next minute.

Example:
  curl -H "Authorization: Bearer $(authctl token)" https://api.example.com/me`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, appOptions{}, func(_ context.Context, a *app) error {
				tok, ok := a.ctrl.GetToken()
				if !ok {
					return errNotSignedIn
				}
				if token.IsExpired(tok) {
					return apperrors.TokenExpired()
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			})
		},
	}
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Check the stored token and clear it if it has expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if !a.ctrl.RefreshToken(ctx) {
					return fmt.Errorf("%w: session expired", errNotSignedIn)
				}
				return printStatus(cmd, opts, a.ctrl.State())
			})
		},
	}
}

func newOAuthCmd(opts *rootOptions) *cobra.Command {
	var (
		noBrowser  bool
		port       int
		timeout    time.Duration
		returnPath string
	)
	cmd := &cobra.Command{
		Use:       "oauth <provider>",
		Short:     "Sign in through an OAuth provider",
		Long:      "Sign in through google, github or okta. A local listener receives the redirect.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(pkce.ProviderGoogle), string(pkce.ProviderGitHub), string(pkce.ProviderOkta)},
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := pkce.ParseProvider(args[0])
			if err != nil {
				return err
			}

			nav := browser
			if noBrowser {
				nav = pkce.NavigatorFunc(func(_ context.Context, url string) error {
					fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL to continue:\n  %s\n", url)
					return nil
				})
			}
			ao := appOptions{oauth: true, navigator: nav, callbackPort: port, returnPath: returnPath}

			return withApp(cmd, opts, ao, func(ctx context.Context, a *app) error {
				if _, err := a.ctrl.LoginWithOAuth(ctx, provider); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Waiting for %s sign-in...\n", provider)

				waitCtx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				res, err := a.callback.Await(waitCtx)
				if err != nil {
					return fmt.Errorf("no callback received: %w", err)
				}
				if !res.OK() {
					return apperrors.OAuth(string(provider), res.Error)
				}

				// The callback stored the token; a fresh controller picks it up.
				if err := a.hydrate(ctx); err != nil {
					return err
				}
				return printStatus(cmd, opts, a.ctrl.State())
			})
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the URL instead of opening a browser")
	cmd.Flags().IntVar(&port, "port", 0, "callback listener port (default: callback.port or a free port)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the callback")
	cmd.Flags().StringVar(&returnPath, "return-path", "/", "return path recorded in the flow state")
	return cmd
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the authctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "authctl "+info.String())
			return nil
		},
	}
}
