package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	apiURL     string
	store      string
	storePath  string
	debug      bool
	json       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "Manage an authkit session from the terminal",
		Long: `authctl signs in to an authkit API and keeps the resulting token in the
configured storage (a file under the user config directory by default).

Configuration is read from config.yml, a .env file and AUTHKIT_* environment
variables, e.g. AUTHKIT_SESSION_API_URL.

Examples:
  authctl login --email ada@example.com
  authctl oauth github
  authctl status
  authctl token
  authctl logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: search ./config.yml and the user config dir)")
	flags.StringVar(&opts.apiURL, "api-url", "", "auth API base URL (overrides session.api_url)")
	flags.StringVar(&opts.store, "store", "", "token storage backend: memory, file, sqlite or redis")
	flags.StringVar(&opts.storePath, "store-path", "", "file or SQLite path for token storage")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.json, "json", false, "print machine-readable JSON")

	cmd.AddCommand(
		newLoginCmd(opts),
		newSignupCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newTokenCmd(opts),
		newRefreshCmd(opts),
		newOAuthCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}
