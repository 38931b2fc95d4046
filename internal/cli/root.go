// Package cli implements the libraryhub command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/libraryhub/internal/config"
)

// RootOptions holds what every command needs.
type RootOptions struct {
	Version    string
	LoadConfig func() *config.Config
}

// NewRootCommand creates the root command. Running it without a subcommand starts the server.
func NewRootCommand(version string, loadConfig func() *config.Config) *cobra.Command {
	opts := &RootOptions{Version: version, LoadConfig: loadConfig}

	cmd := &cobra.Command{
		Use:           "libraryhub",
		Short:         "LibraryHub - a small lending library",
		Long:          "Browse the catalog, borrow and return books, and manage loans from the browser.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
