package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/locker/internal/locker/app"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM. Migrations are applied on
start and, when enabled, the default user is created.`,
		RunE: runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP port; overrides PORT")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig(cmd.Flags())
	ctx := cmd.Context()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Bootstrap.Enabled {
		created, password, err := application.Bootstrap(ctx)
		if err != nil {
			_ = application.Close()
			return fmt.Errorf("bootstrap: %w", err)
		}
		printBootstrap(cmd.OutOrStdout(), cfg.Bootstrap.Username, created, password)
	}

	return application.Run(ctx)
}

// printBootstrap is the only place a generated password is ever shown.
func printBootstrap(w io.Writer, username string, created bool, password string) {
	switch {
	case !created:
		fmt.Fprintf(w, "Default user %q already exists\n", username)
	case password != "":
		fmt.Fprintf(w, "Created default user %q with password: %s\n", username, password)
		fmt.Fprintln(w, "This password will not be shown again.")
	default:
		fmt.Fprintf(w, "Created default user %q\n", username)
	}
}
