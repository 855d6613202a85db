package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/locker/internal/locker/app"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// NewBootstrapCmd creates the bootstrap subcommand.
func NewBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the default user if it does not exist",
		Long: `Create the default user from LOCKER_BOOTSTRAP_USERNAME and
LOCKER_BOOTSTRAP_EMAIL. When LOCKER_BOOTSTRAP_PASSWORD is empty a password is
generated and printed once. --prompt-password reads it from stdin instead.`,
		RunE: runBootstrap,
	}
	cmd.Flags().String("username", "", "default username; overrides LOCKER_BOOTSTRAP_USERNAME")
	cmd.Flags().String("email", "", "default email; overrides LOCKER_BOOTSTRAP_EMAIL")
	cmd.Flags().Bool("prompt-password", false, "read the password from stdin; overrides LOCKER_BOOTSTRAP_PASSWORD")
	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig(cmd.Flags())
	cfg.Bootstrap.Enabled = true
	if v := stringFlag(cmd.Flags(), "username"); v != "" {
		cfg.Bootstrap.Username = v
	}
	if v := stringFlag(cmd.Flags(), "email"); v != "" {
		cfg.Bootstrap.Email = v
	}
	if prompt, _ := cmd.Flags().GetBool("prompt-password"); prompt {
		pw, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if pw == "" {
			return errors.New("bootstrap: password must not be empty")
		}
		cfg.Bootstrap.Password = pw
	}

	logger := slogx.New(slogx.Config{
		Service: "locker",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  cmd.ErrOrStderr(),
	})

	application, err := app.New(cmd.Context(), cfg, app.WithLogger(logger), app.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	defer func() { _ = application.Close() }()

	created, password, err := application.Bootstrap(cmd.Context())
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	printBootstrap(cmd.OutOrStdout(), cfg.Bootstrap.Username, created, password)
	return nil
}
