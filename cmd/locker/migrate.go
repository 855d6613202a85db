package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/locker/internal/locker/app"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations for the configured store and exit.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig(cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slogx.New(slogx.Config{
		Service: "locker",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  cmd.ErrOrStderr(),
	})

	cmd.Println("Running migrations...")
	db, err := app.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
