package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/locker/internal/locker/app"
)

// NewRootCmd creates the root command for the locker CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locker",
		Short: "Locker - accounts and private items over HTTP",
		Long: `Locker serves user registration, bearer token login, password reset
and a per-user item collection. Configuration comes from the environment;
flags override it.`,
		SilenceUsage: true,
	}

	// Overrides for the matching environment variables
	cmd.PersistentFlags().String("env", "", "environment (dev, staging, prod); overrides ENV")
	cmd.PersistentFlags().String("log-level", "", "log level; overrides LOG_LEVEL")
	cmd.PersistentFlags().String("store", "", "store driver (sqlite, postgres, memory); overrides LOCKER_STORE")
	cmd.PersistentFlags().String("database-file", "", "sqlite file; overrides LOCKER_DATABASE_FILE")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewBootstrapCmd())

	return cmd
}

// loadConfig reads the environment then applies any flags the user set.
func loadConfig(flags *pflag.FlagSet) app.Config {
	cfg := app.LoadConfig()

	if env := stringFlag(flags, "env"); env != "" {
		cfg.Env = env
		// The bootstrap default follows ENV unless it was set explicitly.
		if os.Getenv("LOCKER_BOOTSTRAP_ENABLED") == "" {
			cfg.Bootstrap.Enabled = env == "dev"
		}
	}
	if v := stringFlag(flags, "log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := stringFlag(flags, "store"); v != "" {
		cfg.Store = v
	}
	if v := stringFlag(flags, "database-file"); v != "" {
		cfg.DatabaseFile = v
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		if port, err := flags.GetInt("port"); err == nil {
			cfg.Port = port
		}
	}

	return cfg
}

func stringFlag(flags *pflag.FlagSet, name string) string {
	if flags.Lookup(name) == nil || !flags.Changed(name) {
		return ""
	}
	v, _ := flags.GetString(name)
	return v
}
