package main

import (
	"fmt"
	"os"

	"github.com/bridgeclub/clubhouse/internal/server"
	"github.com/bridgeclub/clubhouse/internal/server/config"
	"github.com/spf13/cobra"
)

// Flags are parsed by the config package, so cobra only dispatches.
var rootCmd = &cobra.Command{
	Use:                "clubhouse",
	Short:              "Bridge club backend: accounts, groups, calendar, chat and shared files",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, err := server.NewApp(cfg)
		if err != nil {
			return err
		}

		app.Run(cmd.Context())
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:                "migrate",
	Short:              "Apply database migrations and exit",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return server.Migrate(cmd.Context(), cfg)
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func main() {
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
