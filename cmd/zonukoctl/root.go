package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"zonuko/internal/config"
	"zonuko/internal/database"
	"zonuko/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "zonukoctl",
	Short:         "Operate a Zonuko installation",
	Long:          "zonukoctl runs migrations, imports and exports the project catalog, reconciles child stages and issues child tokens.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db-type", "", "Database type: sqlite, postgres or mysql (overrides DB_TYPE)")
	rootCmd.PersistentFlags().String("db-path", "", "SQLite database file (overrides DB_PATH)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(tokenCmd)
}

// env bundles what every subcommand needs.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
	e.log.Sync()
}

// loadConfig applies flag overrides on top of the environment.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("db-type"); v != "" {
		cfg.DatabaseType = v
	}
	if v, _ := cmd.Flags().GetString("db-path"); v != "" {
		cfg.DatabasePath = v
	}
	return cfg
}

// openEnv opens the database and brings the schema up to date.
func openEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfg := loadConfig(cmd)
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}
