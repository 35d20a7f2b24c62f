package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-diary/internal/store"
)

var errMigrateNeedsMySQL = errors.New("migrate requires STORE_DRIVER=mysql")

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the weather and diary tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != "mysql" {
				return errMigrateNeedsMySQL
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := store.OpenMySQL(cfg.Store.MySQL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(ctx, db); err != nil {
				return err
			}
			slog.Info("schema applied", "database", cfg.Store.MySQL.Database)
			return nil
		},
	}
}
