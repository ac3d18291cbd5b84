package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillsync/internal/database/migration"
	dbpostgres "skillsync/internal/database/postgres"
	"skillsync/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := migration.Runner{FS: migrations.FS, Logger: logger}.Run(ctx, db.SQLDB())
		if err != nil {
			logger.Error("migration failed", zap.Error(err))
			return err
		}
		logger.Info("migrations complete", zap.Int("applied", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
