package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbpostgres "skillsync/internal/database/postgres"
	"skillsync/internal/database/seeder"
	"skillsync/internal/infrastructure/cache"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default skill taxonomy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := (seeder.Runner{Seeders: seeder.Defaults(), Logger: logger}).Run(ctx, db); err != nil {
			logger.Error("seed failed", zap.Error(err))
			return err
		}

		// Cached matches were scored against the old taxonomy.
		rc := cache.NewRedis(cfg.Redis, logger)
		if rc.Available() {
			defer rc.Client().Close()
			n, err := rc.DeleteByPattern(ctx, "matches_*")
			if err != nil {
				logger.Warn("match cache invalidation failed", zap.Error(err))
			} else {
				logger.Info("match cache invalidated", zap.Int("keys", n))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
