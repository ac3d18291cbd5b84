package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"skillsync/internal/app"
	"skillsync/internal/domain/profile"
	"skillsync/internal/usecase"
)

var matchFlags struct {
	user     string
	role     string
	minScore int
	limit    int
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Compute matches for one profile and print them as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := uuid.Parse(matchFlags.user)
		if err != nil {
			return fmt.Errorf("--user must be a uuid: %w", err)
		}
		role, ok := profile.ParseRole(matchFlags.role)
		if !ok {
			return fmt.Errorf("--role must be student or startup")
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		c, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		var opts usecase.Options
		if cmd.Flags().Changed("min-score") {
			opts.MinScore = &matchFlags.minScore
		}
		if cmd.Flags().Changed("limit") {
			opts.Limit = &matchFlags.limit
		}

		results, err := c.Matching.FindMatches(ctx, userID, role, opts)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchFlags.user, "user", "", "profile id of the seeker")
	matchCmd.Flags().StringVar(&matchFlags.role, "role", "", "seeker role: student or startup")
	matchCmd.Flags().IntVar(&matchFlags.minScore, "min-score", 60, "minimum overall score")
	matchCmd.Flags().IntVar(&matchFlags.limit, "limit", 20, "maximum number of matches")
	_ = matchCmd.MarkFlagRequired("user")
	_ = matchCmd.MarkFlagRequired("role")
}
