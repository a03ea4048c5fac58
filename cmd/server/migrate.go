package main

import (
	"errors"

	"github.com/jrsteele09/go-graph-mail/accounts/pgrepo"
	"github.com/jrsteele09/go-graph-mail/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply account store migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			databaseURL := config.New().GetDatabaseURL()
			if databaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if err := pgrepo.Migrate(databaseURL); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
