package main

import (
	"encoding/json"
	"errors"

	"github.com/jrsteele09/go-graph-mail/auth"
	"github.com/jrsteele09/go-graph-mail/internal/config"
	"github.com/spf13/cobra"
)

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the login settings without starting the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := config.New()
			report := auth.NewValidator().CheckSettings(auth.Settings{
				ClientID:     c.GetClientID(),
				ClientSecret: c.GetClientSecret(),
				RedirectURI:  c.GetRedirectURI(),
				JWTSecret:    c.GetJWTSecret(),
				FrontendURL:  c.GetFrontendURL(),
				State:        c.GetOAuthState(),
				Scopes:       c.GetAuthorizeScopes(),
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Valid {
				return errors.New("configuration is not valid")
			}
			return nil
		},
	}
}
