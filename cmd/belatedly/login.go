package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/belatedly/internal/app"
	"github.com/pkordes/belatedly/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the calendar provider and save the token",
	Long: `Run the OAuth authorization code flow against the configured provider.

Open the printed URL in a browser and approve access. The token is written
to TOKEN_FILE and refreshed automatically by the server and the other
commands.

Example:
  belatedly login
  belatedly login --addr 127.0.0.1:8765`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := mustConfig()
		if cfg.TokenFile == "" {
			return errors.New("TOKEN_FILE must be set to save the token")
		}
		addr, _ := cmd.Flags().GetString("addr")

		oc, err := app.OAuthConfig(cfg)
		if err != nil {
			return err
		}
		flow := auth.Interactive{
			Config: oc,
			Addr:   addr,
			Open: func(authURL string) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in:\n\n  %s\n\n", authURL)
				return err
			},
		}
		tok, err := flow.Token(cmd.Context())
		if err != nil {
			return err
		}
		if err := auth.SaveToken(cfg.TokenFile, tok); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in. Token saved to %s\n", cfg.TokenFile)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("addr", "", "loopback address for the redirect (default 127.0.0.1:6789)")
}
