package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edgard/carebot/internal/auth"
	"github.com/edgard/carebot/internal/config"
)

func newTokenCmd(configPath *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a widget bearer token for a logged in user",
		Long: `Issue a signed token carrying a display name. The website passes it to
the widget API, which then answers with the logged in templates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			token, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, nil).Issue(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name embedded in the token")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
