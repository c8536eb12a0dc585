package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/carebot/internal/config"
	"github.com/edgard/carebot/internal/responder"
)

func newAskCmd(configPath *string) *cobra.Command {
	var (
		name     string
		showRule bool
	)

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Print the reply the configured rules give to a message",
		Long: `Resolve a message against the configured rules without starting any server.

Without --name the message is answered as an anonymous visitor.`,
		Example: `  carebot ask "Tôi muốn đặt lịch khám"
  carebot ask --name Lan --rule "cảm ơn bạn"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			engine, err := cfg.Engine()
			if err != nil {
				return err
			}

			authCtx := responder.Anonymous()
			if cmd.Flags().Changed("name") {
				authCtx = responder.Authenticated(name)
			}

			reply := engine.Resolve(strings.Join(args, " "), authCtx)
			out := cmd.OutOrStdout()
			if showRule {
				fmt.Fprintf(out, "[%s] ", reply.Rule)
			}
			fmt.Fprintln(out, reply.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Answer as a logged in user with this display name")
	cmd.Flags().BoolVar(&showRule, "rule", false, "Prefix the reply with the name of the matched rule")
	return cmd
}
