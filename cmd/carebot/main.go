// Package main is the carebot command line: it serves the chat widget API and
// the Telegram bot, and offers offline helpers for rules and tokens.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "carebot",
		Short: "CareLink help desk chatbot",
		Long: `carebot answers patient questions with rule-based canned replies.

It serves the website chat widget over HTTP and WebSocket and, when enabled,
the same conversations over Telegram.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Failed to load .env file", "error", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to configuration file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newAskCmd(&configPath))
	root.AddCommand(newTokenCmd(&configPath))
	return root
}
