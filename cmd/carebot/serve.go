package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-co-op/gocron/v2"
	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/carebot/internal/auth"
	"github.com/edgard/carebot/internal/bot"
	"github.com/edgard/carebot/internal/bot/handlers"
	"github.com/edgard/carebot/internal/bot/tasks"
	"github.com/edgard/carebot/internal/config"
	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/database"
	"github.com/edgard/carebot/internal/logger"
	"github.com/edgard/carebot/internal/telegram"
	"github.com/edgard/carebot/internal/web"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat widget API, the Telegram bot and the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, *configPath)
		},
	}
}

func runServe(cmd *cobra.Command, configPath string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}
	if !cfg.HTTP.Enabled && !cfg.Telegram.Enabled {
		return errors.New("nothing to serve: enable http or telegram")
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path, log)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	log.Info("Responder ready", "rules", engine.Rules())

	sessions := conversation.NewManager(engine, conversation.Config{
		Welcome:     cfg.Widget.Welcome,
		TypingDelay: cfg.Widget.TypingDelay,
		Policy:      cfg.ReplyPolicy(),
		Logger:      log,
		OnReply:     bot.NewRuleHitRecorder(store, log),
	})

	var server *http.Server
	if cfg.HTTP.Enabled {
		if cfg.Auth.Secret == "" {
			log.Warn("auth.secret is empty, every widget visitor is anonymous")
		}
		server = &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: web.NewRouter(web.Deps{
				Logger:         log,
				Sessions:       sessions,
				Verifier:       auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, nil),
				Health:         store,
				AllowedOrigins: cfg.HTTP.AllowedOrigins,
			}),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}
	}

	var (
		tg    *tgbot.Bot
		relay *handlers.Relay
	)
	if cfg.Telegram.Enabled {
		relay = handlers.NewRelay(log, nil, handlers.DefaultTypingInterval)
		hDeps := handlers.HandlerDeps{
			Logger:    log,
			Config:    cfg,
			Store:     store,
			Sessions:  sessions,
			Directory: auth.NewDirectory(store, database.PlatformTelegram, log),
			Relay:     relay,
		}

		tg, err = telegram.NewTelegramBot(cfg.Telegram.Token, log,
			tgbot.WithMiddlewares(logger.Middleware(log)),
			tgbot.WithDefaultHandler(handlers.NewChatHandler(hDeps)),
		)
		if err != nil {
			return err
		}

		cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
		if err != nil {
			log.Error("Failed to get bot info", "error", err)
			return fmt.Errorf("failed to get bot info: %w", err)
		}
		log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

		if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
			return err
		}
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Sessions: sessions,
		Config:   cfg,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap, gocron.WithLogger(log.With("component", "gocron")))
	if err != nil {
		return err
	}

	app := bot.NewBot(log, cfg, sessions, server, tg, relay, sched)
	if err := app.Run(ctx); err != nil {
		log.Error("Bot stopped due to error", "error", err)
		return err
	}
	return nil
}
