// Package bot wires the carebot components together and manages their
// lifecycle: the widget HTTP server, the Telegram listener and the scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/carebot/internal/bot/handlers"
	"github.com/edgard/carebot/internal/config"
	"github.com/edgard/carebot/internal/conversation"
)

// Bot owns the long running components. The HTTP server, the Telegram client
// and the relay are optional and skipped when nil.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	sessions  *conversation.Manager
	server    *http.Server
	tgBot     *tgbot.Bot
	relay     *handlers.Relay
	scheduler *Scheduler
}

func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	sessions *conversation.Manager,
	server *http.Server,
	tgBot *tgbot.Bot,
	relay *handlers.Relay,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		sessions:  sessions,
		server:    server,
		tgBot:     tgBot,
		relay:     relay,
		scheduler: scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. Live sessions are disposed before it returns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	if b.server != nil {
		ln, err := net.Listen("tcp", b.server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", b.server.Addr, err)
		}
		b.logger.Info("HTTP server listening", "addr", ln.Addr().String())

		g.Go(func() error {
			if err := b.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), b.cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := b.server.Shutdown(shutdownCtx); err != nil {
				b.logger.Error("HTTP server shutdown failed", "error", err)
			}
			b.logger.Info("HTTP server stopped")
			return nil
		})
	}

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped")

			if gCtx.Err() == nil {
				return errors.New("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running")
	err := g.Wait()

	closed := b.sessions.Close()
	if b.relay != nil {
		b.relay.Wait()
	}
	b.logger.Info("Conversation sessions closed", "count", closed)

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
