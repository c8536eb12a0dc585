package handlers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/carebot/internal/conversation"
	"github.com/edgard/carebot/internal/logger"
)

// DefaultTypingInterval re-sends the typing action before Telegram's five
// second indicator expires.
const DefaultTypingInterval = 4 * time.Second

// Sender is the part of the Telegram client the relay uses. *bot.Bot
// satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
}

// Relay forwards bot replies of a session into its Telegram chat. It shows
// the typing indicator from the moment a user message lands until the reply
// is delivered.
type Relay struct {
	logger   *slog.Logger
	clock    clockwork.Clock
	interval time.Duration
	wg       sync.WaitGroup
}

func NewRelay(log *slog.Logger, clock clockwork.Clock, typingInterval time.Duration) *Relay {
	if log == nil {
		log = logger.Discard()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if typingInterval <= 0 {
		typingInterval = DefaultTypingInterval
	}
	return &Relay{
		logger:   log.With("component", "telegram_relay"),
		clock:    clock,
		interval: typingInterval,
	}
}

// Attach starts forwarding messages appended to s from now on. The forwarder
// exits when the session is disposed.
func (r *Relay) Attach(ctx context.Context, sender Sender, chatID int64, s *conversation.Session) {
	updates, unsubscribe := s.Subscribe()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer unsubscribe()
		r.forward(ctx, sender, chatID, s, updates)
	}()
	r.logger.DebugContext(ctx, "Relay attached", "chat_id", chatID, "session_id", s.ID())
}

// Wait blocks until every forwarder has exited.
func (r *Relay) Wait() {
	r.wg.Wait()
}

func (r *Relay) forward(ctx context.Context, sender Sender, chatID int64, s *conversation.Session, updates <-chan conversation.Message) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-updates:
			if !ok {
				r.logger.DebugContext(ctx, "Relay detached", "chat_id", chatID, "session_id", s.ID())
				return
			}
			switch msg.Author {
			case conversation.AuthorUser:
				r.typing(ctx, sender, chatID)
			case conversation.AuthorBot:
				if _, err := sender.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: msg.Text}); err != nil {
					r.logger.ErrorContext(ctx, "Failed to forward reply", "error", err, "chat_id", chatID)
				}
			}

		case <-ticker.Chan():
			if s.Pending() > 0 {
				r.typing(ctx, sender, chatID)
			}
		}
	}
}

func (r *Relay) typing(ctx context.Context, sender Sender, chatID int64) {
	_, err := sender.SendChatAction(ctx, &tgbot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})
	if err != nil && ctx.Err() == nil {
		r.logger.DebugContext(ctx, "Typing action failed", "error", err, "chat_id", chatID)
	}
}
