package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes one command: how it matches and the middleware
// wrapped around it.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every slash command keyed by its name. Plain
// text is not registered here; NewChatHandler is installed as the bot's
// default handler instead.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(pattern string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) {
		handlers["/"+pattern] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  mw,
		}
	}

	command("start", NewStartHandler(deps))
	command("help", NewHelpHandler(deps))
	command("register", NewRegisterHandler(deps))
	command("logout", NewLogoutHandler(deps))
	command("stats", NewStatsHandler(deps), AdminOnly(deps))

	return handlers
}
