package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler processes the /help command using injected dependencies.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	in, ok := parseIncoming(update)
	if !ok {
		log.WarnContext(ctx, "Help handler received update with nil message or sender")
		return
	}

	log.InfoContext(ctx, "Handling /help command", "chat_id", in.chatID, "user_id", in.userID)
	reply(ctx, h.deps.sender(b), log, in.chatID, withBotName(h.deps, h.deps.Config.Messages.Help))
}

// NewCitiesHandler returns a handler for the /cities command.
func NewCitiesHandler(deps HandlerDeps) bot.HandlerFunc {
	return citiesHandler{deps}.Handle
}

type citiesHandler struct {
	deps HandlerDeps
}

func (h citiesHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cities")

	in, ok := parseIncoming(update)
	if !ok {
		return
	}

	lines := make([]string, 0, len(h.deps.Service.Cities()))
	for _, city := range h.deps.Service.Cities() {
		lines = append(lines, "• "+city)
	}
	reply(ctx, h.deps.sender(b), log, in.chatID, h.deps.Config.Messages.CitiesHeader+strings.Join(lines, "\n"))
}
