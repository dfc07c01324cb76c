package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	in, ok := parseIncoming(update)
	if !ok {
		log.WarnContext(ctx, "Start handler received update with nil message or sender")
		return
	}

	log.InfoContext(ctx, "Handling /start command", "chat_id", in.chatID, "user_id", in.userID)
	reply(ctx, h.deps.sender(b), log, in.chatID, withBotName(h.deps, h.deps.Config.Messages.Welcome))
}

// withBotName replaces the @botname placeholder with the bot's username.
func withBotName(deps HandlerDeps, text string) string {
	info := deps.Config.Telegram.BotInfo
	if info == nil || info.Username == "" {
		return text
	}
	return strings.ReplaceAll(text, "@botname", "@"+info.Username)
}
