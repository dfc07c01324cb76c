// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"errors"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nestbot/internal/nest"
)

// RequireSession creates a middleware that lets an update through only when
// its sender has an authenticated session. Users seen for the first time
// since start-up are restored from the store. Everyone else is told how to
// sign in and the update stops here.
func RequireSession(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, bot, update)
				return
			}

			userID := update.Message.From.ID
			chatID := update.Message.Chat.ID
			log := deps.Logger.With("middleware", "RequireSession")

			_, err := deps.Service.Authenticate(ctx, userID)
			if err == nil {
				next(ctx, bot, update)
				return
			}

			if errors.Is(err, nest.ErrNotRegistered) {
				log.InfoContext(ctx, "Rejected update without session", "user_id", userID, "chat_id", chatID)
			} else {
				log.ErrorContext(ctx, "Failed to authenticate user", "error", err, "user_id", userID)
			}
			text, _ := errorText(err, deps.Config.Messages)
			reply(ctx, deps.sender(bot), log, chatID, text)
		}
	}
}
