package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nestbot/internal/config"
	"github.com/edgard/nestbot/internal/nest"
)

// Sender is the subset of the Telegram client used to answer updates.
// *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Service *nest.Service
	// Sender overrides the bot that delivered the update, mainly for tests.
	Sender Sender
}

func (d HandlerDeps) sender(b *bot.Bot) Sender {
	if d.Sender != nil {
		return d.Sender
	}
	return b
}
