// Package tasks implements scheduled tasks for nestbot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nestbot/internal/config"
	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/nest"
)

// Notifier delivers messages to users. *bot.Bot satisfies it.
type Notifier interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Service  *nest.Service
	Notifier Notifier
	Config   *config.Config
}
