// Package bot implements the core bot functionality, lifecycle management,
// and component orchestration for nestbot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/nestbot/internal/session"
)

// Listener receives Telegram updates until its context is cancelled.
// *tgbot.Bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// sessionBuffer is how many session changes the watcher may lag behind.
const sessionBuffer = 64

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	listener  Listener
	scheduler *Scheduler
	sessions  *session.Registry
}

// NewBot creates the orchestrator for the Telegram listener, the task
// scheduler and the session watcher.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler, sessions *session.Registry) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		listener:  listener,
		scheduler: scheduler,
		sessions:  sessions,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")
		b.listener.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(gCtx); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	changes, unsubscribe := b.sessions.Subscribe(sessionBuffer)
	g.Go(func() error {
		defer unsubscribe()
		b.watchSessions(gCtx, changes)
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

// watchSessions logs session transitions until ctx is done.
func (b *Bot) watchSessions(ctx context.Context, changes <-chan session.Change) {
	log := b.logger.With("watcher", "sessions")
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			log.InfoContext(ctx, "Session changed",
				"user_id", c.UserID,
				"from", c.From.String(),
				"to", c.To.String())
		}
	}
}
