package tasks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/nestbot/internal/nest"
)

// maxConcurrentSends bounds parallel reminder deliveries.
const maxConcurrentSends = 4

// newEventRemindersTask creates the task that messages every user going to
// an event starting reminder_days from today.
func newEventRemindersTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "event_reminders")

	return func(ctx context.Context) error {
		start := time.Now()
		today := deps.Service.Today()
		day := today.AddDays(deps.Config.Events.ReminderDays)

		reminders, err := deps.Service.DueReminders(ctx, day)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load due reminders", "error", err, "day", day.Display())
			return fmt.Errorf("failed to load reminders: %w", err)
		}
		if len(reminders) == 0 {
			log.InfoContext(ctx, "No reminders due", "day", day.Display())
			return nil
		}

		var sent, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrentSends)
		for _, r := range reminders {
			text := nest.FormatReminder(deps.Config.Messages.ReminderFmt, r.Event, today)
			for _, userID := range r.UserIDs {
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					_, err := deps.Notifier.SendMessage(gctx, &bot.SendMessageParams{ChatID: userID, Text: text})
					if err != nil {
						failed.Add(1)
						log.WarnContext(gctx, "Failed to send reminder", "error", err, "user_id", userID, "event_id", r.Event.ID)
						return nil
					}
					sent.Add(1)
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("reminders interrupted: %w", err)
		}

		log.InfoContext(ctx, "Reminders sent",
			"events", len(reminders),
			"sent", sent.Load(),
			"failed", failed.Load(),
			"duration", time.Since(start))
		if n := failed.Load(); n > 0 {
			return fmt.Errorf("failed to deliver %d of %d reminders", n, n+sent.Load())
		}
		return nil
	}
}
