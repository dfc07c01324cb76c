package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPastEventsCleanupTask creates the task that deletes events which ended
// more than retention_days ago, along with their RSVPs.
func newPastEventsCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "past_events_cleanup")

	return func(ctx context.Context) error {
		start := time.Now()
		retention := deps.Config.Events.RetentionDays

		deleted, err := deps.Service.CleanupPastEvents(ctx, retention)
		if err != nil {
			log.ErrorContext(ctx, "Past events cleanup failed", "error", err, "retention_days", retention)
			return fmt.Errorf("past events cleanup failed: %w", err)
		}

		log.InfoContext(ctx, "Past events cleanup completed",
			"deleted", deleted,
			"retention_days", retention,
			"duration", time.Since(start))
		return nil
	}
}
