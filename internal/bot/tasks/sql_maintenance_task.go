package tasks

import (
	"context"
	"fmt"
)

// newSQLMaintenanceTask runs VACUUM and ANALYZE on the database.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting SQL maintenance")
		start := deps.Clock.Now()

		err := deps.Store.RunSQLMaintenance(ctx)
		duration := deps.Clock.Since(start)
		if err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", duration)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", duration)
		return nil
	}
}
