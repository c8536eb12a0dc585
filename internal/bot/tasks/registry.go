package tasks

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/carebot/internal/config"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context is
// cancelled when the scheduler shuts down.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used in the
// scheduler.tasks config section.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	tasks := map[string]ScheduledTaskFunc{
		config.TaskSQLMaintenance:   newSQLMaintenanceTask(deps),
		config.TaskSessionSweep:     newSessionSweepTask(deps),
		config.TaskRuleHitRetention: newRuleHitRetentionTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
