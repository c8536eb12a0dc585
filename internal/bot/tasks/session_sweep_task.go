package tasks

import (
	"context"
)

// newSessionSweepTask disposes conversation sessions that have been idle for
// longer than widget.idle_timeout. Sessions with a reply still pending are
// left alone.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_sweep")

	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		disposed := deps.Sessions.SweepIdle(deps.Config.Widget.IdleTimeout)
		log.DebugContext(ctx, "Session sweep completed", "disposed", disposed, "live", deps.Sessions.Len())
		return nil
	}
}
