package tasks

import (
	"context"
	"fmt"
)

// newRuleHitRetentionTask deletes rule hits older than
// database.rule_hit_retention.
func newRuleHitRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "rule_hit_retention")

	return func(ctx context.Context) error {
		cutoff := deps.Clock.Now().Add(-deps.Config.Database.RuleHitRetention)

		deleted, err := deps.Store.DeleteRuleHitsBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Rule hit cleanup failed", "error", err, "cutoff", cutoff)
			return fmt.Errorf("rule hit cleanup failed: %w", err)
		}

		log.InfoContext(ctx, "Rule hit cleanup completed", "deleted", deleted, "cutoff", cutoff)
		return nil
	}
}
