// Package retention enforces the evidence retention policy.
//
// A Pruner deletes relay records older than RetentionDays and, when
// MaxRecords is set, the oldest records beyond that count. A Scheduler runs
// the pruner on a standard cron expression.
//
//	pruner := retention.NewPruner(store, retention.ConfigFrom(cfg.Evidence.Retention))
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
//
// Prune can also be called directly, as the "evidence prune" command does.
package retention
