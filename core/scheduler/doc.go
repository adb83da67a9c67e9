// Package scheduler runs sync jobs on cron expressions.
//
// It wraps robfig/cron with zap logging, a per-job timeout, and skip-if-running
// semantics so a slow run is never overlapped by the next tick. Expressions use
// the standard five fields or descriptors such as "@daily" and "@every 6h".
//
// # Usage
//
//	s := scheduler.New(log, 30*time.Minute)
//	_ = s.RegisterJob("roster-sync", cfg.Server.Schedule, func(ctx context.Context) error {
//	    _, err := svc.Run(ctx, sync.Request{Trigger: "schedule"})
//	    return err
//	})
//	_ = s.Start()
//	defer s.Stop(ctx)
package scheduler
