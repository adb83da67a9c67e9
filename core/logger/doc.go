// Package logger builds the zap logger shared by every command and feature.
//
// # Configuration
//
//	log.level   debug, info, warn, error (default info)
//	log.format  json or console (default json)
//
// The debug level switches to zap's development preset. Console output is
// colored and drops stack traces, which suits the CLI commands.
//
// # Scoped loggers
//
// WithRayID tags a logger with the request id stored by the rayid middleware,
// and WithRun tags it with a sync run id and trigger, so every line of one
// request or one run can be grepped together.
//
//	log, _ := logger.New(&cfg.Log)
//	l := logger.WithRun(log, report.RunID, report.Trigger)
//	l.Info("Sync run started")
package logger
