// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to configure
// SQLite or MySQL connections based on the application's configuration. The
// database only backs the optional run journal; reconciliation never reads it.
//
// # Connect
//
// Connect opens the driver selected in Config. SQLite is the default and is
// limited to one open connection; MySQL gets a pooled connection with DSN timeouts.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns report the columns of a table through the
// GORM migrator, which the journal health check uses to detect an incomplete schema.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Journal disabled", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "sync_runs", "id", "status")
package database
