// Package config provides configuration management for roster-sync.
//
// It utilizes Viper for loading configuration from environment variables, an
// optional .env file, and an optional config.yaml. Defaults come from the
// `default` struct tags of each section, so every key is also reachable from the
// environment (airtable.api_key -> AIRTABLE_API_KEY).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP port, API key, cron schedule
//   - Airtable: API key, base, table, page size, typecast
//   - Sync: natural key field, chunk size, call timeout, identity fields
//   - Roster: export location, sheet layout, column mapping (config.yaml only)
//   - Storage: S3/MinIO credentials, bucket, archive retention
//   - Database: SQLite or MySQL for the run journal
//   - Log: Logging level and format
//
// LoadConfig validates the structural settings. Credentials are checked by the
// commands that need them through RequireAirtable.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.KeyField)
package config
