// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure and its validation.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key protecting every route,
// and an optional cron schedule for unattended sync runs.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by the start command to decide whether to run the scheduler.
package server
