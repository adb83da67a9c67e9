package cmd

import (
	"fmt"

	"roster-sync/core/airtable"
	"roster-sync/core/config"
	"roster-sync/core/database"
	"roster-sync/core/journal"
	"roster-sync/core/logger"
	"roster-sync/core/storage"
	featuresync "roster-sync/feature/sync"

	"go.uber.org/zap"
)

// app bundles what every command builds from the configuration.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	journal *journal.Journal
	service *featuresync.Service
}

// loadApp reads the configuration and creates the logger.
func loadApp() (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &app{cfg: cfg, logger: l}, nil
}

// openJournal connects to the database and migrates the journal tables.
// It leaves a.journal nil when the database is disabled.
func (a *app) openJournal() error {
	if !a.cfg.Database.Enabled {
		a.logger.Debug("Run journal disabled")
		return nil
	}

	db, err := database.Connect(a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	j := journal.New(db, a.logger)
	if err := j.Migrate(); err != nil {
		return err
	}
	a.journal = j
	a.logger.Info("Run journal ready", zap.String("driver", a.cfg.Database.Driver))
	return nil
}

// buildService wires the Airtable client, optional storage and journal into
// a sync service.
func (a *app) buildService() error {
	if err := a.cfg.RequireAirtable(); err != nil {
		return err
	}

	remote, err := airtable.NewClient(a.cfg.Airtable)
	if err != nil {
		return fmt.Errorf("failed to create airtable client: %w", err)
	}

	var store storage.Client
	if a.cfg.Storage.Enabled {
		store, err = storage.NewClient(a.cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	if err := a.openJournal(); err != nil {
		return err
	}
	// A typed nil would read as an enabled journal.
	var j featuresync.Journal
	if a.journal != nil {
		j = a.journal
	}

	svc, err := featuresync.NewService(featuresync.Options{
		Sync:    a.cfg.Sync,
		Roster:  a.cfg.Roster,
		Storage: a.cfg.Storage,
	}, remote, store, j, a.logger)
	if err != nil {
		return err
	}
	a.service = svc
	return nil
}
