package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roster-sync/core/loader"
	"roster-sync/core/logger"
	"roster-sync/core/middleware/auth"
	"roster-sync/core/middleware/rayid"
	"roster-sync/core/scheduler"
	featuresync "roster-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long: `Starts the HTTP server exposing the sync endpoints and, when server.schedule
is set, runs the reconciliation on that cron schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration and Logger
		a, err := loadApp()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := a.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 2. Build the sync service (Airtable, storage, journal)
		if err := a.buildService(); err != nil {
			logg.Fatal("Failed to initialize sync service", zap.Error(err))
		}
		svc := a.service

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(featuresync.NewFeature(svc))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth, with the health check left public
		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/health"}}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Scheduler
		var sched *scheduler.Scheduler
		if a.cfg.Server.HasSchedule() {
			sched = scheduler.New(logg, scheduler.DefaultJobTimeout)
			err := sched.RegisterJob("roster-sync", a.cfg.Server.Schedule, func(ctx context.Context) error {
				report, err := svc.Run(ctx, featuresync.Request{
					Trigger:   featuresync.TriggerSchedule,
					Confirmed: true,
				})
				if err != nil {
					return err
				}
				return report.Err()
			})
			if err != nil {
				logg.Fatal("Failed to register scheduled sync", zap.Error(err))
			}
			if err := sched.Start(); err != nil {
				logg.Fatal("Failed to start scheduler", zap.Error(err))
			}
		}
		app.Get("/health", healthHandler(a.journal, sched))

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if sched != nil {
			sched.Stop(ctx)
		}
		svc.Wait()
		logg.Info("Server stopped")
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
