package sync

import (
	"errors"

	"roster-sync/core/journal"
	"roster-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/", h.HandleTrigger)
	group.Get("/last", h.HandleLast)
	group.Get("/runs", h.HandleRuns)
	group.Post("/runs/:id/retry", h.HandleRetry)
}

// HandleTrigger starts a sync run.
// Query parameters: dry_run=true plans without writing; wait=true blocks until
// the run finishes and returns its report, otherwise the run continues in the
// background and 202 is returned. A run with other parameters in flight is 409.
func (h *Handler) HandleTrigger(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	req := Request{
		Trigger:   TriggerHTTP,
		DryRun:    c.QueryBool("dry_run", false),
		Confirmed: true,
	}

	if !c.QueryBool("wait", false) {
		if err := h.service.Conflicts(req); err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		l.Info("Sync run requested", zap.Bool("dry_run", req.DryRun))
		h.service.Start(req)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "started",
		})
	}

	report, err := h.service.Run(c.UserContext(), req)
	if errors.Is(err, ErrRunInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Error("Sync run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"report": report,
		})
	}
	status := fiber.StatusOK
	if report.Err() != nil {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(report)
}

// HandleLast returns the report of the most recent run since process start.
func (h *Handler) HandleLast(c *fiber.Ctx) error {
	report := h.service.Last()
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no run yet",
		})
	}
	return c.JSON(report)
}

// HandleRuns lists journaled runs, newest first. Query parameter: limit (default 20).
func (h *Handler) HandleRuns(c *fiber.Ctx) error {
	runs, err := h.service.Runs(c.UserContext(), c.QueryInt("limit", 20))
	if errors.Is(err, ErrJournalDisabled) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing runs failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(runs)
}

// HandleRetry re-sends the failed chunks of a journaled run and returns the retry report.
func (h *Handler) HandleRetry(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	runID := c.Params("id")

	report, err := h.service.Retry(c.UserContext(), runID)
	switch {
	case errors.Is(err, ErrJournalDisabled), errors.Is(err, journal.ErrRunNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		l.Error("Retry failed", zap.String("retry_of", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"report": report,
		})
	}

	status := fiber.StatusOK
	if report.Err() != nil {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(report)
}
