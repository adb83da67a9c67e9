package cmd

import (
	"time"

	"roster-sync/core/journal"
	"roster-sync/core/scheduler"

	"github.com/gofiber/fiber/v2"
)

// jobStatus is the health view of one scheduled job.
type jobStatus struct {
	Name       string     `json:"name"`
	Cron       string     `json:"cron"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastResult string     `json:"last_result,omitempty"`
}

// healthHandler reports the journal state and, when a scheduler is running,
// the next and last execution of each job. A journal with missing columns is 503.
func healthHandler(j *journal.Journal, sched *scheduler.Scheduler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok", "journal": "disabled"}
		if sched != nil {
			status["schedule"] = scheduleStatus(sched)
		}
		if j != nil {
			if err := j.Verify(); err != nil {
				status["status"] = "degraded"
				status["journal"] = err.Error()
				return c.Status(fiber.StatusServiceUnavailable).JSON(status)
			}
			status["journal"] = "ok"
		}
		return c.JSON(status)
	}
}

func scheduleStatus(sched *scheduler.Scheduler) []jobStatus {
	jobs := sched.Jobs()
	out := make([]jobStatus, 0, len(jobs))
	for _, job := range jobs {
		st := jobStatus{Name: job.Name, Cron: job.Cron, LastResult: job.LastResult}
		if next, ok := sched.Next(job.Name); ok && !next.IsZero() {
			st.NextRun = &next
		}
		if !job.LastRun.IsZero() {
			last := job.LastRun
			st.LastRun = &last
		}
		out = append(out, st)
	}
	return out
}
