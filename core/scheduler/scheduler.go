package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultJobTimeout bounds a single job execution.
const DefaultJobTimeout = 30 * time.Minute

// Scheduler runs registered jobs on cron expressions.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]*Job
	logger  *zap.Logger
	timeout time.Duration
	mu      sync.Mutex
	running bool
}

// Job is a scheduled task and its last outcome.
type Job struct {
	Name       string
	Cron       string
	Handler    func(context.Context) error `json:"-"`
	EntryID    cron.EntryID               `json:"-"`
	LastRun    time.Time
	LastResult string
}

// New creates a scheduler using standard five-field cron expressions.
// Overlapping executions of the same job are skipped.
func New(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	logger = logger.Named("scheduler")

	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		jobs:    make(map[string]*Job),
		logger:  logger,
		timeout: timeout,
	}
}

// RegisterJob adds a job. The expression is validated immediately.
func (s *Scheduler) RegisterJob(name, cronExpr string, handler func(context.Context) error) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression for job %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	s.jobs[name] = &Job{Name: name, Cron: cronExpr, Handler: handler}
	return nil
}

// Start schedules every registered job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	for name, job := range s.jobs {
		jobRef := job
		entryID, err := s.cron.AddFunc(job.Cron, func() {
			s.runJob(jobRef)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", name, err)
		}
		job.EntryID = entryID
		s.logger.Info("Scheduled job", zap.String("name", name), zap.String("cron", job.Cron))
	}

	s.cron.Start()
	s.running = true
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
}

// Jobs returns a snapshot of registered jobs sorted by name.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Next returns the next activation time of a started job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok || job.EntryID == 0 {
		return time.Time{}, false
	}
	return s.cron.Entry(job.EntryID).Next, true
}

func (s *Scheduler) runJob(job *Job) {
	l := s.logger.With(zap.String("name", job.Name))
	l.Info("Running job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	err := job.Handler(ctx)

	s.mu.Lock()
	job.LastRun = started
	if err != nil {
		job.LastResult = fmt.Sprintf("failed: %v", err)
	} else {
		job.LastResult = "success"
	}
	s.mu.Unlock()

	if err != nil {
		l.Error("Job failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return
	}
	l.Info("Job completed", zap.Duration("duration", time.Since(started)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
