package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/oakpoint-health/clinic-ops/pkg/logging"
)

// ErrUnknownJob is returned by RunOnce when no job matches the name.
var ErrUnknownJob = errors.New("reminders: unknown job")

// Job is a daily trigger: a named scan run at a fixed local time.
type Job struct {
	Name string
	At   TimeOfDay
	Run  func(ctx context.Context, asOf time.Time) (int, error)
}

// Worker fires each job once per day at its configured wall-clock time
// in the clinic timezone. A failed run is logged and the job keeps its
// place in the schedule; nothing here is fatal to the process.
type Worker struct {
	jobs   []Job
	loc    *time.Location
	logger *logging.Logger
	now    func() time.Time
}

// NewWorker creates a daily trigger worker.
func NewWorker(loc *time.Location, logger *logging.Logger, jobs ...Job) *Worker {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{jobs: jobs, loc: loc, logger: logger, now: time.Now}
}

// WithClock overrides the time source for tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	if now != nil {
		w.now = now
	}
	return w
}

// Start launches one goroutine per job. Blocks until the context is
// cancelled.
func (w *Worker) Start(ctx context.Context) {
	for _, job := range w.jobs {
		w.logger.Info("reminder trigger scheduled", "job", job.Name, "at", job.At.String(), "tz", w.loc.String())
		go w.runLoop(ctx, job)
	}
	<-ctx.Done()
	w.logger.Info("reminder worker shutting down")
}

func (w *Worker) runLoop(ctx context.Context, job Job) {
	for {
		next := job.At.Next(w.now(), w.loc)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			w.runJob(ctx, job, next)
		}
	}
}

func (w *Worker) runJob(ctx context.Context, job Job, asOf time.Time) {
	start := time.Now()
	count, err := job.Run(ctx, asOf)
	if err != nil {
		w.logger.Error("reminder run failed", "job", job.Name, "error", err)
		return
	}
	w.logger.Info("reminder run completed",
		"job", job.Name,
		"sent", count,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// RunOnce fires a single job immediately. Used by the admin trigger
// endpoints and tests.
func (w *Worker) RunOnce(ctx context.Context, name string) (int, error) {
	for _, job := range w.jobs {
		if job.Name == name {
			return job.Run(ctx, w.now())
		}
	}
	return 0, ErrUnknownJob
}
