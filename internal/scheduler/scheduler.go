package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobdigest/internal/poller"
)

// RunOnce runs every poller once and returns their reports in poller order.
// Pollers run concurrently unless sequential is set; each owns its own
// session or browser, so they share nothing but the notification limiter.
func RunOnce(ctx context.Context, pollers []*poller.SourcePoller, sequential bool, logger *slog.Logger) []poller.RunReport {
	reports := make([]poller.RunReport, len(pollers))

	if sequential {
		for i, p := range pollers {
			if ctx.Err() != nil {
				logger.Info("skipping remaining sources", "source", p.Name)
				break
			}
			reports[i] = p.Run(ctx)
		}
		return reports
	}

	var wg sync.WaitGroup
	for i, p := range pollers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = p.Run(ctx)
		}()
	}
	wg.Wait()
	return reports
}

// Scheduler is the long-running daemon: one cron entry per source.
type Scheduler struct {
	pollers []*poller.SourcePoller
	spec    string
	logger  *slog.Logger
}

// NewScheduler creates a scheduler that runs every poller on the cron spec.
func NewScheduler(pollers []*poller.SourcePoller, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pollers: pollers,
		spec:    spec,
		logger:  logger,
	}
}

// Run schedules all sources, runs each one immediately, and blocks until ctx
// is cancelled. A source whose previous run is still going is skipped for that
// tick. On cancellation no new runs start and Run returns once in-flight runs
// have flushed their deletions.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	var inflight sync.WaitGroup
	ids := make([]cron.EntryID, 0, len(s.pollers))
	for _, p := range s.pollers {
		id, err := c.AddFunc(s.spec, func() { s.runOne(ctx, p) })
		if err != nil {
			return fmt.Errorf("scheduling source %s with %q: %w", p.Name, s.spec, err)
		}
		ids = append(ids, id)
	}

	s.logger.Info("starting scheduler",
		"schedule", s.spec,
		"sources", len(s.pollers),
	)

	// The wrapped job carries the skip-if-running guard, so a tick that
	// lands during the first run is dropped.
	for _, id := range ids {
		job := c.Entry(id).WrappedJob
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			job.Run()
		}()
	}
	c.Start()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler, waiting for in-flight runs")
	<-c.Stop().Done()
	inflight.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runOne(ctx context.Context, p *poller.SourcePoller) {
	if ctx.Err() != nil {
		return
	}
	report := p.Run(ctx)
	s.logger.Info("scheduled run finished",
		"source", report.Source,
		"run_id", report.RunID,
		"published", report.Published,
		"publish_failed", report.PublishFailed,
		"deleted", report.Expiry.Deleted,
	)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
