package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/expiry"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/notifier"
)

// Settings are the per-source knobs of a run.
type Settings struct {
	MaxPages       int
	InterPageDelay time.Duration
	BatchSize      int
	Retention      time.Duration
}

// RunReport summarizes one run of one source.
type RunReport struct {
	RunID         string
	Source        string
	Pages         int
	Records       int
	Digests       int
	Published     int
	PublishFailed int
	Stop          StopReason
	Expiry        expiry.Summary
	Ledger        model.LedgerCounts
}

// SourcePoller owns the full pipeline for a single source:
// paginate → normalize/filter → batch → publish → expire.
type SourcePoller struct {
	Name     string
	source   model.Source
	matcher  Matcher
	renderer digest.Renderer
	channel  model.Channel
	ledger   model.MessageLedger
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewSourcePoller creates a poller wired with all its dependencies.
func NewSourcePoller(
	source model.Source,
	matcher Matcher,
	renderer digest.Renderer,
	channel model.Channel,
	ledger model.MessageLedger,
	settings Settings,
	logger *slog.Logger,
) *SourcePoller {
	return &SourcePoller{
		Name:     source.Name(),
		source:   source,
		matcher:  matcher,
		renderer: renderer,
		channel:  channel,
		ledger:   ledger,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one run and returns once every deletion it scheduled has
// resolved. Pages are fetched, published and scheduled strictly in order.
// The source's session or browser is released as soon as pagination ends.
func (p *SourcePoller) Run(ctx context.Context) RunReport {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	report := RunReport{RunID: runID, Source: p.Name}

	logger.Info("run started", "source", p.Name, "max_pages", p.settings.MaxPages)

	expirer := expiry.New(ctx, p.channel, p.ledger, p.settings.Retention, logger.With("source", p.Name))
	publisher := notifier.NewPublisher(p.channel, p.ledger, logger)

	onPage := func(page PageResult) {
		digests := digest.Batch(page.Page, page.Records, p.settings.BatchSize, p.now())
		report.Digests += len(digests)

		for i, d := range digests {
			msg, err := publisher.Publish(ctx, runID, p.Name, d.Page, p.renderer.Render(d))
			if err != nil {
				report.PublishFailed++
				logger.Error("publish failed",
					"source", p.Name,
					"page", d.Page,
					"digest", i+1,
					"error", err,
				)
				continue
			}
			report.Published++
			logger.Info("digest published",
				"source", p.Name,
				"page", d.Page,
				"digest", i+1,
				"jobs", len(d.Records),
				"message_id", msg.Handle.ID,
			)
			expirer.Schedule(msg)
		}
	}

	pagination := p.paginate(ctx, logger, onPage)
	report.Pages = pagination.Pages
	report.Records = len(pagination.Records)
	report.Stop = pagination.Stop

	logger.Info("pagination finished",
		"source", p.Name,
		"pages", report.Pages,
		"records", report.Records,
		"published", report.Published,
		"publish_failed", report.PublishFailed,
		"stop", string(report.Stop),
	)

	report.Expiry = expirer.Wait()

	counts, err := p.ledger.Counts(runID)
	if err != nil {
		logger.Warn("failed to read ledger counts", "source", p.Name, "error", err)
	}
	report.Ledger = counts

	logger.Info("run complete",
		"source", p.Name,
		"deleted", report.Expiry.Deleted,
		"delete_failed", report.Expiry.Failed,
		"ledger_pending", counts.Pending,
		"ledger_deleted", counts.Deleted,
		"ledger_delete_failed", counts.DeleteFailed,
	)
	return report
}

// paginate runs the paginator and always releases the source's resources,
// including when a page handler panics.
func (p *SourcePoller) paginate(ctx context.Context, logger *slog.Logger, onPage func(PageResult)) Pagination {
	if closer, ok := p.source.(model.ResourceCloser); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("failed to release source resources", "source", p.Name, "error", err)
			}
		}()
	}

	pg := &Paginator{
		MaxPages: p.settings.MaxPages,
		Delay:    p.settings.InterPageDelay,
		Matcher:  p.matcher,
		Logger:   logger,
	}
	return pg.Run(ctx, p.source, onPage)
}
