package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/model"
)

// Publisher sends rendered digests to a channel and records each successful
// send in the ledger.
type Publisher struct {
	channel model.Channel
	ledger  model.MessageLedger
	logger  *slog.Logger
	now     func() time.Time
}

// NewPublisher creates a publisher for one channel.
func NewPublisher(channel model.Channel, ledger model.MessageLedger, logger *slog.Logger) *Publisher {
	return &Publisher{channel: channel, ledger: ledger, logger: logger, now: time.Now}
}

// Publish sends body and returns the published message. A send failure is
// returned as *model.PublishError and nothing is recorded. A ledger failure
// is logged but does not fail the publish, since the message is already out.
func (p *Publisher) Publish(ctx context.Context, runID, source string, page int, body string) (model.PublishedMessage, error) {
	handle, err := p.channel.Send(ctx, body)
	if err != nil {
		return model.PublishedMessage{}, &model.PublishError{Err: err}
	}

	msg := model.PublishedMessage{Handle: handle, PublishedAt: p.now()}
	if err := p.ledger.RecordPublished(runID, source, page, msg); err != nil {
		p.logger.Warn("failed to record published message",
			"run_id", runID,
			"source", source,
			"message_id", handle.ID,
			"error", err,
		)
	}
	return msg, nil
}

// SendTestMessage sends a one-line message to verify the channel works.
func SendTestMessage(ctx context.Context, ch model.Channel) (model.MessageHandle, error) {
	text := fmt.Sprintf("✅ jobdigest 測試訊息\n⏰ %s", time.Now().Format(digest.TimestampLayout))
	h, err := ch.Send(ctx, text)
	if err != nil {
		return model.MessageHandle{}, &model.PublishError{Err: err}
	}
	return h, nil
}
