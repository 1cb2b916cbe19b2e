package notifier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure LogChannel implements model.Channel.
var _ model.Channel = (*LogChannel)(nil)

// LogChannel writes digests to the logger instead of a chat. It is used for
// dry runs and for notification.type "log".
type LogChannel struct {
	name   string
	logger *slog.Logger
}

// NewLogChannel returns a channel that logs every message under name.
func NewLogChannel(name string, logger *slog.Logger) *LogChannel {
	return &LogChannel{name: name, logger: logger}
}

// Send logs the message body and returns a fresh random handle.
func (c *LogChannel) Send(_ context.Context, text string) (model.MessageHandle, error) {
	h := model.MessageHandle{Channel: c.name, ID: uuid.NewString()}
	c.logger.Info("digest", "channel", c.name, "message_id", h.ID, "body", text)
	return h, nil
}

// Delete logs the deletion. It never fails.
func (c *LogChannel) Delete(_ context.Context, handle model.MessageHandle) error {
	c.logger.Info("digest deleted", "channel", c.name, "message_id", handle.ID)
	return nil
}
