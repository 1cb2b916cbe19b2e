// Package expiry deletes published digests once their retention window has
// passed.
package expiry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobdigest/internal/model"
)

// deleteTimeout bounds a single delete call, including deletes issued during
// shutdown after the run context has been cancelled.
const deleteTimeout = 30 * time.Second

// Summary counts how the scheduled deletions of one run resolved.
type Summary struct {
	Scheduled int
	Deleted   int
	Failed    int
}

// Scheduler owns the deletion tasks of one run. Each Schedule call starts an
// independent task that sleeps until publishedAt+retention and then deletes
// the message once. Wait is the barrier: it returns after every task has
// resolved.
//
// If ctx is cancelled while tasks are still sleeping, they stop waiting and
// delete immediately. Nothing outlives the process to clean up later.
type Scheduler struct {
	ctx       context.Context
	channel   model.Channel
	ledger    model.MessageLedger
	retention time.Duration
	logger    *slog.Logger

	group errgroup.Group

	mu      sync.Mutex
	seen    map[model.MessageHandle]struct{}
	summary Summary
}

// New creates a scheduler for one run.
func New(ctx context.Context, channel model.Channel, ledger model.MessageLedger, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ctx:       ctx,
		channel:   channel,
		ledger:    ledger,
		retention: retention,
		logger:    logger,
		seen:      make(map[model.MessageHandle]struct{}),
	}
}

// Schedule registers msg for deletion. A handle that was already scheduled is
// ignored, so a message is deleted at most once.
func (s *Scheduler) Schedule(msg model.PublishedMessage) {
	s.mu.Lock()
	if _, dup := s.seen[msg.Handle]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[msg.Handle] = struct{}{}
	s.summary.Scheduled++
	s.mu.Unlock()

	s.group.Go(func() error {
		s.expire(msg)
		return nil
	})
}

// Wait blocks until every scheduled deletion has succeeded or failed.
func (s *Scheduler) Wait() Summary {
	s.group.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

func (s *Scheduler) expire(msg model.PublishedMessage) {
	delay := time.Until(msg.PublishedAt.Add(s.retention))
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			s.logger.Info("shutting down, deleting message early",
				"message_id", msg.Handle.ID,
				"remaining", delay.Round(time.Second).String(),
			)
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), deleteTimeout)
	defer cancel()

	if err := s.channel.Delete(ctx, msg.Handle); err != nil {
		derr := &model.DeleteError{Handle: msg.Handle, Err: err}
		s.logger.Error("failed to delete message",
			"message_id", msg.Handle.ID,
			"error", derr,
		)
		if lerr := s.ledger.MarkDeleteFailed(msg.Handle, err.Error()); lerr != nil {
			s.logger.Warn("failed to record delete failure", "message_id", msg.Handle.ID, "error", lerr)
		}
		s.count(false)
		return
	}

	s.logger.Info("message deleted", "message_id", msg.Handle.ID)
	if lerr := s.ledger.MarkDeleted(msg.Handle); lerr != nil {
		s.logger.Warn("failed to record deletion", "message_id", msg.Handle.ID, "error", lerr)
	}
	s.count(true)
}

func (s *Scheduler) count(deleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deleted {
		s.summary.Deleted++
	} else {
		s.summary.Failed++
	}
}
