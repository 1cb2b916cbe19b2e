package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobdigest/internal/model"
)

// ChannelLimiter throttles calls to the notification API. Every call takes a
// token from the bot-wide bucket and from the bucket of the chat it targets,
// so one busy chat cannot starve the others but the bot as a whole stays
// under the API limit.
type ChannelLimiter struct {
	mu       sync.Mutex
	perChat  map[string]*rate.Limiter
	interval time.Duration
	global   *rate.Limiter
}

// NewChannelLimiter enforces perChatInterval between calls to the same chat
// and at most globalPerSecond calls overall.
func NewChannelLimiter(perChatInterval time.Duration, globalPerSecond float64) *ChannelLimiter {
	return &ChannelLimiter{
		perChat:  make(map[string]*rate.Limiter),
		interval: perChatInterval,
		global:   rate.NewLimiter(rate.Limit(globalPerSecond), 1),
	}
}

func (l *ChannelLimiter) chat(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.perChat[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.perChat[key] = lim
	}
	return lim
}

// Wait blocks until a call to chat key is allowed. It returns an error if ctx
// is cancelled first.
func (l *ChannelLimiter) Wait(ctx context.Context, key string) error {
	if err := l.chat(key).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", key, err)
	}
	if err := l.global.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", key, err)
	}
	return nil
}

// Ensure LimitedChannel implements model.Channel.
var _ model.Channel = (*LimitedChannel)(nil)

// LimitedChannel is a decorator that waits for the limiter before every Send
// and Delete on the wrapped channel.
type LimitedChannel struct {
	inner   model.Channel
	limiter *ChannelLimiter
	key     string
}

// NewLimitedChannel wraps inner. All channels for the same bot should share
// one limiter; key identifies the chat.
func NewLimitedChannel(inner model.Channel, limiter *ChannelLimiter, key string) *LimitedChannel {
	return &LimitedChannel{inner: inner, limiter: limiter, key: key}
}

func (c *LimitedChannel) Send(ctx context.Context, text string) (model.MessageHandle, error) {
	if err := c.limiter.Wait(ctx, c.key); err != nil {
		return model.MessageHandle{}, err
	}
	return c.inner.Send(ctx, text)
}

func (c *LimitedChannel) Delete(ctx context.Context, handle model.MessageHandle) error {
	if err := c.limiter.Wait(ctx, c.key); err != nil {
		return err
	}
	return c.inner.Delete(ctx, handle)
}
