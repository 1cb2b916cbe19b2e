package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

func TestWait_SameChat_EnforcesInterval(t *testing.T) {
	limiter := NewChannelLimiter(100*time.Millisecond, 1000)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "-1001"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "-1001"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow some timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentChats_NoCrossBlocking(t *testing.T) {
	limiter := NewChannelLimiter(200*time.Millisecond, 1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "-1001"); err != nil {
		t.Fatalf("first chat wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "-1002"); err != nil {
		t.Fatalf("second chat wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant wait for another chat, got %v", elapsed)
	}
}

func TestWait_GlobalBucketSharedAcrossChats(t *testing.T) {
	limiter := NewChannelLimiter(time.Millisecond, 10) // one call per 100ms overall
	ctx := context.Background()

	if err := limiter.Wait(ctx, "a"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	start := time.Now()
	if err := limiter.Wait(ctx, "b"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected the global bucket to throttle, waited %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewChannelLimiter(5*time.Second, 1000)

	if err := limiter.Wait(context.Background(), "-1001"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "-1001"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingChannel struct {
	sends, deletes int
}

func (c *recordingChannel) Send(_ context.Context, _ string) (model.MessageHandle, error) {
	c.sends++
	return model.MessageHandle{ID: "1"}, nil
}

func (c *recordingChannel) Delete(_ context.Context, _ model.MessageHandle) error {
	c.deletes++
	return nil
}

func TestLimitedChannel_SendAndDeleteShareBucket(t *testing.T) {
	limiter := NewChannelLimiter(100*time.Millisecond, 1000)
	inner := &recordingChannel{}
	ch := NewLimitedChannel(inner, limiter, "-1001")
	ctx := context.Background()

	h, err := ch.Send(ctx, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	start := time.Now()
	if err := ch.Delete(ctx, h); err != nil {
		t.Fatalf("delete: %v", err)
	}
	elapsed := time.Since(start)

	if inner.sends != 1 || inner.deletes != 1 {
		t.Fatalf("expected 1 send and 1 delete, got %d and %d", inner.sends, inner.deletes)
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected delete to wait for the send's token, got %v", elapsed)
	}
}

func TestLimitedChannel_CancelledContextSkipsCall(t *testing.T) {
	limiter := NewChannelLimiter(time.Hour, 1000)
	inner := &recordingChannel{}
	ch := NewLimitedChannel(inner, limiter, "-1001")

	if _, err := ch.Send(context.Background(), "first"); err != nil {
		t.Fatalf("send: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ch.Send(ctx, "second"); err == nil {
		t.Fatal("expected error")
	}
	if inner.sends != 1 {
		t.Errorf("inner channel called %d times, want 1", inner.sends)
	}
}
