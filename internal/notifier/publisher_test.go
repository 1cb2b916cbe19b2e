package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

type stubChannel struct {
	sent   []string
	err    error
	nextID string
}

func (c *stubChannel) Send(_ context.Context, text string) (model.MessageHandle, error) {
	if c.err != nil {
		return model.MessageHandle{}, c.err
	}
	c.sent = append(c.sent, text)
	return model.MessageHandle{Channel: "stub", ID: c.nextID}, nil
}

func (c *stubChannel) Delete(_ context.Context, _ model.MessageHandle) error { return nil }

type publishRecord struct {
	runID, source string
	page          int
	msg           model.PublishedMessage
}

type stubLedger struct {
	published []publishRecord
	err       error
}

func (l *stubLedger) RecordPublished(runID, source string, page int, msg model.PublishedMessage) error {
	l.published = append(l.published, publishRecord{runID, source, page, msg})
	return l.err
}
func (l *stubLedger) MarkDeleted(model.MessageHandle) error              { return nil }
func (l *stubLedger) MarkDeleteFailed(model.MessageHandle, string) error { return nil }
func (l *stubLedger) Counts(string) (model.LedgerCounts, error)          { return model.LedgerCounts{}, nil }

func TestPublisher_Success(t *testing.T) {
	ch := &stubChannel{nextID: "m1"}
	ledger := &stubLedger{}
	p := NewPublisher(ch, ledger, discardLogger())
	at := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	msg, err := p.Publish(context.Background(), "run-1", "104", 2, "body")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if msg.Handle.ID != "m1" || !msg.PublishedAt.Equal(at) {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(ledger.published) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(ledger.published))
	}
	rec := ledger.published[0]
	if rec.runID != "run-1" || rec.source != "104" || rec.page != 2 || rec.msg != msg {
		t.Errorf("unexpected ledger record %+v", rec)
	}
}

func TestPublisher_SendFailure(t *testing.T) {
	ch := &stubChannel{err: errors.New("forbidden")}
	ledger := &stubLedger{}
	p := NewPublisher(ch, ledger, discardLogger())

	_, err := p.Publish(context.Background(), "run-1", "cake", 1, "body")
	var pe *model.PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *model.PublishError, got %v", err)
	}
	if len(ledger.published) != 0 {
		t.Error("failed publish must not be recorded")
	}
}

func TestPublisher_LedgerFailureDoesNotFailPublish(t *testing.T) {
	ch := &stubChannel{nextID: "m2"}
	p := NewPublisher(ch, &stubLedger{err: errors.New("disk full")}, discardLogger())

	if _, err := p.Publish(context.Background(), "run-1", "cake", 1, "body"); err != nil {
		t.Fatalf("expected publish to succeed, got %v", err)
	}
}

func TestLogChannel_SendReturnsUniqueHandles(t *testing.T) {
	ch := NewLogChannel("dry-run", discardLogger())

	h1, err := ch.Send(context.Background(), "a")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	h2, _ := ch.Send(context.Background(), "b")
	if h1.ID == "" || h1.ID == h2.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", h1.ID, h2.ID)
	}
	if h1.Channel != "dry-run" {
		t.Errorf("expected channel name on handle, got %q", h1.Channel)
	}
	if err := ch.Delete(context.Background(), h1); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestSendTestMessage(t *testing.T) {
	ch := &stubChannel{nextID: "t1"}
	h, err := SendTestMessage(context.Background(), ch)
	if err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if h.ID != "t1" || len(ch.sent) != 1 {
		t.Errorf("unexpected result %+v, sent %v", h, ch.sent)
	}

	_, err = SendTestMessage(context.Background(), &stubChannel{err: errors.New("down")})
	var pe *model.PublishError
	if !errors.As(err, &pe) {
		t.Errorf("expected *model.PublishError, got %v", err)
	}
}
