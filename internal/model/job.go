package model

import (
	"context"
	"time"
)

// Placeholders used when a source omits an optional field.
const (
	SalaryPlaceholder   = "薪資面議"
	LocationPlaceholder = "地點未指定"
)

// JobRecord is the canonical shape every source listing is normalized into.
// Treat it as immutable once built.
type JobRecord struct {
	Title    string // never empty after normalization
	Company  string // required
	Salary   string // may be SalaryPlaceholder
	Location string // optional, may be LocationPlaceholder
	URL      string // optional, absolute when present
}

// RawEntry is one listing in its source-native shape (a JSON object, a markup
// fragment). Only the source that produced it knows how to read it.
type RawEntry any

// PageFetcher retrieves the raw entries for one page number. An empty result
// with a nil error means the source has no more data.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]RawEntry, error)
}

// Normalizer maps one raw entry into a JobRecord, or rejects it with an error
// wrapping ErrEntryRejected.
type Normalizer interface {
	Normalize(entry RawEntry) (JobRecord, error)
}

// Source is one job-listing provider: a fetcher plus the normalizer for the
// entries it returns.
type Source interface {
	PageFetcher
	Normalizer
	Name() string
}

// ResourceCloser is implemented by sources that hold a session or browser for
// the duration of a run.
type ResourceCloser interface {
	Close() error
}

// MessageHandle identifies a message sent to a channel. Callers treat it as
// opaque and hand it back to the channel that produced it.
type MessageHandle struct {
	Channel string
	ID      string
}

// PublishedMessage pairs a sent message with the time it was sent.
type PublishedMessage struct {
	Handle      MessageHandle
	PublishedAt time.Time
}

// Channel is the notification destination. Send and Delete are both fallible.
type Channel interface {
	Send(ctx context.Context, text string) (MessageHandle, error)
	Delete(ctx context.Context, handle MessageHandle) error
}

// LedgerCounts summarizes the message outcomes recorded for one run. Pending
// messages were published and have not been deleted yet.
type LedgerCounts struct {
	Pending      int
	Deleted      int
	DeleteFailed int
}

// MessageLedger records what was published and how each deletion resolved.
type MessageLedger interface {
	RecordPublished(runID, source string, page int, msg PublishedMessage) error
	MarkDeleted(handle MessageHandle) error
	MarkDeleteFailed(handle MessageHandle, reason string) error
	Counts(runID string) (LedgerCounts, error)
}
