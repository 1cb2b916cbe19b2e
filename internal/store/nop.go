package store

import "github.com/amishk599/jobdigest/internal/model"

// NopLedger is a no-op ledger used in dry-run and preview mode.
type NopLedger struct{}

func NewNopLedger() *NopLedger { return &NopLedger{} }

func (l *NopLedger) RecordPublished(string, string, int, model.PublishedMessage) error { return nil }
func (l *NopLedger) MarkDeleted(model.MessageHandle) error                             { return nil }
func (l *NopLedger) MarkDeleteFailed(model.MessageHandle, string) error                { return nil }
func (l *NopLedger) Counts(string) (model.LedgerCounts, error)                         { return model.LedgerCounts{}, nil }
