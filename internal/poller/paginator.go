package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// Matcher decides whether a title is relevant. *filter.KeywordFilter is the
// production implementation.
type Matcher interface {
	Match(title string) bool
}

// StopReason says why pagination ended.
type StopReason string

const (
	StopMaxPages    StopReason = "max_pages"
	StopEmptyPage   StopReason = "empty_page"
	StopFetchFailed StopReason = "fetch_failed"
	StopCancelled   StopReason = "cancelled"
)

// PageResult is one fetched page after normalization and filtering.
type PageResult struct {
	Page     int
	Raw      int
	Records  []model.JobRecord
	Rejected int
}

// Pagination summarizes one pass over a source's pages.
type Pagination struct {
	Records []model.JobRecord
	Pages   int // pages fetched, including the one that stopped pagination
	Stop    StopReason
	Err     error // the fetch error when Stop is StopFetchFailed
}

// Paginator walks a source from page 1 to MaxPages, one page at a time.
//
// It stops at the first page that fails or returns no raw entries. A page
// whose entries were all rejected does not stop it. After a page that
// produced at least one record it sleeps Delay before the next fetch.
type Paginator struct {
	MaxPages int
	Delay    time.Duration
	Matcher  Matcher
	Logger   *slog.Logger
}

// Run paginates src and calls onPage, if non-nil, for every page that
// yielded at least one record, before the inter-page delay. Records are
// returned in source order across pages.
func (p *Paginator) Run(ctx context.Context, src model.Source, onPage func(PageResult)) Pagination {
	var out Pagination

	for page := 1; page <= p.MaxPages; page++ {
		if ctx.Err() != nil {
			out.Stop = StopCancelled
			return out
		}

		entries, err := src.FetchPage(ctx, page)
		out.Pages = page
		if err != nil && ctx.Err() != nil {
			p.Logger.Info("cancelled during fetch, stopping pagination", "source", src.Name(), "page", page)
			out.Stop = StopCancelled
			return out
		}
		if err != nil {
			var fe *model.FetchError
			if !errors.As(err, &fe) {
				err = &model.FetchError{Source: src.Name(), Page: page, Err: err}
			}
			p.Logger.Error("fetch failed, stopping pagination",
				"source", src.Name(),
				"page", page,
				"error", err,
			)
			out.Stop = StopFetchFailed
			out.Err = err
			return out
		}
		if len(entries) == 0 {
			p.Logger.Info("empty page, stopping pagination", "source", src.Name(), "page", page)
			out.Stop = StopEmptyPage
			return out
		}

		result := PageResult{Page: page, Raw: len(entries)}
		for _, entry := range entries {
			rec, err := normalizeEntry(src, p.Matcher, entry)
			if err != nil {
				result.Rejected++
				p.logReject(src.Name(), page, err)
				continue
			}
			result.Records = append(result.Records, rec)
		}

		p.Logger.Info("page processed",
			"source", src.Name(),
			"page", page,
			"fetched", result.Raw,
			"matched", len(result.Records),
		)

		if len(result.Records) == 0 {
			continue
		}
		out.Records = append(out.Records, result.Records...)
		if onPage != nil {
			onPage(result)
		}

		if page < p.MaxPages && p.Delay > 0 {
			select {
			case <-ctx.Done():
				out.Stop = StopCancelled
				return out
			case <-time.After(p.Delay):
			}
		}
	}

	out.Stop = StopMaxPages
	return out
}

var errNoKeywordMatch = fmt.Errorf("%w: no keyword match", model.ErrEntryRejected)

// normalizeEntry turns one raw entry into a record or a rejection. A panic
// inside the source's normalizer only rejects this entry.
func normalizeEntry(src model.Normalizer, m Matcher, entry model.RawEntry) (rec model.JobRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = model.JobRecord{}, model.Reject("panic while normalizing: %v", r)
		}
	}()

	rec, err = src.Normalize(entry)
	if err != nil {
		if !errors.Is(err, model.ErrEntryRejected) {
			err = fmt.Errorf("%w: %v", model.ErrEntryRejected, err)
		}
		return model.JobRecord{}, err
	}
	if strings.TrimSpace(rec.Title) == "" {
		return model.JobRecord{}, model.Reject("empty title")
	}
	if strings.TrimSpace(rec.Company) == "" {
		return model.JobRecord{}, model.Reject("empty company for %q", rec.Title)
	}
	if !m.Match(rec.Title) {
		return model.JobRecord{}, errNoKeywordMatch
	}
	return rec, nil
}

func (p *Paginator) logReject(source string, page int, err error) {
	if errors.Is(err, errNoKeywordMatch) {
		p.Logger.Debug("entry filtered", "source", source, "page", page)
		return
	}
	p.Logger.Debug("entry rejected", "source", source, "page", page, "error", err)
}
