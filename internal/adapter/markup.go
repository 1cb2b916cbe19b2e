package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobdigest/internal/browser"
	"github.com/amishk599/jobdigest/internal/model"
)

// pageLoader returns the markup for one page URL. Implementations own a
// session or browser for the length of one source run.
type pageLoader interface {
	Load(ctx context.Context, pageURL string) (string, error)
	Close() error
}

// markupLayout describes how a site lays out its listing page.
type markupLayout struct {
	// EntrySelector matches one block per listing.
	EntrySelector string
	// PageParam is the query key that carries the page number.
	PageParam string
	// Extract turns one entry block into a record. baseURL is used for
	// root-relative links.
	Extract func(s *goquery.Selection, baseURL string) (model.JobRecord, error)
}

// MarkupAdapter fetches listing pages as HTML and extracts entry blocks by
// CSS selector. The cake and yourator sources are both MarkupAdapters with
// different layouts and loaders.
type MarkupAdapter struct {
	name    string
	pageURL string
	baseURL string
	params  url.Values
	loader  pageLoader
	layout  markupLayout
}

func (a *MarkupAdapter) Name() string { return a.name }

// FetchPage loads one listing page and returns its entry blocks as
// *goquery.Selection values. A page with no entry blocks is an empty page.
func (a *MarkupAdapter) FetchPage(ctx context.Context, page int) ([]model.RawEntry, error) {
	pageURL, err := withQuery(a.pageURL, a.params, a.layout.PageParam, page)
	if err != nil {
		return nil, &model.FetchError{Source: a.name, Page: page, Err: err}
	}

	markup, err := a.loader.Load(ctx, pageURL)
	if err != nil {
		return nil, &model.FetchError{Source: a.name, Page: page, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &model.FetchError{Source: a.name, Page: page, Err: fmt.Errorf("parsing markup: %w", err)}
	}

	blocks := doc.Find(a.layout.EntrySelector)
	entries := make([]model.RawEntry, 0, blocks.Length())
	blocks.Each(func(_ int, s *goquery.Selection) {
		entries = append(entries, s)
	})
	return entries, nil
}

// Normalize extracts a record from one entry block.
func (a *MarkupAdapter) Normalize(entry model.RawEntry) (model.JobRecord, error) {
	s, ok := entry.(*goquery.Selection)
	if !ok {
		return model.JobRecord{}, model.Reject("unexpected entry type %T", entry)
	}
	return a.layout.Extract(s, a.baseURL)
}

// Close releases the session or browser held by the loader.
func (a *MarkupAdapter) Close() error {
	return a.loader.Close()
}

// httpLoader loads server-rendered pages over a session client.
type httpLoader struct {
	client  *http.Client
	headers map[string]string
}

func (l *httpLoader) Load(ctx context.Context, pageURL string) (string, error) {
	body, err := getBody(ctx, l.client, pageURL, l.headers)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (l *httpLoader) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

// browserLoader renders pages in a headless browser. The browser is started
// on the first Load and reused until Close, so a run holds at most one.
type browserLoader struct {
	launch       func() (browser.Renderer, error)
	waitSelector string
	waitTimeout  time.Duration

	mu       sync.Mutex
	renderer browser.Renderer
}

func (l *browserLoader) Load(ctx context.Context, pageURL string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.renderer == nil {
		r, err := l.launch()
		if err != nil {
			return "", fmt.Errorf("launching browser: %w", err)
		}
		l.renderer = r
	}
	return l.renderer.Render(ctx, pageURL, l.waitSelector, l.waitTimeout)
}

func (l *browserLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.renderer == nil {
		return nil
	}
	err := l.renderer.Close()
	l.renderer = nil
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
