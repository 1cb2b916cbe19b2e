// Package preview crawls a source without publishing anything and shows the
// digests it would have sent in a terminal UI.
package preview

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/poller"
)

// Item is one rendered digest.
type Item struct {
	Page  int
	Index int // 1-based position within its page
	Jobs  int
	Body  string
}

// Result is everything one preview crawl produced.
type Result struct {
	Items   []Item
	Pages   int
	Matched int
	Stop    poller.StopReason
	Err     error // fetch error that ended pagination, if any
}

// Crawler paginates a source the same way a run does and renders its
// digests instead of publishing them.
type Crawler struct {
	MaxPages  int
	Delay     time.Duration
	BatchSize int
	Matcher   poller.Matcher
	Renderer  digest.Renderer
	Now       func() time.Time
}

// Crawl fetches src until pagination stops and releases src afterwards.
func (c *Crawler) Crawl(ctx context.Context, src model.Source) Result {
	if closer, ok := src.(model.ResourceCloser); ok {
		defer closer.Close()
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	var res Result
	pg := &poller.Paginator{
		MaxPages: c.MaxPages,
		Delay:    c.Delay,
		Matcher:  c.Matcher,
		// Anything written to the terminal would corrupt the TUI.
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	out := pg.Run(ctx, src, func(page poller.PageResult) {
		for i, d := range digest.Batch(page.Page, page.Records, c.BatchSize, now()) {
			res.Items = append(res.Items, Item{
				Page:  d.Page,
				Index: i + 1,
				Jobs:  len(d.Records),
				Body:  c.Renderer.Render(d),
			})
		}
	})

	res.Pages = out.Pages
	res.Matched = len(out.Records)
	res.Stop = out.Stop
	res.Err = out.Err
	return res
}
