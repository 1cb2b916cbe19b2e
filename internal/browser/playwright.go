// Package browser renders client-side pages in a headless browser and hands
// back the resulting markup.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Renderer navigates to a URL, waits for a selector to appear and returns the
// rendered document. Close tears down the browser and must always be called.
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error)
	Close() error
}

// Options controls how the browser is launched.
type Options struct {
	Headless bool
	// NavigationTimeout bounds page.Goto. Zero means 30s.
	NavigationTimeout time.Duration
}

// PlaywrightRenderer drives one Chromium instance through playwright.
type PlaywrightRenderer struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	navWait time.Duration
}

// Launch starts the playwright driver and a Chromium instance. The driver and
// browsers must already be installed (playwright install chromium).
func Launch(opts Options) (*PlaywrightRenderer, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	navWait := opts.NavigationTimeout
	if navWait <= 0 {
		navWait = 30 * time.Second
	}
	return &PlaywrightRenderer{pw: pw, browser: b, navWait: navWait}, nil
}

// Render opens a fresh page, loads url and waits up to timeout for
// waitSelector before reading the document. The page is closed on return.
func (r *PlaywrightRenderer) Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := r.browser.NewPage()
	if err != nil {
		return "", fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(r.navWait.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", url, err)
	}

	if waitSelector != "" {
		err := page.Locator(waitSelector).First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(float64(timeout.Milliseconds())),
		})
		if err != nil {
			return "", fmt.Errorf("waiting for %q: %w", waitSelector, err)
		}
	}

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	return content, nil
}

// Close shuts down the browser and the playwright driver.
func (r *PlaywrightRenderer) Close() error {
	var errs []error
	if err := r.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}
	if err := r.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
	}
	return errors.Join(errs...)
}
