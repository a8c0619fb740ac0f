package scrape

import (
	"context"
	"time"
)

// Browser is the narrow page-fetching capability the pipeline depends on.
// The production implementation drives headless Chrome; tests inject fakes.
type Browser interface {
	// Open navigates a fresh page to url. The timeout bounds navigation;
	// the returned page must be closed by the caller on every exit path.
	Open(ctx context.Context, url string, timeout time.Duration) (Page, error)
}

// Page is a handle to one loaded document.
type Page interface {
	// WaitAny blocks until any of the selectors matches, or the timeout
	// elapses.
	WaitAny(ctx context.Context, selectors []string, timeout time.Duration) error

	// TextLength returns the length of the page body text, used to tell a
	// slow-but-loaded results page apart from a blank one.
	TextLength(ctx context.Context) (int, error)

	// ScrollStep runs one scroll cycle against the results feed (bottom,
	// nudge up, bottom again) and returns the feed's scroll height after.
	ScrollStep(ctx context.Context) (int, error)

	// HTML returns a snapshot of the current DOM.
	HTML(ctx context.Context) (string, error)

	Close() error
}

// Launcher produces a browser scoped to one job execution. The returned
// close func releases the whole browser, not just a page.
type Launcher interface {
	Launch(ctx context.Context) (Browser, func(), error)
}
