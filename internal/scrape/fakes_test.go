package scrape

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakePage scripts one loaded document: ScrollStep walks heights and sticks
// on the last one, everything else returns canned values.
type fakePage struct {
	waitErr error
	textLen int
	heights []int
	html    string
	htmlErr error

	mu          sync.Mutex
	scrollCalls int
	closed      bool
}

func (p *fakePage) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) error {
	return p.waitErr
}

func (p *fakePage) TextLength(ctx context.Context) (int, error) {
	return p.textLen, nil
}

func (p *fakePage) ScrollStep(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.scrollCalls
	p.scrollCalls++
	if len(p.heights) == 0 {
		return 0, nil
	}
	if i >= len(p.heights) {
		i = len(p.heights) - 1
	}
	return p.heights[i], nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	return p.html, p.htmlErr
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// fakeBrowser dispatches Open by URL and records every navigation.
type fakeBrowser struct {
	openFn func(url string) (Page, error)

	mu     sync.Mutex
	opened []string
}

func (b *fakeBrowser) Open(ctx context.Context, url string, timeout time.Duration) (Page, error) {
	b.mu.Lock()
	b.opened = append(b.opened, url)
	b.mu.Unlock()
	return b.openFn(url)
}

func (b *fakeBrowser) openedURLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.opened))
	copy(out, b.opened)
	return out
}

// fakeLauncher hands back a prebuilt browser, or fails.
type fakeLauncher struct {
	browser   *fakeBrowser
	launchErr error

	mu     sync.Mutex
	closed bool
}

func (l *fakeLauncher) Launch(ctx context.Context) (Browser, func(), error) {
	if l.launchErr != nil {
		return nil, nil, l.launchErr
	}
	return l.browser, func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
	}, nil
}
