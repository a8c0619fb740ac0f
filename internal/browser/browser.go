package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"leadscout-engine/internal/scrape"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	Headless    bool
	ScrollPause time.Duration
}

// Launcher starts one headless Chrome per job execution. The engine owns no
// process-wide browser: each pipeline run gets its own and releases it when
// the job finishes.
type Launcher struct {
	Cfg Config
}

func (l Launcher) Launch(ctx context.Context) (scrape.Browser, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("accept-lang", "en-US,en;q=0.9"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Starts the browser process eagerly so launch failures surface here,
	// not on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, nil, fmt.Errorf("start chrome: %w", err)
	}

	pause := l.Cfg.ScrollPause
	if pause <= 0 {
		pause = 2500 * time.Millisecond
	}

	b := &Browser{ctx: browserCtx, scrollPause: pause}
	closeFn := func() {
		cancelBrowser()
		cancelAlloc()
	}
	return b, closeFn, nil
}

type Browser struct {
	ctx         context.Context
	scrollPause time.Duration
}

// Open navigates a fresh tab to url. Each candidate gets its own tab so a
// wedged page never poisons another worker.
func (b *Browser) Open(ctx context.Context, url string, timeout time.Duration) (scrape.Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.ctx)

	navCtx, cancelNav := context.WithTimeout(tabCtx, timeout)
	defer cancelNav()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		cancelTab()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	return &Page{ctx: tabCtx, cancel: cancelTab, scrollPause: b.scrollPause}, nil
}
