package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// One scroll cycle against the results feed: bottom, nudge up to retrigger
// lazy loading, bottom again. The scrollable region is located by the same
// chain of shapes the results list has shipped with.
const (
	findScrollableJS = `(function () {
  const selectors = ['div[role="feed"]', '.m6QErb', 'div[style*="overflow"]'];
  for (const sel of selectors) {
    const el = document.querySelector(sel);
    if (el && el.scrollHeight > el.clientHeight) return el;
  }
  return document.body;
})`

	scrollBottomJS = findScrollableJS + `().scrollTop = 1e9; true;`
	scrollNudgeJS  = `(function () {
  const el = ` + findScrollableJS + `();
  el.scrollTop -= 300;
  return true;
})();`
	scrollHeightJS = `(function () {
  const el = ` + findScrollableJS + `();
  el.scrollTop = el.scrollHeight;
  return el.scrollHeight;
})();`

	textLengthJS = `document.body ? document.body.textContent.length : 0`
)

type Page struct {
	ctx         context.Context
	cancel      context.CancelFunc
	scrollPause time.Duration
}

// WaitAny polls until any selector matches or the timeout elapses.
func (p *Page) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) error {
	selJSON, _ := json.Marshal(selectors)
	script := fmt.Sprintf(`%s.some(s => document.querySelector(s) !== null)`, selJSON)

	waitCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	var ok bool
	if err := chromedp.Run(waitCtx,
		chromedp.Poll(script, &ok, chromedp.WithPollingInterval(250*time.Millisecond)),
	); err != nil {
		return fmt.Errorf("wait for results: %w", err)
	}
	return nil
}

func (p *Page) TextLength(ctx context.Context) (int, error) {
	var n int
	if err := p.eval(ctx, textLengthJS, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Page) ScrollStep(ctx context.Context) (int, error) {
	if err := p.eval(ctx, scrollBottomJS, nil); err != nil {
		return 0, err
	}
	if err := p.sleep(ctx, p.scrollPause); err != nil {
		return 0, err
	}
	if err := p.eval(ctx, scrollNudgeJS, nil); err != nil {
		return 0, err
	}
	if err := p.sleep(ctx, p.scrollPause/2); err != nil {
		return 0, err
	}

	var height int
	if err := p.eval(ctx, scrollHeightJS, &height); err != nil {
		return 0, err
	}
	if err := p.sleep(ctx, p.scrollPause/2); err != nil {
		return 0, err
	}
	return height, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithTimeout(p.ctx, 15*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot dom: %w", err)
	}
	return html, nil
}

func (p *Page) Close() error {
	p.cancel()
	return nil
}

func (p *Page) eval(ctx context.Context, script string, res any) error {
	runCtx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, res)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (p *Page) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-t.C:
		return nil
	}
}
