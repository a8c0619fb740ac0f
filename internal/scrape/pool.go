package scrape

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/util"
)

// Pool scrapes candidate detail pages with a fixed set of workers sharing an
// atomic cursor: every candidate is claimed exactly once, regardless of
// which workers fail along the way.
type Pool struct {
	Log     *logrus.Logger
	Limiter *util.HostLimiter

	// PageTimeout bounds one candidate's navigation.
	PageTimeout time.Duration
	Concurrency int
}

// Scrape processes every link and returns the leads that extracted cleanly.
// Per-candidate failures are logged and dropped; they never abort the pool.
// Result order follows completion order, not input order.
func (p *Pool) Scrape(ctx context.Context, b Browser, links []domain.CandidateLink) []domain.Lead {
	if len(links) == 0 {
		return nil
	}

	workers := p.Concurrency
	if workers <= 0 {
		workers = 5
	}
	if workers > len(links) {
		workers = len(links)
	}

	var cursor atomic.Int64
	var mu sync.Mutex
	results := make([]domain.Lead, 0, len(links))

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(links) {
					return nil
				}
				link := links[i]

				lead, err := p.scrapeOne(ctx, b, link)
				if err != nil {
					p.Log.WithFields(logrus.Fields{
						"name": link.Name,
						"url":  link.URL,
					}).WithError(err).Warn("candidate dropped")
					continue
				}

				mu.Lock()
				results = append(results, lead)
				mu.Unlock()
			}
		})
	}
	// Workers only return nil; Wait is the join point.
	_ = g.Wait()

	return results
}

func (p *Pool) scrapeOne(ctx context.Context, b Browser, link domain.CandidateLink) (domain.Lead, error) {
	if err := p.Limiter.WaitURL(ctx, link.URL); err != nil {
		return domain.Lead{}, err
	}

	timeout := p.PageTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	page, err := b.Open(ctx, DetailURL(link.URL), timeout)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("open detail page: %w", err)
	}
	defer page.Close()

	html, err := page.HTML(ctx)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("snapshot detail page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("parse detail page: %w", err)
	}

	lead, err := Extract(doc)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.URL = link.URL
	if lead.Name == "" {
		lead.Name = link.Name
	}
	return lead, nil
}

// DetailURL strips tracking params off a place link and forces the English
// locale so the extraction selectors line up.
func DetailURL(raw string) string {
	base := raw
	if i := strings.IndexByte(base, '&'); i >= 0 {
		base = base[:i]
	}
	if strings.ContainsRune(base, '?') {
		return base + "&hl=en"
	}
	return base + "?hl=en"
}
