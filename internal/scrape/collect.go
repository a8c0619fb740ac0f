package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/util"
)

const searchBaseURL = "https://www.google.com/maps/search/"

// Any of these appearing means results are present. The markup varies by
// rollout, so we accept several shapes.
var resultSignals = []string{
	`a[href*="/place/"]`,
	`div[role="feed"]`,
	".hfpxzc",
	".Nv2PK",
}

// minPageTextLen separates a slow-but-rendered results page from a truly
// blank one when the results-present wait times out.
const minPageTextLen = 100

// Collector turns a query into the deduplicated list of candidate
// detail-page links, scrolling the results feed until it stops growing.
type Collector struct {
	Log *logrus.Logger

	// SearchTimeout bounds the initial navigation, WaitTimeout the
	// results-present wait.
	SearchTimeout time.Duration
	WaitTimeout   time.Duration

	// StableRounds is the number of consecutive scroll cycles with an
	// unchanged feed height required before the list counts as exhausted.
	StableRounds int
}

func SearchURL(query string) string {
	return searchBaseURL + url.QueryEscape(query)
}

// Collect fetches the search page for query and harvests candidate links.
// Zero candidates after a full scroll pass is a valid outcome (nil error,
// empty slice); a page with no content at all is a hard failure.
func (c *Collector) Collect(ctx context.Context, b Browser, query string) ([]domain.CandidateLink, error) {
	searchTimeout := c.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = 30 * time.Second
	}
	waitTimeout := c.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = 15 * time.Second
	}
	stableRounds := c.StableRounds
	if stableRounds <= 0 {
		stableRounds = 8
	}

	page, err := b.Open(ctx, SearchURL(query), searchTimeout)
	if err != nil {
		return nil, fmt.Errorf("load search page: %w", err)
	}
	defer page.Close()

	if err := page.WaitAny(ctx, resultSignals, waitTimeout); err != nil {
		n, terr := page.TextLength(ctx)
		if terr != nil || n < minPageTextLen {
			return nil, fmt.Errorf("search page returned no content: %w", err)
		}
		c.Log.WithField("query", query).Warn("results wait timed out, content detected, proceeding")
	}

	if err := c.scrollToExhaustion(ctx, page, stableRounds); err != nil {
		return nil, fmt.Errorf("scroll results feed: %w", err)
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot search page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	links := harvestLinks(doc)
	c.Log.WithFields(logrus.Fields{"query": query, "candidates": len(links)}).Info("search results collected")
	return links, nil
}

// scrollToExhaustion keeps scrolling until the feed height holds still for
// stableRounds consecutive cycles. The threshold is stability, not a fixed
// number of scrolls: a long results list scrolls far more than stableRounds
// times.
func (c *Collector) scrollToExhaustion(ctx context.Context, page Page, stableRounds int) error {
	prevHeight := -1
	stable := 0

	for stable < stableRounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		height, err := page.ScrollStep(ctx)
		if err != nil {
			return err
		}
		if height == prevHeight {
			stable++
		} else {
			stable = 0
			prevHeight = height
		}
	}
	return nil
}

// harvestLinks pulls every detail-page anchor out of the loaded DOM,
// discards anything off-pattern, and dedupes by URL.
func harvestLinks(doc *goquery.Document) []domain.CandidateLink {
	seen := make(map[string]bool)
	var out []domain.CandidateLink

	doc.Find(`a[href*="/place/"]`).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		full := href
		if strings.HasPrefix(href, "/") {
			full = "https://www.google.com" + href
		}
		if !isDetailURL(full) {
			return
		}
		if seen[full] {
			return
		}
		seen[full] = true

		out = append(out, domain.CandidateLink{
			Name: candidateName(a),
			URL:  full,
		})
	})

	return out
}

func isDetailURL(raw string) bool {
	return strings.Contains(raw, "/place/") && strings.Contains(raw, "google.com/maps")
}

// candidateName is best-effort: the anchor's aria-label, else the card title
// next to it. Empty is fine; extraction fills the real name later.
func candidateName(a *goquery.Selection) string {
	if label, ok := a.Attr("aria-label"); ok {
		if label = util.CleanText(label); label != "" {
			return label
		}
	}
	if title := util.CleanText(a.Find(".qBF1Pd").First().Text()); title != "" {
		return title
	}
	return util.CleanText(a.Closest(".Nv2PK").Find(".qBF1Pd").First().Text())
}
