package scrape

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/util"
)

// ErrNoData means every field resolved empty: the page rendered nothing we
// recognize. Callers must treat this as a per-candidate failure, not emit an
// all-empty lead.
var ErrNoData = errors.New("no fields extracted")

// The target markup is unversioned and changes without notice, so every
// field is resolved through an ordered chain of selectors: first strategy
// yielding non-empty trimmed text wins.
var (
	nameSelectors = []string{
		".DUwDvf.fontHeadlineLarge",
		"h1.DUwDvf",
		"h1",
	}
	addressSelectors = []string{
		`[data-item-id="address"] .Io6YTe`,
		`button[data-item-id="address"]`,
		`[data-item-id="address"]`,
	}
	ratingSelectors = []string{
		".F7nice > span > span",
		`.F7nice span[aria-hidden="true"]`,
		"span.MW4etd",
	}
	phoneLabelSelectors = []string{
		`button[data-item-id^="phone"]`,
		`a[data-item-id^="phone"]`,
		`button[aria-label^="Phone"]`,
	}
	phoneBlockSelectors = []string{
		`div[data-item-id^="phone"] span`,
		`div[aria-label^="Phone"] span`,
	}
	websiteSelectors = []string{
		`a[data-item-id="authority"]`,
		`a[data-item-id="website"]`,
		`a[aria-label^="Website"]`,
	}
)

// Hosts that never count as a business's own website.
var websiteHostBlocklist = []string{
	"google.",
	"gstatic.com",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"youtube.com",
}

var phonePattern = regexp.MustCompile(`\+?[0-9][0-9 ().\-/]{5,}[0-9]`)

// Extract resolves a lead from a detail-page snapshot. Pure: same document,
// same lead. The caller owns the URL field.
func Extract(doc *goquery.Document) (domain.Lead, error) {
	lead := domain.Lead{
		Name:    extractName(doc),
		Address: firstText(doc, addressSelectors),
		Rating:  extractRating(doc),
		Phone:   extractPhone(doc),
		Website: extractWebsite(doc),
	}
	if lead.Empty() {
		return domain.Lead{}, ErrNoData
	}
	return lead, nil
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if txt := util.CleanText(doc.Find(sel).First().Text()); txt != "" {
			return txt
		}
	}
	return ""
}

func extractName(doc *goquery.Document) string {
	if name := firstText(doc, nameSelectors); name != "" {
		return name
	}
	// Last resort: the document title mirrors the place name.
	title := util.CleanText(doc.Find("title").First().Text())
	return util.CleanText(strings.TrimSuffix(title, "- Google Maps"))
}

func extractRating(doc *goquery.Document) string {
	for _, sel := range ratingSelectors {
		txt := util.CleanText(doc.Find(sel).First().Text())
		if txt == "" {
			continue
		}
		// Ratings are decimal strings like "4.7"; skip review counts and
		// other text the chain may land on.
		if _, err := strconv.ParseFloat(strings.ReplaceAll(txt, ",", "."), 64); err == nil {
			return txt
		}
	}
	return ""
}

// extractPhone resolves the phone through four strategies in priority order:
// labelled control text, tel: link target, labelled detail block, and a
// whole-page regex scan keeping the longest candidate with at least 7 digits.
func extractPhone(doc *goquery.Document) string {
	for _, sel := range phoneLabelSelectors {
		node := doc.Find(sel).First()
		if txt := util.NormalizePhone(node.Text()); txt != "" {
			return txt
		}
		if label, ok := node.Attr("aria-label"); ok {
			if txt := util.NormalizePhone(label); txt != "" {
				return txt
			}
		}
	}

	if href, ok := doc.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
		if txt := util.NormalizePhone(strings.TrimPrefix(href, "tel:")); txt != "" {
			return txt
		}
	}

	for _, sel := range phoneBlockSelectors {
		if txt := util.NormalizePhone(doc.Find(sel).First().Text()); txt != "" {
			return txt
		}
	}

	// Last resort: scan the page text for something phone-shaped.
	var best string
	for _, m := range phonePattern.FindAllString(doc.Text(), -1) {
		if util.CountDigits(m) < 7 {
			continue
		}
		if norm := util.NormalizePhone(m); len(norm) > len(best) {
			best = norm
		}
	}
	return best
}

func extractWebsite(doc *goquery.Document) string {
	for _, sel := range websiteSelectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok {
			if href = strings.TrimSpace(href); isExternalWebsite(href) {
				return href
			}
		}
	}

	// Fallback: the first absolute link pointing off the provider's own
	// properties and known social placeholders.
	var found string
	doc.Find(`a[href^="http"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		if href = strings.TrimSpace(href); isExternalWebsite(href) {
			found = href
			return false
		}
		return true
	})
	return found
}

func isExternalWebsite(href string) bool {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return false
	}
	low := strings.ToLower(href)
	for _, blocked := range websiteHostBlocklist {
		if strings.Contains(low, blocked) {
			return false
		}
	}
	return true
}
