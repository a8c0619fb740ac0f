package scrape

import (
	"math"
	"strconv"
	"strings"

	"leadscout-engine/internal/domain"
)

var mustHaveField = map[string]func(domain.Lead) string{
	"Address": func(l domain.Lead) string { return l.Address },
	"Phone":   func(l domain.Lead) string { return l.Phone },
	"Website": func(l domain.Lead) string { return l.Website },
}

// Filter applies the must-have and rating-bucket predicates, ANDed, as a
// stable filter over the input order. Empty criteria pass everything.
func Filter(leads []domain.Lead, mustHave, ratings []string) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if passesMustHave(l, mustHave) && passesRatings(l, ratings) {
			out = append(out, l)
		}
	}
	return out
}

// passesMustHave requires every requested field to be non-blank after
// trimming. Unrecognized tags are ignored.
func passesMustHave(l domain.Lead, mustHave []string) bool {
	for _, tag := range mustHave {
		get, ok := mustHaveField[tag]
		if !ok {
			continue
		}
		if strings.TrimSpace(get(l)) == "" {
			return false
		}
	}
	return true
}

// passesRatings buckets the lead's decimal rating by flooring it and accepts
// when any requested bucket matches. A lead without a parseable rating fails
// whenever buckets are requested.
func passesRatings(l domain.Lead, ratings []string) bool {
	if len(ratings) == 0 {
		return true
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(l.Rating), 64)
	if err != nil {
		return false
	}
	bucket := int(math.Floor(val))

	for _, label := range ratings {
		if want, ok := bucketFromLabel(label); ok && want == bucket {
			return true
		}
	}
	return false
}

// bucketFromLabel parses labels like "4 stars" (or plain "4") into the
// integer star bucket.
func bucketFromLabel(label string) (int, bool) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}
