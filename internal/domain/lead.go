package domain

import "strings"

// Lead is the structured record extracted from one business detail page.
// Absent data is always an empty string, never null; the UI and the filter
// layer both rely on that.
type Lead struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Rating  string `json:"rating"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	URL     string `json:"url"`
}

// Empty reports whether no field carries data. An empty lead is an
// extraction failure, not a valid zero-value result.
func (l Lead) Empty() bool {
	return strings.TrimSpace(l.Name) == "" &&
		strings.TrimSpace(l.Address) == "" &&
		strings.TrimSpace(l.Rating) == "" &&
		strings.TrimSpace(l.Phone) == "" &&
		strings.TrimSpace(l.Website) == "" &&
		strings.TrimSpace(l.URL) == ""
}

// CandidateLink is a discovered reference to one business detail page,
// produced by the collector and consumed by the worker pool. Transient,
// never persisted.
type CandidateLink struct {
	Name string
	URL  string
}
