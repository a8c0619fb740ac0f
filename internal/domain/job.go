package domain

import "time"

type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// ScrapeJob tracks one query's end-to-end extraction-and-filter run.
// Status moves pending->done or pending->failed exactly once; nothing
// mutates a job after the terminal write.
type ScrapeJob struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	MustHave  []string  `json:"mustHave"`
	Ratings   []string  `json:"ratings"`
	Status    JobStatus `json:"status"`
	Result    []Lead    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}
