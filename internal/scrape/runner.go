package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/events"
)

// ErrEmptyQuery rejects job creation before anything is persisted.
var ErrEmptyQuery = errors.New("query is required")

// JobStore is the narrow persistence surface the runner needs. *store.DB
// satisfies it.
type JobStore interface {
	CreateScrapeJob(ctx context.Context, job domain.ScrapeJob) error
	GetScrapeJob(ctx context.Context, id string) (domain.ScrapeJob, error)
	FinishScrapeJob(ctx context.Context, id string, status domain.JobStatus, result []domain.Lead, errMsg string) error
}

// Runner owns the scrape-job lifecycle: create pending, run the pipeline in
// the background, write the terminal state exactly once.
type Runner struct {
	Jobs      JobStore
	Browser   Launcher
	Collector *Collector
	Pool      *Pool
	Hub       *events.Hub
	Log       *logrus.Logger

	wg sync.WaitGroup
}

// Create validates and persists a pending job, then schedules the pipeline
// without blocking the caller. The returned job is already safe to poll.
func (r *Runner) Create(ctx context.Context, query string, mustHave, ratings []string) (domain.ScrapeJob, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ScrapeJob{}, ErrEmptyQuery
	}

	now := time.Now().UTC()
	job := domain.ScrapeJob{
		ID:        uuid.NewString(),
		Query:     query,
		MustHave:  mustHave,
		Ratings:   ratings,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.Jobs.CreateScrapeJob(ctx, job); err != nil {
		return domain.ScrapeJob{}, fmt.Errorf("persist job: %w", err)
	}

	r.Log.WithFields(logrus.Fields{"job_id": job.ID, "query": job.Query}).Info("scrape job created")
	r.publish(events.TypeJobCreated, map[string]any{"id": job.ID})

	// Fire and forget: no retries, no cancellation. A failed job is
	// resubmitted as a new one.
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(job)
	}()

	return job, nil
}

// Status returns the latest persisted state; store.ErrNotFound for unknown
// ids passes through.
func (r *Runner) Status(ctx context.Context, id string) (domain.ScrapeJob, error) {
	return r.Jobs.GetScrapeJob(ctx, id)
}

// Wait blocks until all in-flight executions finish. Shutdown and tests use
// it; request handlers never do.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(job domain.ScrapeJob) {
	// Detached from the request: the pipeline runs to completion on its
	// own context.
	ctx := context.Background()
	log := r.Log.WithFields(logrus.Fields{"job_id": job.ID, "query": job.Query})

	start := time.Now()
	leads, err := r.runPipeline(ctx, job, log)
	if err != nil {
		log.WithError(err).Error("scrape job failed")
		if ferr := r.Jobs.FinishScrapeJob(ctx, job.ID, domain.StatusFailed, nil, err.Error()); ferr != nil {
			log.WithError(ferr).Error("terminal update failed; job stays pending")
		}
		r.publish(events.TypeJobFailed, map[string]any{"id": job.ID, "error": err.Error()})
		return
	}

	if ferr := r.Jobs.FinishScrapeJob(ctx, job.ID, domain.StatusDone, leads, ""); ferr != nil {
		log.WithError(ferr).Error("terminal update failed; job stays pending")
		return
	}

	log.WithFields(logrus.Fields{
		"leads":  len(leads),
		"dur_ms": time.Since(start).Milliseconds(),
	}).Info("scrape job done")
	r.publish(events.TypeJobDone, map[string]any{"id": job.ID, "leads": len(leads)})
}

// runPipeline is collect -> scrape -> filter. Only collector and browser
// failures are fatal; everything inside the worker pool recovers locally.
func (r *Runner) runPipeline(ctx context.Context, job domain.ScrapeJob, log *logrus.Entry) ([]domain.Lead, error) {
	b, closeBrowser, err := r.Browser.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer closeBrowser()

	links, err := r.Collector.Collect(ctx, b, job.Query)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		// No results for this query is a valid done-with-empty outcome.
		log.Info("no candidates found")
		return []domain.Lead{}, nil
	}

	leads := r.Pool.Scrape(ctx, b, links)
	log.WithFields(logrus.Fields{"candidates": len(links), "scraped": len(leads)}).Info("detail scrape finished")

	filtered := Filter(leads, job.MustHave, job.Ratings)
	if filtered == nil {
		filtered = []domain.Lead{}
	}
	return filtered, nil
}

func (r *Runner) publish(typ string, data any) {
	if r.Hub == nil {
		return
	}
	r.Hub.Publish(events.Make("", typ, data))
}
