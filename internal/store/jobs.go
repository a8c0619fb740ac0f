package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadscout-engine/internal/domain"
)

// ErrJobNotPending is returned when a terminal update targets a job that is
// missing or already finished. A job is written exactly twice: once at
// creation and once with its terminal state.
var ErrJobNotPending = errors.New("job is not pending")

func CreateScrapeJob(ctx context.Context, db *sql.DB, job domain.ScrapeJob) error {
	mustB, _ := json.Marshal(emptyIfNil(job.MustHave))
	ratingsB, _ := json.Marshal(emptyIfNil(job.Ratings))

	_, err := db.ExecContext(ctx, `
INSERT INTO scrape_jobs(id, query, must_have, ratings, status, created_at, updated_at)
VALUES(?,?,?,?,?,?,?);`,
		job.ID,
		job.Query,
		string(mustB),
		string(ratingsB),
		string(job.Status),
		job.CreatedAt.UTC().Format(time.RFC3339),
		job.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create scrape job: %w", err)
	}
	return nil
}

func GetScrapeJob(ctx context.Context, db *sql.DB, id string) (domain.ScrapeJob, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, query, must_have, ratings, status, result, error, created_at, updated_at
FROM scrape_jobs
WHERE id = ?;`, id)

	var j domain.ScrapeJob
	var mustJSON, ratingsJSON, resultJSON, createdStr, updatedStr string
	err := row.Scan(&j.ID, &j.Query, &mustJSON, &ratingsJSON, (*string)(&j.Status),
		&resultJSON, &j.Error, &createdStr, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScrapeJob{}, ErrNotFound
	}
	if err != nil {
		return domain.ScrapeJob{}, err
	}

	_ = json.Unmarshal([]byte(mustJSON), &j.MustHave)
	_ = json.Unmarshal([]byte(ratingsJSON), &j.Ratings)
	_ = json.Unmarshal([]byte(resultJSON), &j.Result)
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return j, nil
}

// FinishScrapeJob writes the terminal state. The status guard makes the
// transition one-way: a done or failed job can never be rewritten.
func FinishScrapeJob(ctx context.Context, db *sql.DB, id string, status domain.JobStatus, result []domain.Lead, errMsg string) error {
	if !status.Terminal() {
		return fmt.Errorf("finish scrape job: %q is not a terminal status", status)
	}

	resultB, _ := json.Marshal(emptyIfNilLeads(result))

	res, err := db.ExecContext(ctx, `
UPDATE scrape_jobs
SET status = ?, result = ?, error = ?, updated_at = ?
WHERE id = ? AND status = 'pending';`,
		string(status),
		string(resultB),
		errMsg,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish scrape job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrJobNotPending
	}
	return nil
}

// ListScrapeJobs returns recent jobs without their result payloads.
func ListScrapeJobs(ctx context.Context, db *sql.DB, limit int) ([]domain.ScrapeJob, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := db.QueryContext(ctx, `
SELECT id, query, must_have, ratings, status, error, created_at, updated_at
FROM scrape_jobs
ORDER BY created_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScrapeJob
	for rows.Next() {
		var j domain.ScrapeJob
		var mustJSON, ratingsJSON, createdStr, updatedStr string
		if err := rows.Scan(&j.ID, &j.Query, &mustJSON, &ratingsJSON,
			(*string)(&j.Status), &j.Error, &createdStr, &updatedStr); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(mustJSON), &j.MustHave)
		_ = json.Unmarshal([]byte(ratingsJSON), &j.Ratings)
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
		out = append(out, j)
	}
	return out, rows.Err()
}

func CleanupOldJobs(db *sql.DB, maxAgeDays int) (deleted int64, err error) {
	if maxAgeDays <= 0 {
		return 0, nil
	}
	res, err := db.Exec(fmt.Sprintf(`
DELETE FROM scrape_jobs
WHERE status != 'pending'
  AND created_at < datetime('now', '-%d days');`, maxAgeDays))
	if err != nil {
		return 0, fmt.Errorf("cleanup old jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Method forms so *DB satisfies the runner's JobStore interface.

func (d *DB) CreateScrapeJob(ctx context.Context, job domain.ScrapeJob) error {
	return CreateScrapeJob(ctx, d.Pool, job)
}

func (d *DB) GetScrapeJob(ctx context.Context, id string) (domain.ScrapeJob, error) {
	return GetScrapeJob(ctx, d.Pool, id)
}

func (d *DB) FinishScrapeJob(ctx context.Context, id string, status domain.JobStatus, result []domain.Lead, errMsg string) error {
	return FinishScrapeJob(ctx, d.Pool, id, status, result, errMsg)
}

func emptyIfNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func emptyIfNilLeads(xs []domain.Lead) []domain.Lead {
	if xs == nil {
		return []domain.Lead{}
	}
	return xs
}
