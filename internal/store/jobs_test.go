package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leadscout-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func pendingJob(id, query string) domain.ScrapeJob {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.ScrapeJob{
		ID:        id,
		Query:     query,
		MustHave:  []string{"Phone"},
		Ratings:   []string{"4 stars"},
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestScrapeJobRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	job := pendingJob("job-1", "dentists berlin")
	require.NoError(t, db.CreateScrapeJob(ctx, job))

	got, err := db.GetScrapeJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, job.ID, got.ID)
	require.Equal(t, job.Query, got.Query)
	require.Equal(t, job.MustHave, got.MustHave)
	require.Equal(t, job.Ratings, got.Ratings)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Empty(t, got.Result)
	require.Empty(t, got.Error)
}

func TestGetScrapeJobUnknownID(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetScrapeJob(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFinishScrapeJobDone(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateScrapeJob(ctx, pendingJob("job-1", "q")))

	leads := []domain.Lead{{Name: "Bella Pizza", Phone: "+12035551212", Rating: "4.6"}}
	require.NoError(t, db.FinishScrapeJob(ctx, "job-1", domain.StatusDone, leads, ""))

	got, err := db.GetScrapeJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDone, got.Status)
	require.Equal(t, leads, got.Result)
	require.Empty(t, got.Error)
}

func TestFinishScrapeJobFailed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateScrapeJob(ctx, pendingJob("job-1", "q")))

	require.NoError(t, db.FinishScrapeJob(ctx, "job-1", domain.StatusFailed, nil, "load search page: timeout"))

	got, err := db.GetScrapeJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, got.Status)
	require.Equal(t, "load search page: timeout", got.Error)
	require.Empty(t, got.Result)
}

func TestFinishScrapeJobTerminalOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateScrapeJob(ctx, pendingJob("job-1", "q")))
	require.NoError(t, db.FinishScrapeJob(ctx, "job-1", domain.StatusDone, nil, ""))

	t.Run("second terminal write is rejected", func(t *testing.T) {
		err := db.FinishScrapeJob(ctx, "job-1", domain.StatusFailed, nil, "too late")
		require.ErrorIs(t, err, ErrJobNotPending)

		got, gerr := db.GetScrapeJob(ctx, "job-1")
		require.NoError(t, gerr)
		require.Equal(t, domain.StatusDone, got.Status, "first terminal state sticks")
	})

	t.Run("unknown id is the same rejection", func(t *testing.T) {
		err := db.FinishScrapeJob(ctx, "missing", domain.StatusDone, nil, "")
		require.ErrorIs(t, err, ErrJobNotPending)
	})

	t.Run("non-terminal status is refused outright", func(t *testing.T) {
		err := db.FinishScrapeJob(ctx, "job-1", domain.StatusPending, nil, "")
		require.Error(t, err)
	})
}

func TestListScrapeJobsOmitsResults(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		job := pendingJob(id, "query "+id)
		require.NoError(t, db.CreateScrapeJob(ctx, job))
	}
	require.NoError(t, db.FinishScrapeJob(ctx, "b", domain.StatusDone,
		[]domain.Lead{{Name: "X", Phone: "+1"}}, ""))

	jobs, err := ListScrapeJobs(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	for _, j := range jobs {
		require.Empty(t, j.Result, "listing never carries result payloads")
	}
}

func TestCleanupOldJobsSparesPending(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := pendingJob("old-done", "q")
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -120)
	old.UpdatedAt = old.CreatedAt
	require.NoError(t, db.CreateScrapeJob(ctx, old))
	require.NoError(t, db.FinishScrapeJob(ctx, "old-done", domain.StatusDone, nil, ""))

	oldPending := pendingJob("old-pending", "q")
	oldPending.CreatedAt = old.CreatedAt
	oldPending.UpdatedAt = old.CreatedAt
	require.NoError(t, db.CreateScrapeJob(ctx, oldPending))

	fresh := pendingJob("fresh", "q")
	require.NoError(t, db.CreateScrapeJob(ctx, fresh))

	deleted, err := CleanupOldJobs(db.Pool, 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = db.GetScrapeJob(ctx, "old-done")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetScrapeJob(ctx, "old-pending")
	require.NoError(t, err, "pending jobs are never purged")
	_, err = db.GetScrapeJob(ctx, "fresh")
	require.NoError(t, err)
}
