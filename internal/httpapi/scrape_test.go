package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/scrape"
	"leadscout-engine/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return db
}

// failingLauncher makes every background pipeline fail fast; handler tests
// only care about the HTTP surface.
type failingLauncher struct{}

func (failingLauncher) Launch(context.Context) (scrape.Browser, func(), error) {
	return nil, nil, errors.New("no browser in tests")
}

// memJobStore keeps jobs in memory and speaks the store's sentinel errors.
type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]domain.ScrapeJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]domain.ScrapeJob)}
}

func (m *memJobStore) CreateScrapeJob(ctx context.Context, job domain.ScrapeJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *memJobStore) GetScrapeJob(ctx context.Context, id string) (domain.ScrapeJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.ScrapeJob{}, store.ErrNotFound
	}
	return j, nil
}

func (m *memJobStore) FinishScrapeJob(ctx context.Context, id string, status domain.JobStatus, result []domain.Lead, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.Status != domain.StatusPending {
		return store.ErrJobNotPending
	}
	j.Status = status
	j.Result = result
	j.Error = errMsg
	m.jobs[id] = j
	return nil
}

func (m *memJobStore) put(job domain.ScrapeJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
}

func newTestHandler(t *testing.T, jobs scrape.JobStore) (http.Handler, *scrape.Runner) {
	t.Helper()
	log := testLogger()
	runner := &scrape.Runner{
		Jobs:      jobs,
		Browser:   failingLauncher{},
		Collector: &scrape.Collector{Log: log, StableRounds: 1},
		Pool:      &scrape.Pool{Log: log, Concurrency: 1},
		Hub:       events.NewHub(),
		Log:       log,
	}
	h := Handlers{
		DB:      openTestDB(t),
		Runner:  runner,
		Hub:     runner.Hub,
		Log:     log,
		BaseURL: "http://127.0.0.1:38620",
	}
	return Chain(Routes(h), RequestID, Recover(log), AccessLog(log)), runner
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var parsed map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler(t, newMemJobStore())

	rec, body := doJSON(t, handler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["ok"])
}

func TestScrapeCreateValidation(t *testing.T) {
	jobs := newMemJobStore()
	handler, _ := newTestHandler(t, jobs)

	t.Run("empty query", func(t *testing.T) {
		rec, body := doJSON(t, handler, http.MethodPost, "/scrape", `{"query":"   "}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "validation_error", body["code"])
		require.NotEmpty(t, body["request_id"], "errors carry the request id")
		require.Empty(t, jobs.jobs)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, body := doJSON(t, handler, http.MethodPost, "/scrape", `{"query":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "validation_error", body["code"])
	})
}

func TestScrapeCreateAndPollLifecycle(t *testing.T) {
	handler, runner := newTestHandler(t, newMemJobStore())

	rec, body := doJSON(t, handler, http.MethodPost, "/scrape",
		`{"query":"dentists berlin","mustHave":["Phone"],"ratings":["4 stars"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "pending", body["status"])
	jobID, _ := body["jobId"].(string)
	require.NotEmpty(t, jobID)

	// The stub launcher fails the pipeline; the job must land in failed.
	runner.Wait()

	rec, body = doJSON(t, handler, http.MethodGet, "/scrape/status/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "failed", body["status"])
	require.Contains(t, body["error"], "no browser in tests")
	require.NotContains(t, body, "results")
}

func TestScrapeStatusShapes(t *testing.T) {
	jobs := newMemJobStore()
	handler, _ := newTestHandler(t, jobs)

	jobs.put(domain.ScrapeJob{ID: "done-1", Query: "q", Status: domain.StatusDone,
		Result: []domain.Lead{{Name: "Bella Pizza", Phone: "+12035551212"}}})
	jobs.put(domain.ScrapeJob{ID: "done-empty", Query: "q", Status: domain.StatusDone})
	jobs.put(domain.ScrapeJob{ID: "pend-1", Query: "q", Status: domain.StatusPending})

	t.Run("done carries results", func(t *testing.T) {
		rec, body := doJSON(t, handler, http.MethodGet, "/scrape/status/done-1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		results, ok := body["results"].([]any)
		require.True(t, ok)
		require.Len(t, results, 1)
	})

	t.Run("done with no leads returns an empty array, not null", func(t *testing.T) {
		_, body := doJSON(t, handler, http.MethodGet, "/scrape/status/done-empty", "")
		results, ok := body["results"].([]any)
		require.True(t, ok)
		require.Empty(t, results)
	})

	t.Run("pending has neither results nor error", func(t *testing.T) {
		_, body := doJSON(t, handler, http.MethodGet, "/scrape/status/pend-1", "")
		require.Equal(t, "pending", body["status"])
		require.NotContains(t, body, "results")
		require.NotContains(t, body, "error")
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		rec, body := doJSON(t, handler, http.MethodGet, "/scrape/status/nope", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "not_found", body["code"])
	})
}

func TestEmailOpenTracking(t *testing.T) {
	db := openTestDB(t)
	mux := Routes(Handlers{DB: db, Log: testLogger()})

	seed := func(id string, sentAt time.Time) {
		require.NoError(t, store.InsertSentEmail(context.Background(), db.Pool, store.SentEmail{
			ID: id, Recipient: "a@example.com", Subject: "hi", Body: "b", SentAt: sentAt,
		}))
	}

	get := func(id, ua string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/email-open/"+id, nil)
		if ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}
	openCount := func(id string) int {
		e, err := store.GetSentEmail(context.Background(), db.Pool, id)
		require.NoError(t, err)
		return e.OpenCount
	}

	browserUA := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	t.Run("real open is recorded and served the pixel", func(t *testing.T) {
		seed("e1", time.Now().Add(-time.Minute))
		rec := get("e1", browserUA)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
		require.Equal(t, 1, openCount("e1"))
	})

	t.Run("scanner user agents are ignored", func(t *testing.T) {
		seed("e2", time.Now().Add(-time.Minute))
		require.Equal(t, http.StatusOK, get("e2", "curl/8.4.0").Code)
		require.Equal(t, http.StatusOK, get("e2", "Googlebot/2.1").Code)
		require.Equal(t, http.StatusOK, get("e2", "").Code)
		require.Equal(t, 0, openCount("e2"))
	})

	t.Run("premature opens right after sending are ignored", func(t *testing.T) {
		seed("e3", time.Now())
		require.Equal(t, http.StatusOK, get("e3", browserUA).Code)
		require.Equal(t, 0, openCount("e3"))
	})

	t.Run("unknown id still serves the pixel", func(t *testing.T) {
		require.Equal(t, http.StatusOK, get("missing", browserUA).Code)
	})
}

func TestGenuineOpen(t *testing.T) {
	require.True(t, genuineOpen("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)"))
	require.False(t, genuineOpen("python-requests/2.31"))
	require.False(t, genuineOpen("Go-http-client/1.1"))
	require.False(t, genuineOpen("LinkPreviewBot"))
	require.False(t, genuineOpen(""))
}
