package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape"
	"leadscout-engine/internal/store"
)

type scrapeRequest struct {
	Query    string   `json:"query"`
	MustHave []string `json:"mustHave"`
	Ratings  []string `json:"ratings"`
}

func (h Handlers) ScrapeCreate(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	job, err := h.Runner.Create(r.Context(), req.Query, req.MustHave, req.Ratings)
	if errors.Is(err, scrape.ErrEmptyQuery) {
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("create scrape job")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to create job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

func (h Handlers) ScrapeStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := h.Runner.Status(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "job not found")
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("read scrape job")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to read job")
		return
	}

	resp := map[string]any{"status": job.Status}
	switch job.Status {
	case domain.StatusDone:
		results := job.Result
		if results == nil {
			results = []domain.Lead{}
		}
		resp["results"] = results
	case domain.StatusFailed:
		resp["error"] = job.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h Handlers) ScrapeJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	jobs, err := store.ListScrapeJobs(r.Context(), h.DB.Pool, limit)
	if err != nil {
		h.Log.WithError(err).Error("list scrape jobs")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []domain.ScrapeJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}
