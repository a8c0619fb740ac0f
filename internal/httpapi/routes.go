package httpapi

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"leadscout-engine/internal/events"
	"leadscout-engine/internal/scrape"
	"leadscout-engine/internal/store"
)

// Handlers carries the dependencies every endpoint shares.
type Handlers struct {
	DB     *store.DB
	Runner *scrape.Runner
	Hub    *events.Hub
	Log    *logrus.Logger

	// BaseURL is the externally reachable address used for tracking-pixel
	// links embedded in outgoing mail, e.g. "http://127.0.0.1:38620".
	BaseURL string
}

func Routes(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /scrape", h.ScrapeCreate)
	mux.HandleFunc("GET /scrape/status/{id}", h.ScrapeStatus)
	mux.HandleFunc("GET /scrape/jobs", h.ScrapeJobs)

	mux.HandleFunc("GET /events", h.Events)

	mux.HandleFunc("GET /settings", h.SettingsGet)
	mux.HandleFunc("PUT /settings", h.SettingsPut)
	mux.HandleFunc("POST /settings/test-smtp", h.SettingsTestSMTP)
	mux.HandleFunc("POST /settings/test-imap", h.SettingsTestIMAP)

	mux.HandleFunc("POST /send-email", h.SendEmail)
	mux.HandleFunc("GET /emails/sent", h.SentEmails)
	mux.HandleFunc("GET /email-open/{id}", h.EmailOpen)
	mux.HandleFunc("GET /inbox", h.Inbox)

	return mux
}

func (h Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}
