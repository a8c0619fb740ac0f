package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadscout-engine/internal/events"
	"leadscout-engine/internal/outreach"
	"leadscout-engine/internal/secrets"
	"leadscout-engine/internal/store"
)

// trackingGIF is a transparent 1x1 pixel served by the open-tracking
// endpoint.
var trackingGIF, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// prematureOpenWindow filters opens that arrive almost instantly after
// sending; those are the sender's own client or a relay-side scanner, not
// the recipient.
const prematureOpenWindow = 4500 * time.Millisecond

type sendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.To) == "" {
		writeError(w, r, http.StatusBadRequest, codeValidation, "recipient is required")
		return
	}

	settings, err := store.GetSettings(r.Context(), h.DB.Pool)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "smtp settings are not configured")
		return
	}
	pass, err := secrets.GetPassword(secrets.Account("smtp", settings.SMTPUser, settings.SMTPHost))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "no smtp password stored")
		return
	}

	trackingID := uuid.NewString()
	body := req.Body + fmt.Sprintf(
		`<img src="%s/email-open/%s" width="1" height="1" style="display:none" alt=""/>`,
		strings.TrimRight(h.BaseURL, "/"), trackingID)

	m := outreach.Mailer{Settings: settings, Password: pass}
	if err := m.Send(req.To, req.Subject, body); err != nil {
		h.Log.WithError(err).Error("send email")
		writeError(w, r, http.StatusBadGateway, codeUpstream, err.Error())
		return
	}

	e := store.SentEmail{
		ID:        trackingID,
		Recipient: req.To,
		Subject:   req.Subject,
		Body:      req.Body,
		SentAt:    time.Now().UTC(),
	}
	if err := store.InsertSentEmail(r.Context(), h.DB.Pool, e); err != nil {
		// Mail is already out; losing the tracking row is not worth a 500.
		h.Log.WithError(err).Error("record sent email")
	}

	if h.Hub != nil {
		h.Hub.Publish(events.Make(RequestIDFrom(r.Context()), events.TypeEmailSent,
			map[string]any{"id": trackingID, "to": req.To}))
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": trackingID})
}

func (h Handlers) SentEmails(w http.ResponseWriter, r *http.Request) {
	list, err := store.ListSentEmails(r.Context(), h.DB.Pool)
	if err != nil {
		h.Log.WithError(err).Error("list sent emails")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to list sent emails")
		return
	}
	if list == nil {
		list = []store.SentEmail{}
	}
	writeJSON(w, http.StatusOK, list)
}

// EmailOpen serves the tracking pixel. It always answers with the GIF; the
// open is only recorded when the request looks like a real recipient.
func (h Handlers) EmailOpen(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if genuineOpen(r.UserAgent()) {
		e, err := store.GetSentEmail(r.Context(), h.DB.Pool, id)
		if err == nil && time.Since(e.SentAt) > prematureOpenWindow {
			if err := store.RecordEmailOpen(r.Context(), h.DB.Pool, id); err == nil {
				h.Log.WithField("email_id", id).Info("email opened")
				if h.Hub != nil {
					h.Hub.Publish(events.Make("", events.TypeEmailOpened,
						map[string]any{"id": id}))
				}
			}
		}
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(trackingGIF)
}

// genuineOpen rejects link scanners and CLI fetchers by user agent.
func genuineOpen(ua string) bool {
	ua = strings.ToLower(ua)
	if ua == "" {
		return false
	}
	for _, marker := range []string{"bot", "crawler", "spider", "preview", "curl", "wget", "python", "go-http-client", "java"} {
		if strings.Contains(ua, marker) {
			return false
		}
	}
	return true
}

func (h Handlers) Inbox(w http.ResponseWriter, r *http.Request) {
	settings, err := store.GetSettings(r.Context(), h.DB.Pool)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "imap settings are not configured")
		return
	}
	pass, err := secrets.GetPassword(secrets.Account("imap", settings.IMAPUser, settings.IMAPHost))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "no imap password stored")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := outreach.FetchRecent(settings, pass, limit)
	if err != nil {
		h.Log.WithError(err).Error("fetch inbox")
		writeError(w, r, http.StatusBadGateway, codeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
