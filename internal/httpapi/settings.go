package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"leadscout-engine/internal/outreach"
	"leadscout-engine/internal/secrets"
	"leadscout-engine/internal/store"
)

// settingsRequest is the PUT /settings and test-endpoint payload. Passwords
// ride along in the request but are stored only in the OS keyring.
type settingsRequest struct {
	store.Settings
	SMTPPass string `json:"smtpPass,omitempty"`
	IMAPPass string `json:"imapPass,omitempty"`
}

func (h Handlers) SettingsGet(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetSettings(r.Context(), h.DB.Pool)
	if errors.Is(err, store.ErrNotFound) {
		// Unconfigured engine: return the empty shape rather than a 404 so
		// the UI can render a blank form.
		writeJSON(w, http.StatusOK, store.Settings{})
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("read settings")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h Handlers) SettingsPut(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	if err := store.UpsertSettings(r.Context(), h.DB.Pool, req.Settings); err != nil {
		h.Log.WithError(err).Error("save settings")
		writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to save settings")
		return
	}

	if strings.TrimSpace(req.SMTPPass) != "" {
		acct := secrets.Account("smtp", req.SMTPUser, req.SMTPHost)
		if err := secrets.SetPassword(acct, req.SMTPPass); err != nil {
			h.Log.WithError(err).Error("store smtp password")
			writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to store smtp password")
			return
		}
	}
	if strings.TrimSpace(req.IMAPPass) != "" {
		acct := secrets.Account("imap", req.IMAPUser, req.IMAPHost)
		if err := secrets.SetPassword(acct, req.IMAPPass); err != nil {
			h.Log.WithError(err).Error("store imap password")
			writeError(w, r, http.StatusInternalServerError, codeInternal, "failed to store imap password")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// SettingsTestSMTP verifies the submitted (or stored) SMTP endpoint by
// connecting and authenticating, without sending mail.
func (h Handlers) SettingsTestSMTP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.testPayload(w, r)
	if !ok {
		return
	}

	pass := req.SMTPPass
	if pass == "" {
		var err error
		pass, err = secrets.GetPassword(secrets.Account("smtp", req.SMTPUser, req.SMTPHost))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, codeValidation, "no smtp password provided or stored")
			return
		}
	}

	m := outreach.Mailer{Settings: req.Settings, Password: pass}
	if err := m.Verify(); err != nil {
		writeError(w, r, http.StatusBadGateway, codeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h Handlers) SettingsTestIMAP(w http.ResponseWriter, r *http.Request) {
	req, ok := h.testPayload(w, r)
	if !ok {
		return
	}

	pass := req.IMAPPass
	if pass == "" {
		var err error
		pass, err = secrets.GetPassword(secrets.Account("imap", req.IMAPUser, req.IMAPHost))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, codeValidation, "no imap password provided or stored")
			return
		}
	}

	if err := outreach.TestIMAP(req.Settings, pass); err != nil {
		writeError(w, r, http.StatusBadGateway, codeUpstream, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// testPayload reads the test-endpoint body, falling back to stored settings
// when the body is empty so "test what I saved" works.
func (h Handlers) testPayload(w http.ResponseWriter, r *http.Request) (settingsRequest, bool) {
	var req settingsRequest
	// An empty body means "test what I saved".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return settingsRequest{}, false
	}

	if req.SMTPHost == "" && req.IMAPHost == "" {
		s, serr := store.GetSettings(r.Context(), h.DB.Pool)
		if serr != nil {
			writeError(w, r, http.StatusBadRequest, codeValidation, "no settings provided or stored")
			return settingsRequest{}, false
		}
		req.Settings = s
	}
	return req, true
}
