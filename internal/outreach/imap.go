package outreach

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"leadscout-engine/internal/store"
)

type InboxMessage struct {
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Date    time.Time `json:"date"`
}

// TestIMAP dials, logs in and opens INBOX, the cheapest end-to-end check
// that the configured endpoint works.
func TestIMAP(s store.Settings, password string) error {
	c, err := dialIMAP(s, password)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return fmt.Errorf("imap select inbox: %w", err)
	}
	return c.Logout().Wait()
}

// FetchRecent returns envelope data for the newest messages in INBOX,
// newest first.
func FetchRecent(s store.Settings, password string, limit int) ([]InboxMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	c, err := dialIMAP(s, password)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	mbox, err := c.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap select inbox: %w", err)
	}
	if mbox.NumMessages == 0 {
		return []InboxMessage{}, nil
	}

	first := uint32(1)
	if n := mbox.NumMessages; n > uint32(limit) {
		first = n - uint32(limit) + 1
	}
	var seq imap.SeqSet
	seq.AddRange(first, mbox.NumMessages)

	msgs, err := c.Fetch(seq, &imap.FetchOptions{Envelope: true}).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch envelopes: %w", err)
	}

	out := make([]InboxMessage, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		env := msgs[i].Envelope
		if env == nil {
			continue
		}
		out = append(out, InboxMessage{
			Subject: env.Subject,
			From:    formatAddresses(env.From),
			To:      formatAddresses(env.To),
			Date:    env.Date,
		})
	}

	if err := c.Logout().Wait(); err != nil {
		return out, nil // messages already in hand; logout failure is noise
	}
	return out, nil
}

func dialIMAP(s store.Settings, password string) (*imapclient.Client, error) {
	if strings.TrimSpace(s.IMAPHost) == "" || s.IMAPPort == 0 {
		return nil, errors.New("imap host/port not configured")
	}
	if strings.TrimSpace(s.IMAPUser) == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}

	addr := fmt.Sprintf("%s:%d", s.IMAPHost, s.IMAPPort)
	opts := &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: s.IMAPHost},
	}

	var c *imapclient.Client
	var err error
	if s.IMAPSecure {
		c, err = imapclient.DialTLS(addr, opts)
	} else {
		c, err = imapclient.DialStartTLS(addr, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial: %w", err)
	}

	if err := c.Login(s.IMAPUser, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

func formatAddresses(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Mailbox == "" || a.Host == "" {
			continue
		}
		parts = append(parts, a.Mailbox+"@"+a.Host)
	}
	return strings.Join(parts, ", ")
}
