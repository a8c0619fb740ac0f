package outreach

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"leadscout-engine/internal/store"
)

// Mailer sends outreach mail through the SMTP endpoint configured in
// settings. The password comes from the OS keyring, never from settings.
type Mailer struct {
	Settings store.Settings
	Password string
}

// Verify opens a connection and authenticates without sending anything.
// Used by the settings test endpoint.
func (m Mailer) Verify() error {
	c, err := m.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Quit()
}

// Send delivers one HTML message.
func (m Mailer) Send(to, subject, htmlBody string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("recipient is required")
	}

	c, err := m.connect()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mail(m.Settings.SMTPUser); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := strings.Join([]string{
		"From: " + m.Settings.SMTPUser,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return c.Quit()
}

// connect dials, upgrades to TLS (implicit for secure endpoints, STARTTLS
// otherwise) and authenticates.
func (m Mailer) connect() (*smtp.Client, error) {
	s := m.Settings
	if strings.TrimSpace(s.SMTPHost) == "" || s.SMTPPort == 0 {
		return nil, errors.New("smtp host/port not configured")
	}
	addr := fmt.Sprintf("%s:%d", s.SMTPHost, s.SMTPPort)

	var c *smtp.Client
	if s.SMTPSecure {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.SMTPHost, MinVersion: tls.VersionTLS12})
		if err != nil {
			return nil, fmt.Errorf("smtp tls dial: %w", err)
		}
		c, err = smtp.NewClient(conn, s.SMTPHost)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("smtp client: %w", err)
		}
	} else {
		var err error
		c, err = smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("smtp dial: %w", err)
		}
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
				c.Close()
				return nil, fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if ok, _ := c.Extension("AUTH"); ok && s.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.SMTPUser, m.Password, s.SMTPHost)
		if err := c.Auth(auth); err != nil {
			c.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}
	return c, nil
}
