package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Settings holds outreach endpoints. Passwords live in the OS keyring, never
// in the database.
type Settings struct {
	SMTPHost   string `json:"smtpHost"`
	SMTPPort   int    `json:"smtpPort"`
	SMTPSecure bool   `json:"smtpSecure"`
	SMTPUser   string `json:"smtpUser"`

	IMAPHost   string `json:"imapHost"`
	IMAPPort   int    `json:"imapPort"`
	IMAPSecure bool   `json:"imapSecure"`
	IMAPUser   string `json:"imapUser"`
}

func GetSettings(ctx context.Context, db *sql.DB) (Settings, error) {
	row := db.QueryRowContext(ctx, `
SELECT smtp_host, smtp_port, smtp_secure, smtp_user,
       imap_host, imap_port, imap_secure, imap_user
FROM settings
WHERE id = 1;`)

	var s Settings
	err := row.Scan(&s.SMTPHost, &s.SMTPPort, &s.SMTPSecure, &s.SMTPUser,
		&s.IMAPHost, &s.IMAPPort, &s.IMAPSecure, &s.IMAPUser)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

func UpsertSettings(ctx context.Context, db *sql.DB, s Settings) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO settings(id, smtp_host, smtp_port, smtp_secure, smtp_user,
                     imap_host, imap_port, imap_secure, imap_user, updated_at)
VALUES(1,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  smtp_host = excluded.smtp_host,
  smtp_port = excluded.smtp_port,
  smtp_secure = excluded.smtp_secure,
  smtp_user = excluded.smtp_user,
  imap_host = excluded.imap_host,
  imap_port = excluded.imap_port,
  imap_secure = excluded.imap_secure,
  imap_user = excluded.imap_user,
  updated_at = excluded.updated_at;`,
		s.SMTPHost, s.SMTPPort, s.SMTPSecure, s.SMTPUser,
		s.IMAPHost, s.IMAPPort, s.IMAPSecure, s.IMAPUser,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
