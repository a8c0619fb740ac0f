package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SentEmail struct {
	ID        string     `json:"id"`
	Recipient string     `json:"to"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	OpenCount int        `json:"openCount"`
	OpenedAt  *time.Time `json:"openedAt"`
	SentAt    time.Time  `json:"sentAt"`
}

func InsertSentEmail(ctx context.Context, db *sql.DB, e SentEmail) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO sent_emails(id, recipient, subject, body, open_count, sent_at)
VALUES(?,?,?,?,0,?);`,
		e.ID, e.Recipient, e.Subject, e.Body, e.SentAt.UTC().Format(time.RFC3339))
	return err
}

func ListSentEmails(ctx context.Context, db *sql.DB) ([]SentEmail, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, recipient, subject, body, open_count, opened_at, sent_at
FROM sent_emails
ORDER BY sent_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SentEmail
	for rows.Next() {
		var e SentEmail
		var openedAt sql.NullString
		var sentAt string
		if err := rows.Scan(&e.ID, &e.Recipient, &e.Subject, &e.Body,
			&e.OpenCount, &openedAt, &sentAt); err != nil {
			return nil, err
		}
		if openedAt.Valid {
			if t, err := time.Parse(time.RFC3339, openedAt.String); err == nil {
				e.OpenedAt = &t
			}
		}
		e.SentAt, _ = time.Parse(time.RFC3339, sentAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordEmailOpen bumps the open counter and stamps the first open time.
func RecordEmailOpen(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx, `
UPDATE sent_emails
SET open_count = open_count + 1,
    opened_at = COALESCE(opened_at, ?)
WHERE id = ?;`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSentEmail is used by the open-tracking endpoint to filter premature
// requests from scanners.
func GetSentEmail(ctx context.Context, db *sql.DB, id string) (SentEmail, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, recipient, subject, body, open_count, opened_at, sent_at
FROM sent_emails
WHERE id = ?;`, id)

	var e SentEmail
	var openedAt sql.NullString
	var sentAt string
	err := row.Scan(&e.ID, &e.Recipient, &e.Subject, &e.Body,
		&e.OpenCount, &openedAt, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SentEmail{}, ErrNotFound
	}
	if err != nil {
		return SentEmail{}, err
	}
	if openedAt.Valid {
		if t, perr := time.Parse(time.RFC3339, openedAt.String); perr == nil {
			e.OpenedAt = &t
		}
	}
	e.SentAt, _ = time.Parse(time.RFC3339, sentAt)
	return e, nil
}
