// Package store keeps a local history of posted menus in a sqlite file.
// Its main job is making the daily post idempotent across restarts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	canteen TEXT NOT NULL,
	menu_date TEXT NOT NULL,
	stream TEXT NOT NULL,
	topic TEXT NOT NULL,
	menu_message_id INTEGER NOT NULL,
	poll_message_id INTEGER,
	sent_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS posts_canteen_date ON posts (canteen, menu_date);
`

// PostRecord is one posted menu.
type PostRecord struct {
	// Canteen is the canteen ID the menu belonged to.
	Canteen string
	// MenuDate is the menu date as "YYYY-MM-DD".
	MenuDate string
	// Stream and Topic identify where the menu was posted.
	Stream string
	Topic  string
	// MenuMessageID is the Zulip ID of the menu message.
	MenuMessageID int64
	// PollMessageID is the Zulip ID of the poll message, 0 if none was sent.
	PollMessageID int64
	// SentAt is when the menu message was sent.
	SentAt time.Time
}

// Store wraps the sqlite post history.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordPost stores one posted menu.
func (s *Store) RecordPost(ctx context.Context, rec PostRecord) error {
	var pollID any
	if rec.PollMessageID != 0 {
		pollID = rec.PollMessageID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (canteen, menu_date, stream, topic, menu_message_id, poll_message_id, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Canteen, rec.MenuDate, rec.Stream, rec.Topic, rec.MenuMessageID, pollID, rec.SentAt.UTC())
	if err != nil {
		return fmt.Errorf("recording post for %s/%s: %w", rec.Canteen, rec.MenuDate, err)
	}
	return nil
}

// AlreadyPosted reports whether a menu for the canteen and date was
// posted before.
func (s *Store) AlreadyPosted(ctx context.Context, canteen, menuDate string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE canteen = ? AND menu_date = ?`,
		canteen, menuDate).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("querying post history for %s/%s: %w", canteen, menuDate, err)
	}
	return count > 0, nil
}

// RecentPosts returns the most recent posts, newest first.
func (s *Store) RecentPosts(ctx context.Context, limit int) ([]PostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canteen, menu_date, stream, topic, menu_message_id, COALESCE(poll_message_id, 0), sent_at
		FROM posts ORDER BY sent_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying post history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []PostRecord
	for rows.Next() {
		var rec PostRecord
		if err := rows.Scan(&rec.Canteen, &rec.MenuDate, &rec.Stream, &rec.Topic,
			&rec.MenuMessageID, &rec.PollMessageID, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("scanning post record: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
