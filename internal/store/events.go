package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertEvent appends an event and returns its id.
func (s *SQLiteStore) InsertEvent(ctx context.Context, shortText, longText, mediaRef string) (int64, error) {
	query := `
		INSERT INTO events (short_text, long_text, media_ref, created_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query, shortText, longText, nullString(mediaRef), formatTime(s.now()))
	if err != nil {
		return 0, storageErr("insert event", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert event", err)
	}
	s.logger.Debug("inserted event", "id", id)
	return id, nil
}

// ListEvents returns every event, newest id first. It is a single
// statement, so the result is one consistent snapshot.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]Event, error) {
	query := `
		SELECT id, short_text, long_text, media_ref, created_at
		FROM events
		ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, storageErr("list events", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

// GetEvent retrieves an event by id.
// Returns ErrNotFound if the event doesn't exist.
func (s *SQLiteStore) GetEvent(ctx context.Context, id int64) (*Event, error) {
	query := `
		SELECT id, short_text, long_text, media_ref, created_at
		FROM events
		WHERE id = ?
	`
	ev, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get event", err)
	}
	return ev, nil
}

// DeleteEvent removes an event. Deleting an absent id is a no-op.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete event", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Debug("deleted event", "id", id)
	}
	return nil
}

// CountEvents returns the number of stored events.
func (s *SQLiteStore) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, storageErr("count events", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (*Event, error) {
	var ev Event
	var media sql.NullString
	var createdAt string
	if err := r.Scan(&ev.ID, &ev.ShortText, &ev.LongText, &media, &createdAt); err != nil {
		return nil, err
	}
	ev.MediaRef = media.String
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	ev.CreatedAt = t
	return &ev, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
