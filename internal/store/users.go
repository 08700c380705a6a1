package store

import (
	"context"
	"time"
)

// AddUser registers a member. Registering an existing id is a no-op and
// keeps the original handle and join time.
func (s *SQLiteStore) AddUser(ctx context.Context, u User) error {
	joined := u.JoinedAt
	if joined.IsZero() {
		joined = s.now()
	}
	query := `
		INSERT INTO users (id, handle, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, u.ID, u.Handle, formatTime(joined))
	if err != nil {
		return storageErr("add user", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Info("registered user", "user_id", u.ID, "handle", u.Handle)
	}
	return nil
}

// ListUserIDs returns every known member id in registration order.
func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY rowid`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("list users", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return ids, nil
}

// GetUser retrieves a member by id.
// Returns ErrNotFound if the user never interacted with the bot.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	var joined string
	err := s.db.QueryRowContext(ctx, `SELECT id, handle, joined_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Handle, &joined)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get user", err)
	}
	if u.JoinedAt, err = parseTime(joined); err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// CountUsers returns the number of registered members.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}

// CountUsersSince returns the number of members registered at or after t.
func (s *SQLiteStore) CountUsersSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE joined_at >= ?`, formatTime(t)).Scan(&n)
	if err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}
