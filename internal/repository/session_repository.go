package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pm-log-viewer/internal/utils"
)

// SessionRepo persists opaque session tokens with sliding expiration. A
// session is either active, expired by time, or revoked by logout; there
// is no other state.
type SessionRepo struct {
	DB      *sqlx.DB
	Timeout time.Duration
}

func NewSessionRepo(db *sqlx.DB, timeout time.Duration) *SessionRepo {
	return &SessionRepo{DB: db, Timeout: timeout}
}

// Create mints an unguessable token for the user and stores it with
// expires_at = now + timeout.
func (r *SessionRepo) Create(ctx context.Context, userID int64) (string, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, created_at, expires_at) VALUES (?,?,?,?)",
		token, userID, now.Unix(), now.Add(r.Timeout).Unix())
	if err != nil {
		return "", err
	}
	return token, nil
}

// Validate checks a token and, when valid, slides its expiry forward by
// the configured timeout. Expired rows across the whole table are purged
// first, so stale sessions never accumulate without a background sweeper.
// Purge, lookup and renewal run in one transaction; an empty token
// short-circuits without touching the store.
func (r *SessionRepo) Validate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidSession
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", now.Unix()); err != nil {
		return 0, err
	}
	var userID int64
	err = tx.GetContext(ctx, &userID,
		"SELECT user_id FROM sessions WHERE session_id=? AND expires_at > ?",
		token, now.Unix())
	if err == sql.ErrNoRows {
		// Keep the purge even when the queried token is gone.
		if cerr := tx.Commit(); cerr != nil {
			return 0, cerr
		}
		return 0, ErrInvalidSession
	}
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET expires_at=? WHERE session_id=?",
		now.Add(r.Timeout).Unix(), token); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}

// Delete removes a session. Unknown or empty tokens are a no-op, so
// logout is idempotent.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE session_id=?", token)
	return err
}
