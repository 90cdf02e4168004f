package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pm-log-viewer/internal/utils"
)

// User mirrors the 'users' table. Timestamps are unix seconds; LastLogin
// is NULL until the first successful login.
type User struct {
	ID           int64         `db:"id"`
	Username     string        `db:"username"`
	PasswordHash string        `db:"password_hash"`
	CreatedAt    int64         `db:"created_at"`
	LastLogin    sql.NullInt64 `db:"last_login"`
}

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a freshly salted digest and returns its ID.
// Usernames are case-sensitive and stored as given.
func (r *UserRepo) Create(ctx context.Context, username, password string) (int64, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?,?,?)",
		username, hash, time.Now().Unix())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, ErrUserExists
		}
		return 0, err
	}
	return res.LastInsertId()
}

// VerifyCredentials checks a username/password pair. On success it stamps
// last_login and returns the user id; an unknown username, a wrong
// password and a malformed stored digest all report ErrInvalidCredentials.
func (r *UserRepo) VerifyCredentials(ctx context.Context, username, password string) (int64, error) {
	var u User
	err := r.DB.GetContext(ctx, &u,
		"SELECT id, password_hash FROM users WHERE username=? LIMIT 1", username)
	if err == sql.ErrNoRows {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return 0, ErrInvalidCredentials
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login=? WHERE id=?", time.Now().Unix(), u.ID); err != nil {
		return 0, err
	}
	return u.ID, nil
}

// ChangePassword stores a freshly salted digest of the new password.
func (r *UserRepo) ChangePassword(ctx context.Context, username, newPassword string) error {
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE username=?", hash, username)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a user; its sessions go with it through the foreign key
// cascade.
func (r *UserRepo) Delete(ctx context.Context, username string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE username=?", username)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// List returns all users ordered by username. Password digests are not
// selected.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	var users []User
	err := r.DB.SelectContext(ctx, &users,
		"SELECT id, username, created_at, last_login FROM users ORDER BY username")
	return users, err
}

// Count reports how many users exist.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM users")
	return n, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
