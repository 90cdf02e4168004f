// Package repository persists users and sessions in SQLite. The sentinel
// values below let handlers and the CLI distinguish failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrUserExists is returned when creating a user whose username is
// already taken. Handlers translate this into an HTTP 409 response.
var ErrUserExists = errors.New("username already exists")

// ErrUserNotFound is returned when a delete or password change targets an
// unknown username.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials covers an unknown username, a wrong password and
// a malformed stored digest alike, so callers cannot tell them apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidSession is returned for a missing, unknown or expired session
// token.
var ErrInvalidSession = errors.New("invalid session")
