// Package queue defines the audit event payload exchanged over the
// message broker and the background consumer that records events into the
// auth log.
package queue

// TimeLayout is the bracketed-line timestamp format the retrieval
// pipeline parses first; audit lines use it so auth.log is time-filterable
// like any other served file.
const TimeLayout = "02-01-2006 15:04:05"

// AuthEvent is published whenever something auth-relevant happens: a
// login attempt, a logout, or a user lifecycle change. It carries enough
// context for downstream consumers to log or alert without querying the
// database.
type AuthEvent struct {
	Event    string `json:"event"` // login.ok | login.failed | logout | user.created | user.deleted
	Username string `json:"username,omitempty"`
	UserID   int64  `json:"user_id,omitempty"`
	RemoteIP string `json:"remote_ip,omitempty"`
	At       string `json:"at"` // TimeLayout formatted, local time
}
