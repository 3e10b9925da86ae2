// Package directory holds the set of mentionable users and the cache that
// fetches it from the users endpoint.
package directory

import (
	"errors"
	"strings"
)

// ErrUnexpectedStatus is wrapped by fetch errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// User is a single directory entry. Username is its identity.
type User struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// FullName joins first and last name, skipping empty parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Status is the lifecycle state of a directory snapshot.
type Status int

const (
	StatusUnfetched Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// String returns the display name for the status.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unfetched"
	}
}

// Snapshot is the live view of the directory.
// Users is only set when Status is StatusLoaded, Err only when StatusFailed.
type Snapshot struct {
	Status Status
	Users  []User
	Err    error
}
