// Package system provides the real clock implementation.
package system

import "time"

// Clock implements snapshot.Clock using time.Now. All scheduling in skysnap
// is done in UTC, so Now always returns UTC.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
