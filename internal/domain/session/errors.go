package session

import "errors"

// Session domain errors
var (
	// Check-in errors
	ErrOpenSessionExists = errors.New("an open session already exists for this employee")
	ErrNotCheckedIn      = errors.New("no open session to check out of")
	ErrOutsideGeofence   = errors.New("check-in location is outside the permitted area")

	// Check-out errors
	ErrSessionAlreadyClosed = errors.New("session is already closed")

	// General errors
	ErrSessionNotFound = errors.New("attendance session not found")
)
