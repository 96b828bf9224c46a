package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoCredential     = fmt.Errorf("missing session credential")
	ErrTokenExpired     = fmt.Errorf("session token expired")
	ErrForbidden        = fmt.Errorf("forbidden: premium account required")
	ErrStateMismatch    = fmt.Errorf("login state mismatch")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrNoContent          = fmt.Errorf("no content")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Room and playback preconditions
	ErrNoActiveRoom = fmt.Errorf("no active room")
	ErrNoDevice     = fmt.Errorf("no active device")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
