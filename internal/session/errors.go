package session

import "errors"

var (
	// ErrAuth is returned when the Auth API rejects the credentials or
	// answers a login with something that is not a usable session
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork is returned when the Auth API could not be reached
	ErrNetwork = errors.New("network error")

	// ErrNetworkTimeout is returned when the Auth API did not answer in time
	ErrNetworkTimeout = errors.New("network timeout")

	// ErrLoginInProgress is returned when a login is attempted while another
	// one has not finished yet
	ErrLoginInProgress = errors.New("login already in progress")

	// ErrStore is returned when the session could not be persisted
	ErrStore = errors.New("session store error")
)
