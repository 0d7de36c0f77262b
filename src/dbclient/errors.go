package dbclient

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingURI is returned when Initialize is called without a connection string.
	ErrMissingURI = errors.New("connection string is empty")

	// ErrAlreadyInitialized is returned by a second Initialize after a successful one.
	// The stored client is never replaced.
	ErrAlreadyInitialized = errors.New("database client already initialized")

	// ErrNotInitialized is returned when the client is requested before Initialize succeeded.
	ErrNotInitialized = errors.New("database client not initialized")

	// ErrClosed is returned by Client after Close. A closed manager is never reopened.
	ErrClosed = errors.New("database client closed")
)

// ConfigError reports a connection string or option the driver rejected
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid connection configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ConnectivityError reports that the server could not be reached or did not answer the ping.
// The manager stays uninitialized, so the caller may try again.
type ConnectivityError struct {
	Host string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("database server %s is not reachable: %v", e.Host, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}
