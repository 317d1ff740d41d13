package api

import "fmt"

// HTTPError is any non-2xx response. Message is the server's "message"
// field when it sent one, otherwise a fallback naming the operation.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string { return e.Message }

// Detail includes the status code, for logs.
func (e *HTTPError) Detail() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// AuthError means the credential exchange was rejected or returned no token.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }
