package github

import (
	"errors"
	"fmt"
)

// AuthError is a permanent authentication or authorization failure.
// It is never retried and aborts the current repository.
type AuthError struct {
	StatusCode int
	URL        string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d) for %s", e.StatusCode, e.URL)
}

// NotFoundError is a permanent failure for a missing resource.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.URL
}

// ClientError is any other non-retryable 4xx response.
type ClientError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("request rejected (status %d) for %s: %s", e.StatusCode, e.URL, e.Body)
}

// RetryExhaustedError reports that a transient failure survived every
// retry attempt, or that a rate-limit wait exceeded the allowed ceiling.
type RetryExhaustedError struct {
	Attempts   int
	LastStatus int
	URL        string
	Err        error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts (last status %d) for %s: %v",
		e.Attempts, e.LastStatus, e.URL, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsPermanent reports whether err can never succeed on retry.
func IsPermanent(err error) bool {
	var ce *ClientError
	return IsAuth(err) || IsNotFound(err) || errors.As(err, &ce)
}
