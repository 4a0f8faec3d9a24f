package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is the cause of a QueryError whose last attempt got 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrExhausted matches a QueryError that used every attempt.
	ErrExhausted = errors.New("retries exhausted")
)

// QueryError is returned when a request could not be completed.
type QueryError struct {
	Attempts  int
	Status    int
	Err       error
	Exhausted bool
}

func (e *QueryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("query failed after %d attempt(s) (status %d): %v", e.Attempts, e.Status, e.Err)
	}
	return fmt.Sprintf("query failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *QueryError) Unwrap() []error {
	if e.Exhausted {
		return []error{e.Err, ErrExhausted}
	}
	return []error{e.Err}
}
