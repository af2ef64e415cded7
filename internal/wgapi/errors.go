package wgapi

import "fmt"

// StatusError is a non-200 reply from the dashboard.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wgapi: status %d: %s", e.Code, e.Body)
}

// FetchError is returned once every attempt of a poll has failed.
type FetchError struct {
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("wgapi: %d attempt(s) failed: %v", e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
