package core

import (
	"context"
	"errors"
	"fmt"
)

// FetchErrorKind classifies fetch failures.
type FetchErrorKind string

const (
	FetchTimeout     FetchErrorKind = "timeout"
	FetchNonDocument FetchErrorKind = "non_document"
	FetchHTTPStatus  FetchErrorKind = "http_status"
	FetchNetwork     FetchErrorKind = "network"
	FetchTooLarge    FetchErrorKind = "too_large"
)

// FetchError is returned by a Fetcher.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	case FetchNonDocument:
		return fmt.Sprintf("fetch %s: non-document content: %v", e.URL, e.Err)
	case FetchTooLarge:
		return fmt.Sprintf("fetch %s: body too large: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsNonDocument reports whether err signals content that is not an HTML page.
func IsNonDocument(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchNonDocument
}

// BackendErrorKind classifies translation backend failures.
type BackendErrorKind string

const (
	BackendAuth        BackendErrorKind = "auth"
	BackendRateLimited BackendErrorKind = "rate_limited"
	BackendUnavailable BackendErrorKind = "unavailable"
	BackendUnsupported BackendErrorKind = "unsupported"
	BackendBadRequest  BackendErrorKind = "bad_request"
)

// BackendError is returned by a Backend.
type BackendError struct {
	Kind   BackendErrorKind
	Status int
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Transient reports whether the failure may succeed on retry.
func (e *BackendError) Transient() bool {
	return e.Kind == BackendRateLimited || e.Kind == BackendUnavailable
}

// IsTransient reports whether err is worth retrying. Timeouts count as
// transient; errors of unknown shape do not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsPermanent reports whether err is a non-retryable backend failure that
// should abort the whole run.
func IsPermanent(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && !be.Transient()
}

// StageError records the pipeline stage an error originated in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }
