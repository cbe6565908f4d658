package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trade-dashboard-sync/internal/analytics"
	"trade-dashboard-sync/internal/models"
)

// ErrorKind classifies the failures the orchestrator reports.
type ErrorKind string

const (
	// KindConnectivity means the health check failed.
	KindConnectivity ErrorKind = "connectivity"
	// KindFetch means a dashboard or historical request failed while connected.
	KindFetch ErrorKind = "fetch"
	// KindValidation means user input was rejected before anything ran.
	KindValidation ErrorKind = "validation"
)

// Error is the single error type surfaced to the presentation layer.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON renders only the user-facing parts.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    ErrorKind `json:"kind"`
		Message string    `json:"message"`
	}{Kind: e.Kind, Message: e.Message})
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// NewConnectivityError reports that the API at baseURL could not be reached.
func NewConnectivityError(baseURL string, err error) *Error {
	return &Error{
		Kind:    KindConnectivity,
		Message: fmt.Sprintf("cannot reach the analytics API at %s; make sure the backend is running", baseURL),
		Err:     err,
	}
}

// NewFetchError reports a failed snapshot request. The API's own detail message is
// preferred when it sent one.
func NewFetchError(source models.Source, referenceDate time.Time, err error) *Error {
	msg := fmt.Sprintf("failed to load %s data for %s", source, models.FormatDate(referenceDate))
	var apiErr *analytics.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		msg = apiErr.Detail
	}
	return &Error{Kind: KindFetch, Message: msg, Err: err}
}

// NewValidationError reports rejected user input.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
