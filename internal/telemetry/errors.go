package telemetry

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the telemetry reader.
var (
	ErrTransport        = errors.New("telemetry transport failed")
	ErrStatus           = errors.New("telemetry endpoint returned non-200 status")
	ErrDecode           = errors.New("telemetry response is not valid JSON")
	ErrUnexpectedFormat = errors.New("unexpected telemetry data format")
	ErrInvalidEndpoint  = errors.New("invalid telemetry endpoint")
)

// StatusError carries the HTTP status of a rejected fetch.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API call failed with status %d", e.Code)
}

// Is lets callers match any StatusError with errors.Is(err, ErrStatus).
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// FormatError reports a payload whose layout is not one of the accepted shapes.
type FormatError struct {
	// Kind is the JSON kind that was found, e.g. "number".
	Kind string
	// Where is empty for the top level, otherwise the offending location.
	Where string
}

func (e *FormatError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("Unexpected data format: %s", e.Kind)
	}
	return fmt.Sprintf("Unexpected data format: %s at %s", e.Kind, e.Where)
}

// Is lets callers match any FormatError with errors.Is(err, ErrUnexpectedFormat).
func (e *FormatError) Is(target error) bool { return target == ErrUnexpectedFormat }
