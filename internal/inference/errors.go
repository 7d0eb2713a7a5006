package inference

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the hosted inference client.
var (
	ErrMissingAPIKey  = errors.New("inference API key is not configured")
	ErrInvalidRequest = errors.New("invalid workflow request")
	ErrImage          = errors.New("cannot prepare image")
	ErrTransport      = errors.New("inference transport failed")
	ErrStatus         = errors.New("inference service returned non-2xx status")
	ErrDecode         = errors.New("inference response is not valid JSON")
)

// maxErrorBody caps how much of a rejected response is kept in StatusError.
const maxErrorBody = 512

// StatusError carries the HTTP status and a prefix of the body the service
// answered with.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("workflow request failed: %d", e.Code)
	}
	return fmt.Sprintf("workflow request failed: %d: %s", e.Code, e.Body)
}

// Is lets callers match any StatusError with errors.Is(err, ErrStatus).
func (e *StatusError) Is(target error) bool { return target == ErrStatus }
