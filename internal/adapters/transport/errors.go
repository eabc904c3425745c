package transport

import (
	"fmt"
	"net/http"
)

// TransportError reports a non-2xx response, or a 2xx response whose JSON body
// could not be decoded.
type TransportError struct {
	Status  int
	Message string

	// Err is the underlying decode error for malformed bodies; nil otherwise.
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFound reports whether the service answered 404.
func (e *TransportError) NotFound() bool { return e != nil && e.Status == http.StatusNotFound }
