package github

import (
	"errors"
	"fmt"
)

// ErrTransient marks failures that a later run may not see: non-2xx
// responses, transport errors and timeouts.
var ErrTransient = errors.New("transient github error")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("github: GET %s: status %d: %s", e.URL, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrTransient) match every APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrTransient
}
