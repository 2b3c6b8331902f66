package crucible

import (
	"errors"
	"fmt"
)

// ErrAuthentication is returned when the login request is rejected or the
// response does not carry a token.
var ErrAuthentication = errors.New("crucible: authentication failed")

// StatusError is returned when an endpoint answers with an unexpected status code.
type StatusError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("crucible %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("crucible %s: unexpected status %d", e.Op, e.StatusCode)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
