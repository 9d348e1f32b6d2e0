package ledger

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorTag is the closed set of failure causes the canister surface can
// report. Callers branch on the tag, never on message text.
type ErrorTag string

const (
	TagUnauthorized ErrorTag = "Unauthorized"
	TagAnonymous    ErrorTag = "Anonymous"
	TagNotFound     ErrorTag = "NotFound"
	TagInvalid      ErrorTag = "Invalid"
	TagUnavailable  ErrorTag = "Unavailable"
	TagInternal     ErrorTag = "Internal"
)

// Error is a tagged failure returned by a canister call.
type Error struct {
	Tag     ErrorTag
	Method  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger %s: %s: %s", e.Method, e.Tag, e.Message)
}

// TagOf extracts the error tag from err, or TagInternal if err is not a
// ledger error.
func TagOf(err error) ErrorTag {
	var le *Error
	if errors.As(err, &le) {
		return le.Tag
	}
	return TagInternal
}

func IsUnauthorized(err error) bool { return TagOf(err) == TagUnauthorized }
func IsAnonymous(err error) bool    { return TagOf(err) == TagAnonymous }
func IsNotFound(err error) bool     { return TagOf(err) == TagNotFound }
func IsInvalid(err error) bool      { return TagOf(err) == TagInvalid }
func IsUnavailable(err error) bool  { return TagOf(err) == TagUnavailable }

// Structural reports whether err denotes a structural failure (the caller is
// unknown, anonymous, or the subject does not exist) as opposed to a
// transient one. The access-flow guard redirects on structural failures and
// asks the caller to retry on transient ones.
func Structural(err error) bool {
	switch TagOf(err) {
	case TagUnauthorized, TagAnonymous, TagNotFound:
		return true
	}
	return false
}

// HTTPStatus maps a ledger failure to the status code handlers report.
func HTTPStatus(err error) int {
	switch TagOf(err) {
	case TagUnauthorized:
		return http.StatusForbidden
	case TagAnonymous:
		return http.StatusUnauthorized
	case TagNotFound:
		return http.StatusNotFound
	case TagInvalid:
		return http.StatusBadRequest
	case TagUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
