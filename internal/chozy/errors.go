package chozy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chozy/feedsync/pkg/credential"
)

var (
	// ErrUnauthorized matches API errors caused by a missing or rejected credential.
	ErrUnauthorized = credential.ErrUnauthorized

	// ErrMalformedResponse is returned when a response cannot be understood.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-success answer from the Chozy API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Chozy API authentication failed - please run 'chozy login' to sign in again"
	case http.StatusForbidden:
		return "Chozy API access denied for this account"
	case http.StatusNotFound:
		return "Chozy API could not find the requested feed"
	case http.StatusTooManyRequests:
		return "Chozy API rate limit exceeded - please try again later"
	case http.StatusServiceUnavailable:
		return "Chozy API temporarily unavailable - please try again in a few minutes"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return "Chozy API server error - please try again later"
	}
	if e.Message != "" {
		return fmt.Sprintf("Chozy API error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("Chozy API error (status %d) - please try again", e.StatusCode)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
