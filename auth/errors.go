package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrAuthenticationFailed matches every *AuthenticationError via errors.Is.
	ErrAuthenticationFailed = errors.New("auth: authentication failed")

	// ErrInvalidAPIKey is reported when an inbound request carries a wrong or
	// missing API key.
	ErrInvalidAPIKey = errors.New("auth: invalid api key")
)

// AuthenticationError reports that the upstream auth endpoint answered with
// a non-200 status. Body holds the raw response text.
type AuthenticationError struct {
	StatusCode int
	Body       string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("auth: authentication failed with status %d: %s", e.StatusCode, e.Body)
}

// Is makes errors.Is(err, ErrAuthenticationFailed) true.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}
