package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned by operations that need a logged-in user.
var ErrNoSession = errors.New("no active session")

// ErrSessionChanged is returned when the session switched users while a
// request was in flight and its result was dropped.
var ErrSessionChanged = errors.New("session changed during request")

// AuthError reports rejected credentials or an unreadable access token.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// SubjectFromToken returns the sub claim of an access token. The signature
// is not checked; the token is only ever sent back to the service that
// issued it.
func SubjectFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", &AuthError{Reason: "malformed access token", Err: err}
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", &AuthError{Reason: "unreadable subject claim", Err: err}
	}
	if sub == "" {
		return "", &AuthError{Reason: "access token has no subject"}
	}
	return sub, nil
}
