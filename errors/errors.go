package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Authentication failures. All of them are terminal for a connection
	// attempt: the socket is rejected, never retried.
	ErrMissingCredential  = fmt.Errorf("no credential in header or query parameter")
	ErrMalformedToken     = fmt.Errorf("malformed token")
	ErrInvalidSignature   = fmt.Errorf("invalid token signature")
	ErrTokenExpired       = fmt.Errorf("token expired")
	ErrUnknownPrincipal   = fmt.Errorf("token subject does not resolve to a user")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")

	// Membership outcomes. Structured so the HTTP layer can tell them apart.
	// None of them is fatal to the process.
	ErrRoomNotFound  = fmt.Errorf("chatroom not found")
	ErrRoomFull      = fmt.Errorf("chatroom is full")
	ErrAlreadyMember = fmt.Errorf("already a member of this chatroom")
	ErrNotAMember    = fmt.Errorf("not a member of this chatroom")

	// Relay failures. A dropped publish means no other participant ever sees
	// the event, so callers must surface these rather than swallow them.
	ErrRelayUnavailable = fmt.Errorf("message relay unavailable")
	ErrPublishFailed    = fmt.Errorf("event publish failed")

	ErrMalformedFrame = fmt.Errorf("malformed frame")
)

// MapToHTTPStatus translates domain errors into status codes for the
// write-path REST handlers.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRoomFull):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrNotAMember),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrMalformedFrame):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrMissingCredential),
		errors.Is(err, ErrMalformedToken),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrUnknownPrincipal):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrRelayUnavailable), errors.Is(err, ErrPublishFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
