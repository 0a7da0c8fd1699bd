package service

import (
	"errors"
	"net/http"

	"auditorium/pkg/constraints"
)

// Error is a domain failure that maps onto an HTTP status and an API error
// code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidCredentials     = &Error{http.StatusUnauthorized, constraints.CodeInvalidCredentials, "wrong email or password"}
	ErrInvalidAccessToken     = &Error{http.StatusUnauthorized, constraints.CodeInvalidAccessToken, "invalid or expired access token"}
	ErrInvalidRefreshToken    = &Error{http.StatusUnauthorized, constraints.CodeInvalidRefreshToken, "invalid or expired refresh token"}
	ErrEmailAlreadyRegistered = &Error{http.StatusConflict, constraints.CodeEmailAlreadyRegistered, "email is already registered"}
	ErrEmailNotRegistered     = &Error{http.StatusNotFound, constraints.CodeEmailNotRegistered, "email is not registered"}
	ErrInvalidOTP             = &Error{http.StatusBadRequest, constraints.CodeInvalidOTP, "invalid or expired otp"}
	ErrForbidden              = &Error{http.StatusForbidden, constraints.CodeForbidden, "not allowed"}
	ErrUserNotFound           = &Error{http.StatusNotFound, constraints.CodeNotFound, "user not found"}
	ErrConferenceNotFound     = &Error{http.StatusNotFound, constraints.CodeNotFound, "conference not found"}
	ErrFeedbackNotFound       = &Error{http.StatusNotFound, constraints.CodeNotFound, "feedback not found"}
	ErrAlreadyRegistered      = &Error{http.StatusConflict, constraints.CodeConflict, "already registered for this conference"}
	ErrConferenceFull         = &Error{http.StatusConflict, constraints.CodeConflict, "no seats left"}
	ErrConferenceClosed       = &Error{http.StatusConflict, constraints.CodeConflict, "conference is not open for registration"}
	ErrNotRegistered          = &Error{http.StatusForbidden, constraints.CodeForbidden, "only attendees can leave feedback"}
	ErrInvalidSchedule        = &Error{http.StatusBadRequest, constraints.CodeValidation, "ends_at must be after starts_at"}
)

// AsError unwraps err into a domain error, or nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
