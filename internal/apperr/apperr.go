package apperr

import "net/http"

// Error is the application error carried from handlers and repositories to
// the HTTP error handler, which renders it as the uniform envelope
// {"error": code, "message": message, "statusCode": status}.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"statusCode"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// BadRequest reports a validation failure. The message is the first violated
// rule of the request schema.
func BadRequest(message string) *Error {
	return &Error{Code: "BAD_REQUEST", Message: message, Status: http.StatusBadRequest}
}

// Unauthenticated reports a missing or invalid session.
func Unauthenticated(message string) *Error {
	return &Error{Code: "UNAUTHENTICATED", Message: message, Status: http.StatusUnauthorized}
}

// Forbidden reports an authenticated request lacking the required permission.
func Forbidden(message string) *Error {
	return &Error{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden}
}

// NotFound reports an absent record. Cross-tenant records and, for
// assignee-only transitions, records the caller is not authorized to see are
// reported with the same code so existence never leaks.
func NotFound(message string) *Error {
	return &Error{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound}
}

// Internal reports an unexpected error. The message never carries internal
// detail; the cause is logged, not returned.
func Internal(message string) *Error {
	return &Error{Code: "SERVER_ERROR", Message: message, Status: http.StatusInternalServerError}
}
